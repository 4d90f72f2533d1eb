package prep

import (
	"context"
	"errors"
	"time"

	"menuops/internal/models"
	"menuops/internal/store"
)

// LoadInput reads a project's menu, recipes and links from the stores.
// Malformed records are reported as warnings and the rest is still
// returned. A zero serviceDate falls back to the menu's own date.
func LoadInput(ctx context.Context, stores *store.Stores, projectID string, serviceDate time.Time) (PlanInput, []models.Warning, error) {
	in := PlanInput{ProjectID: projectID, ServiceDate: serviceDate, Links: models.LinkTable{}}
	var warnings []models.Warning
	malformed := func(what string, err error) bool {
		if !errors.Is(err, store.ErrMalformed) {
			return false
		}
		warnings = append(warnings, models.Warning{
			Source:  "store",
			Type:    models.WarningMalformedData,
			Message: what + ": " + err.Error(),
		})
		return true
	}

	menu, err := stores.Menus.Get(ctx, projectID)
	switch {
	case err == nil:
		in.Menu = menu.Menu
		in.Items = menu.Items
	case !malformed("menu", err):
		return in, warnings, err
	}

	recipes, err := stores.Recipes.All(ctx)
	if err != nil && !malformed("recipes", err) {
		return in, warnings, err
	}
	in.Recipes = recipes

	links, err := stores.Links.All(ctx)
	switch {
	case err == nil:
		in.Links = links
	case !malformed("menu recipe links", err):
		return in, warnings, err
	}

	if in.ServiceDate.IsZero() && in.Menu.ServiceDate != "" {
		if d, err := time.Parse("2006-01-02", in.Menu.ServiceDate); err == nil {
			in.ServiceDate = d
		}
	}
	return in, warnings, nil
}
