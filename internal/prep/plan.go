// Package prep turns a menu and its linked recipes into the kitchen prep plan
// and the front-of-house briefing.
package prep

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"menuops/internal/config"
	"menuops/internal/linker"
	"menuops/internal/models"
	"menuops/internal/units"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
)

const source = "prep"

// PlanInput is everything a plan or briefing is derived from
type PlanInput struct {
	ProjectID   string
	Menu        models.Menu
	Items       []models.MenuItem
	Recipes     []models.Recipe
	Links       models.LinkTable
	ServiceDate time.Time
}

// Aggregator builds prep plans and FOH briefings
type Aggregator struct {
	opts   config.PrepConfig
	writer TalkingPointWriter
	log    zerolog.Logger
	now    func() time.Time
}

// New creates an aggregator. writer may be nil.
func New(opts config.PrepConfig, writer TalkingPointWriter, log zerolog.Logger) *Aggregator {
	if opts.DefaultStation == "" {
		opts.DefaultStation = config.Default().Prep.DefaultStation
	}
	return &Aggregator{
		opts:   opts,
		writer: writer,
		log:    log.With().Str("component", "prep").Logger(),
		now:    time.Now,
	}
}

// Priority maps the hours left before an item must be ready onto a bucket
// priority. Buckets are checked in ascending order of MaxHours.
func Priority(hours float64, buckets []config.LeadTimeBucket, fallback int) int {
	for _, b := range buckets {
		if hours <= b.MaxHours {
			return b.Priority
		}
	}
	return fallback
}

// LeadTime returns the recipe's lead time in hours, derived from prep and
// cook time when it is not set
func LeadTime(r *models.Recipe) float64 {
	if r.LeadTimeHours > 0 {
		return r.LeadTimeHours
	}
	return r.TotalMinutes() / 60
}

// ScaleFactor returns covers / servings. Missing covers scale by one and
// missing servings count as one.
func ScaleFactor(covers, servings int) float64 {
	if covers <= 0 {
		return 1
	}
	if servings <= 0 {
		servings = 1
	}
	return float64(covers) / float64(servings)
}

func (a *Aggregator) station(item models.MenuItem, r *models.Recipe) string {
	switch {
	case strings.TrimSpace(item.PrepStation) != "":
		return item.PrepStation
	case r != nil && strings.TrimSpace(r.Station) != "":
		return r.Station
	default:
		return a.opts.DefaultStation
	}
}

func (a *Aggregator) horizon(serviceDate time.Time) float64 {
	if serviceDate.IsZero() {
		return a.opts.DefaultHorizonHours
	}
	return serviceDate.Sub(a.now()).Hours()
}

type shoppingKey struct {
	name string
	unit string
}

type shoppingLine struct {
	models.ShoppingItem
	order int
}

// GeneratePrepPlan scales every linked recipe to its projected covers,
// groups the tasks per station and totals the shopping list. Missing data
// becomes warnings on the plan.
func (a *Aggregator) GeneratePrepPlan(in PlanInput) (plan *models.PrepPlan) {
	plan = a.emptyPlan(in)
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("prep plan generation failed")
			plan = a.emptyPlan(in)
			plan.Warnings = append(plan.Warnings, models.Warning{
				Source:  source,
				Type:    models.WarningInternalError,
				Message: fmt.Sprint(r),
			})
		}
	}()

	recipes := linker.Index(in.Recipes)
	hours := a.horizon(in.ServiceDate)
	folder := cases.Fold()
	totals := make(map[shoppingKey]*shoppingLine)

	for _, item := range in.Items {
		recipe := linker.Resolve(item, in.Links, recipes)
		station := a.station(item, recipe)
		planned := models.PlannedItem{
			ItemID:       item.ID,
			Name:         item.DisplayName(),
			Station:      station,
			RecipeStatus: linker.StatusOf(recipe).Status,
			Covers:       item.ProjectedCovers,
		}
		plan.Summary.TotalCovers += item.ProjectedCovers

		if recipe == nil {
			plan.Items = append(plan.Items, planned)
			plan.Warnings = append(plan.Warnings, models.Warning{
				Source:  source,
				Type:    models.WarningMissingRecipe,
				Message: fmt.Sprintf("%s has no linked recipe", item.DisplayName()),
				ItemID:  item.ID,
				Name:    item.DisplayName(),
			})
			continue
		}
		planned.RecipeID = recipe.ID
		plan.Items = append(plan.Items, planned)
		plan.Summary.LinkedItems++

		scale := ScaleFactor(item.ProjectedCovers, recipe.Servings)
		lead := LeadTime(recipe)
		task := models.PrepTask{
			ItemID:        item.ID,
			ItemName:      item.DisplayName(),
			RecipeID:      recipe.ID,
			RecipeTitle:   recipe.DisplayTitle(),
			Covers:        item.ProjectedCovers,
			ScaleFactor:   units.Round2(scale),
			Ingredients:   make([]models.ScaledIngredient, 0, len(recipe.Ingredients)),
			Components:    recipe.Components,
			LeadTimeHours: units.Round2(lead),
			Priority:      Priority(hours-lead, a.opts.LeadTimeBuckets, a.opts.FallbackPriority),
		}

		for _, ing := range recipe.Ingredients {
			scaled := models.ScaledIngredient{
				Name:  ing.Name,
				Unit:  ing.Unit,
				Raw:   string(ing.Amount),
				Notes: ing.Notes,
			}
			qty, ok := units.ParseQuantity(string(ing.Amount))
			if !ok {
				task.Ingredients = append(task.Ingredients, scaled)
				plan.Warnings = append(plan.Warnings, models.Warning{
					Source:  source,
					Type:    models.WarningUnparseableQuantity,
					Message: fmt.Sprintf("could not read amount %q for %s in %s", ing.Amount, ing.Name, recipe.DisplayTitle()),
					ItemID:  item.ID,
					Name:    ing.Name,
				})
				continue
			}
			q := units.Round2(qty * scale)
			scaled.Quantity = &q
			task.Ingredients = append(task.Ingredients, scaled)

			key := shoppingKey{name: folder.String(strings.TrimSpace(ing.Name)), unit: units.Canonical(ing.Unit)}
			line, ok := totals[key]
			if !ok {
				line = &shoppingLine{
					ShoppingItem: models.ShoppingItem{Name: strings.TrimSpace(ing.Name), Unit: key.unit},
					order:        len(totals),
				}
				totals[key] = line
			}
			line.Quantity += qty * scale
			line.UsedBy = appendUnique(line.UsedBy, item.DisplayName())
		}

		sp, ok := plan.Stations[station]
		if !ok {
			sp = &models.StationPlan{Station: station}
			plan.Stations[station] = sp
		}
		sp.Tasks = append(sp.Tasks, task)
	}

	for _, sp := range plan.Stations {
		sort.SliceStable(sp.Tasks, func(i, j int) bool {
			return sp.Tasks[i].Priority > sp.Tasks[j].Priority
		})
	}

	lines, warnings := a.consolidate(totals)
	plan.Shopping = lines
	plan.Warnings = append(plan.Warnings, warnings...)

	plan.Summary.TotalItems = len(in.Items)
	plan.Summary.StationCount = len(plan.Stations)
	plan.Summary.ShoppingLines = len(plan.Shopping)
	return plan
}

func (a *Aggregator) emptyPlan(in PlanInput) *models.PrepPlan {
	return &models.PrepPlan{
		MenuID:      in.Menu.ID,
		MenuName:    in.Menu.Name,
		ServiceDate: in.ServiceDate,
		GeneratedAt: a.now(),
		Stations:    map[string]*models.StationPlan{},
		Shopping:    []models.ShoppingItem{},
		Items:       []models.PlannedItem{},
		Warnings:    []models.Warning{},
	}
}

// consolidate rounds the totals and reports ingredients bought in more than
// one unit. With MergeUnits set, weight units of one ingredient collapse into
// a single lb line.
func (a *Aggregator) consolidate(totals map[shoppingKey]*shoppingLine) ([]models.ShoppingItem, []models.Warning) {
	byName := make(map[string][]*shoppingLine)
	var names []string
	for key, line := range totals {
		if _, ok := byName[key.name]; !ok {
			names = append(names, key.name)
		}
		byName[key.name] = append(byName[key.name], line)
	}
	sort.Strings(names)

	var (
		out      []*shoppingLine
		warnings []models.Warning
	)
	for _, name := range names {
		group := byName[name]
		sort.Slice(group, func(i, j int) bool { return group[i].order < group[j].order })
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		if a.opts.MergeUnits {
			if merged, ok := mergeWeights(group); ok {
				out = append(out, merged)
				continue
			}
		}
		unitList := make([]string, 0, len(group))
		kind := models.WarningUnitMismatch
		for _, l := range group {
			unitList = append(unitList, l.Unit)
			if a.opts.MergeUnits && units.CategoryOf(l.Unit) == units.CategoryUnknown {
				kind = models.WarningLowConfidenceUnit
			}
		}
		warnings = append(warnings, models.Warning{
			Source:  source,
			Type:    kind,
			Message: fmt.Sprintf("%s is listed in several units (%s), review before ordering", group[0].Name, strings.Join(unitList, ", ")),
			Name:    group[0].Name,
		})
		out = append(out, group...)
	}

	items := make([]models.ShoppingItem, 0, len(out))
	for _, l := range out {
		l.Quantity = units.Round2(l.Quantity)
		items = append(items, l.ShoppingItem)
	}
	return items, warnings
}

func mergeWeights(group []*shoppingLine) (*shoppingLine, bool) {
	for _, l := range group {
		if units.CategoryOf(l.Unit) != units.CategoryWeight {
			return nil, false
		}
	}
	merged := &shoppingLine{
		ShoppingItem: models.ShoppingItem{Name: group[0].Name, Unit: "lb"},
		order:        group[0].order,
	}
	for _, l := range group {
		lb, _ := units.ToPounds(l.Quantity, l.Unit)
		merged.Quantity += lb
		for _, u := range l.UsedBy {
			merged.UsedBy = appendUnique(merged.UsedBy, u)
		}
	}
	return merged, true
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
