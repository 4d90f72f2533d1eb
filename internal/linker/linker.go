// Package linker keeps menu items bound to recipe records: it builds stubs
// for unlinked items, resolves links, classifies recipe development and
// costs dishes.
package linker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"menuops/internal/models"
	"menuops/internal/store"
	"menuops/internal/units"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyLinked is returned when a stub is requested for a linked item
	ErrAlreadyLinked = errors.New("menu item already has a linked recipe")
	// ErrNoRecipe is returned when costing an item without a recipe
	ErrNoRecipe = errors.New("menu item has no linked recipe")
)

// Options holds the costing constants
type Options struct {
	LaborRatePerHour float64
	FoodCostTarget   float64
}

// Linker maintains menu item to recipe links over the stores
type Linker struct {
	stores *store.Stores
	opts   Options
	log    zerolog.Logger

	// serialises check-then-create so one item never gets two stubs
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

// New creates a linker
func New(stores *store.Stores, opts Options, log zerolog.Logger) *Linker {
	return &Linker{
		stores: stores,
		opts:   opts,
		log:    log.With().Str("component", "linker").Logger(),
		now:    time.Now,
		newID:  func() string { return "recipe-" + uuid.NewString() },
	}
}

// BuildStub constructs a placeholder recipe for a menu item without touching
// storage
func BuildStub(item models.MenuItem, id string, now time.Time, foodCostTarget float64) models.Recipe {
	r := models.Recipe{
		ID:           id,
		Title:        item.DisplayName(),
		Description:  item.Description,
		Cuisine:      GuessCuisine(item.Name, item.Description),
		Category:     item.Category,
		Ingredients:  []models.Ingredient{},
		Instructions: []string{},
		Components:   []string{},
		Station:      item.PrepStation,
		Status:       models.RecipeStatusNeedsDevelopment,
		MenuItemID:   item.ID,
		IsStub:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if item.Price > 0 {
		target := units.Round2(item.Price * foodCostTarget)
		r.TargetCost = &target
	}
	return r
}

// BuildStub builds a stub with the linker's clock, id source and target
func (l *Linker) BuildStub(item models.MenuItem) models.Recipe {
	return BuildStub(item, l.newID(), l.now(), l.opts.FoodCostTarget)
}

// CreateRecipeStubForMenuItem persists a stub and links it. It refuses with
// ErrAlreadyLinked when the item already resolves through a link.
func (l *Linker) CreateRecipeStubForMenuItem(ctx context.Context, item models.MenuItem) (*models.Recipe, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createStubLocked(ctx, item)
}

func (l *Linker) createStubLocked(ctx context.Context, item models.MenuItem) (*models.Recipe, error) {
	if err := models.ValidateMenuItem(&item); err != nil {
		return nil, err
	}
	if _, linked, err := l.stores.Links.Get(ctx, item.ID); err != nil {
		return nil, err
	} else if linked {
		return nil, fmt.Errorf("menu item %s: %w", item.ID, ErrAlreadyLinked)
	}

	stub := l.BuildStub(item)
	if err := l.stores.Recipes.Save(ctx, &stub); err != nil {
		return nil, fmt.Errorf("save stub for %s: %w", item.ID, err)
	}
	if _, err := l.stores.Links.Set(ctx, item.ID, stub.ID, l.now()); err != nil {
		return nil, fmt.Errorf("link stub for %s: %w", item.ID, err)
	}

	l.log.Info().Str("menu_item", item.ID).Str("recipe", stub.ID).Str("cuisine", stub.Cuisine).Msg("created recipe stub")
	return &stub, nil
}

// EnsureRecipe returns the item's linked recipe, creating a stub when there
// is none. created reports whether a stub was made.
func (l *Linker) EnsureRecipe(ctx context.Context, item models.MenuItem) (recipe *models.Recipe, created bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.GetRecipeForMenuItem(ctx, item.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	// a dangling link is replaced by the new stub
	if _, _, err := l.stores.Links.Remove(ctx, item.ID); err != nil {
		return nil, false, err
	}
	stub, err := l.createStubLocked(ctx, item)
	if err != nil {
		return nil, false, err
	}
	return stub, true, nil
}

// GetRecipeForMenuItem resolves through the link table only. Unlinked items
// and links to missing recipes yield nil.
func (l *Linker) GetRecipeForMenuItem(ctx context.Context, menuItemID string) (*models.Recipe, error) {
	link, ok, err := l.stores.Links.Get(ctx, menuItemID)
	if err != nil || !ok {
		return nil, err
	}
	r, err := l.stores.Recipes.Get(ctx, link.RecipeID)
	if errors.Is(err, store.ErrNotFound) {
		l.log.Warn().Str("menu_item", menuItemID).Str("recipe", link.RecipeID).Msg("link points at a missing recipe")
		return nil, nil
	}
	return r, err
}

// ResolveRecipe resolves through the link, then the item's own recipeId
func (l *Linker) ResolveRecipe(ctx context.Context, item models.MenuItem) (*models.Recipe, error) {
	r, err := l.GetRecipeForMenuItem(ctx, item.ID)
	if err != nil || r != nil || item.RecipeID == "" {
		return r, err
	}
	r, err = l.stores.Recipes.Get(ctx, item.RecipeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

// LinkRecipe manually links an item to an existing recipe, replacing any
// previous link
func (l *Linker) LinkRecipe(ctx context.Context, menuItemID, recipeID string) (models.MenuRecipeLink, error) {
	if _, err := l.stores.Recipes.Get(ctx, recipeID); err != nil {
		return models.MenuRecipeLink{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stores.Links.Set(ctx, menuItemID, recipeID, l.now())
}

// UnlinkMenuItem removes an item's link. Unless keepRecipe is set the linked
// recipe is deleted as well.
func (l *Linker) UnlinkMenuItem(ctx context.Context, menuItemID string, keepRecipe bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	link, ok, err := l.stores.Links.Remove(ctx, menuItemID)
	if err != nil || !ok || keepRecipe {
		return err
	}
	if err := l.stores.Recipes.Delete(ctx, link.RecipeID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// DeleteMenuItem removes an item from the project's menu and unlinks it
func (l *Linker) DeleteMenuItem(ctx context.Context, projectID, menuItemID string, keepRecipe bool) error {
	if err := l.stores.Menus.RemoveItem(ctx, projectID, menuItemID); err != nil {
		return err
	}
	return l.UnlinkMenuItem(ctx, menuItemID, keepRecipe)
}

// GetRecipeStatus classifies the development state of an item's recipe
func (l *Linker) GetRecipeStatus(ctx context.Context, menuItemID string) (models.RecipeStatusInfo, error) {
	r, err := l.GetRecipeForMenuItem(ctx, menuItemID)
	if err != nil {
		return StatusOf(nil), err
	}
	return StatusOf(r), nil
}

// CostOf sums ingredient costs and estimates labor from prep and cook time.
// Ingredient costs are taken as stated for the recipe quantity.
func CostOf(r *models.Recipe, price, laborRatePerHour float64) models.MenuItemCost {
	var ingredientCost float64
	for _, ing := range r.Ingredients {
		if ing.Cost != nil {
			ingredientCost += *ing.Cost
		}
	}
	labor := r.TotalMinutes() / 60 * laborRatePerHour

	cost := models.MenuItemCost{
		MenuItemID:     r.MenuItemID,
		RecipeID:       r.ID,
		IngredientCost: units.Round2(ingredientCost),
		LaborCost:      units.Round2(labor),
		TotalCost:      units.Round2(ingredientCost + labor),
	}
	if price > 0 {
		cost.FoodCostPercent = units.Round2(ingredientCost / price * 100)
	}
	return cost
}

// CalculateMenuItemCost costs the item of the current project's menu
func (l *Linker) CalculateMenuItemCost(ctx context.Context, menuItemID string) (models.MenuItemCost, error) {
	projectID, err := l.stores.Projects.Current(ctx)
	if err != nil {
		return models.MenuItemCost{}, err
	}
	menu, err := l.stores.Menus.Get(ctx, projectID)
	if err != nil {
		return models.MenuItemCost{}, err
	}

	item, ok := menu.FindItem(menuItemID)
	if !ok {
		item = &models.MenuItem{ID: menuItemID}
	}
	r, err := l.ResolveRecipe(ctx, *item)
	if err != nil {
		return models.MenuItemCost{}, err
	}
	if r == nil {
		return models.MenuItemCost{MenuItemID: menuItemID}, fmt.Errorf("menu item %s: %w", menuItemID, ErrNoRecipe)
	}

	cost := CostOf(r, item.Price, l.opts.LaborRatePerHour)
	cost.MenuItemID = menuItemID
	return cost, nil
}

// SyncMenuLinks links every item of the project's menu. Items naming an
// existing recipe through recipeId are linked to it; the rest get stubs.
// It returns how many links were created.
func (l *Linker) SyncMenuLinks(ctx context.Context, projectID string) (int, error) {
	menu, err := l.stores.Menus.Get(ctx, projectID)
	if err != nil {
		return 0, err
	}
	links, err := l.stores.Links.All(ctx)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	created := 0
	for _, item := range menu.Items {
		if link, ok := links[item.ID]; ok && link.RecipeID != "" {
			continue
		}
		if item.RecipeID != "" {
			if _, err := l.stores.Recipes.Get(ctx, item.RecipeID); err == nil {
				if _, err := l.stores.Links.Set(ctx, item.ID, item.RecipeID, l.now()); err != nil {
					return created, err
				}
				created++
				continue
			}
		}
		if _, err := l.createStubLocked(ctx, item); err != nil {
			return created, err
		}
		created++
	}

	if created > 0 {
		l.log.Info().Str("project", projectID).Int("links", created).Msg("synced menu links")
	}
	return created, nil
}

// Statuses classifies every item of the project's menu
func (l *Linker) Statuses(ctx context.Context, projectID string) (map[string]models.RecipeStatusInfo, error) {
	menu, err := l.stores.Menus.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.RecipeStatusInfo, len(menu.Items))
	for _, item := range menu.Items {
		status, err := l.GetRecipeStatus(ctx, item.ID)
		if err != nil {
			return out, err
		}
		out[item.ID] = status
	}
	return out, nil
}
