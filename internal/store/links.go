package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"menuops/internal/events"
	"menuops/internal/models"
)

// LinkStore owns menu_recipe_links, the source of truth for menu item to
// recipe resolution. Each menu item has at most one link.
type LinkStore struct {
	backend
	mu sync.Mutex
}

// All returns the whole link table
func (s *LinkStore) All(ctx context.Context) (models.LinkTable, error) {
	table := models.LinkTable{}
	if _, err := s.load(ctx, KeyLinks, &table); err != nil {
		return models.LinkTable{}, err
	}
	if table == nil {
		table = models.LinkTable{}
	}
	return table, nil
}

// Get returns the link of one menu item
func (s *LinkStore) Get(ctx context.Context, menuItemID string) (models.MenuRecipeLink, bool, error) {
	table, err := s.All(ctx)
	if err != nil {
		return models.MenuRecipeLink{}, false, err
	}
	link, ok := table[menuItemID]
	if !ok || link.RecipeID == "" {
		return models.MenuRecipeLink{}, false, nil
	}
	return link, true, nil
}

// Set links a menu item to a recipe, replacing any previous link
func (s *LinkStore) Set(ctx context.Context, menuItemID, recipeID string, at time.Time) (models.MenuRecipeLink, error) {
	if menuItemID == "" || recipeID == "" {
		return models.MenuRecipeLink{}, fmt.Errorf("link requires menu item id and recipe id")
	}
	link := models.MenuRecipeLink{RecipeID: recipeID, LinkedAt: at}

	s.mu.Lock()
	table, err := s.All(ctx)
	if err == nil {
		table[menuItemID] = link
		err = s.write(ctx, KeyLinks, table)
	}
	s.mu.Unlock()
	if err != nil {
		return models.MenuRecipeLink{}, err
	}

	s.notify(KeyLinks, events.MenuWorkflowUpdated)
	return link, nil
}

// Remove deletes a menu item's link and returns what it pointed to
func (s *LinkStore) Remove(ctx context.Context, menuItemID string) (models.MenuRecipeLink, bool, error) {
	link, ok, err := s.remove(ctx, menuItemID)
	if err != nil || !ok {
		return link, ok, err
	}
	s.notify(KeyLinks, events.MenuWorkflowUpdated)
	return link, true, nil
}

func (s *LinkStore) remove(ctx context.Context, menuItemID string) (models.MenuRecipeLink, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.All(ctx)
	if err != nil {
		return models.MenuRecipeLink{}, false, err
	}
	link, ok := table[menuItemID]
	if !ok {
		return models.MenuRecipeLink{}, false, nil
	}
	delete(table, menuItemID)
	if err := s.write(ctx, KeyLinks, table); err != nil {
		return models.MenuRecipeLink{}, false, err
	}
	return link, true, nil
}
