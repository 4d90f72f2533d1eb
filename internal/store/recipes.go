package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"menuops/internal/events"
	"menuops/internal/models"
)

// RecipeLibrary is the external recipe collection. When one is attached it
// is consulted first; the recipes and recipe_stubs keys remain the fallback.
type RecipeLibrary interface {
	RecipeLibrary() []models.Recipe
	Recipe(id string) (*models.Recipe, bool)
	AddToLibrary(recipe models.Recipe) error
}

// RecipeStore reads authored recipes and generated stubs
type RecipeStore struct {
	backend
	mu      sync.Mutex
	libMu   sync.RWMutex
	library RecipeLibrary
}

// SetLibrary attaches or detaches (nil) the external library
func (s *RecipeStore) SetLibrary(lib RecipeLibrary) {
	s.libMu.Lock()
	defer s.libMu.Unlock()
	s.library = lib
}

func (s *RecipeStore) lib() RecipeLibrary {
	s.libMu.RLock()
	defer s.libMu.RUnlock()
	return s.library
}

func (s *RecipeStore) list(ctx context.Context, key string) ([]models.Recipe, error) {
	var out []models.Recipe
	if _, err := s.load(ctx, key, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns library recipes, then authored recipes, then stubs, with the
// first occurrence of an id winning. Malformed keys are skipped and reported
// in the joined error alongside whatever could be read.
func (s *RecipeStore) All(ctx context.Context) ([]models.Recipe, error) {
	var (
		out  []models.Recipe
		errs []error
		seen = make(map[string]bool)
	)
	add := func(rs []models.Recipe) {
		for _, r := range rs {
			if r.ID == "" || seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}

	if lib := s.lib(); lib != nil {
		add(lib.RecipeLibrary())
	}
	for _, key := range []string{KeyRecipes, KeyRecipeStubs} {
		rs, err := s.list(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		add(rs)
	}
	return out, errors.Join(errs...)
}

// Get looks a recipe up by id
func (s *RecipeStore) Get(ctx context.Context, id string) (*models.Recipe, error) {
	if lib := s.lib(); lib != nil {
		if r, ok := lib.Recipe(id); ok && r != nil {
			return r, nil
		}
	}
	var errs []error
	for _, key := range []string{KeyRecipes, KeyRecipeStubs} {
		rs, err := s.list(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for i := range rs {
			if rs[i].ID == id {
				return &rs[i], nil
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
}

// Save validates and upserts a recipe. Stubs live under recipe_stubs; saving
// a non-stub with the id of a stub promotes it to recipes.
func (s *RecipeStore) Save(ctx context.Context, r *models.Recipe) error {
	if err := models.ValidateRecipe(r); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = time.Now()

	touched, err := s.upsert(ctx, r)
	for _, key := range touched {
		s.notify(key, events.RecipesUpdated)
	}
	if err != nil {
		return err
	}

	if lib := s.lib(); lib != nil && !r.IsStub {
		if err := lib.AddToLibrary(*r); err != nil {
			return fmt.Errorf("add %s to library: %w", r.ID, err)
		}
	}
	return nil
}

func (s *RecipeStore) upsert(ctx context.Context, r *models.Recipe) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, other := KeyRecipes, KeyRecipeStubs
	if r.IsStub {
		target, other = KeyRecipeStubs, KeyRecipes
	}

	rs, err := s.list(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := s.write(ctx, target, upsertRecipe(rs, *r)); err != nil {
		return nil, err
	}
	touched := []string{target}

	others, err := s.list(ctx, other)
	if err != nil {
		return touched, nil
	}
	if trimmed, removed := removeRecipe(others, r.ID); removed {
		if err := s.write(ctx, other, trimmed); err != nil {
			return touched, err
		}
		touched = append(touched, other)
	}
	return touched, nil
}

// Delete removes a recipe from both keys
func (s *RecipeStore) Delete(ctx context.Context, id string) error {
	touched, err := s.delete(ctx, id)
	for _, key := range touched {
		s.notify(key, events.RecipesUpdated)
	}
	if err != nil {
		return err
	}
	if len(touched) == 0 {
		return fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *RecipeStore) delete(ctx context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var touched []string
	for _, key := range []string{KeyRecipes, KeyRecipeStubs} {
		rs, err := s.list(ctx, key)
		if err != nil {
			return touched, err
		}
		trimmed, removed := removeRecipe(rs, id)
		if !removed {
			continue
		}
		if err := s.write(ctx, key, trimmed); err != nil {
			return touched, err
		}
		touched = append(touched, key)
	}
	return touched, nil
}

func upsertRecipe(rs []models.Recipe, r models.Recipe) []models.Recipe {
	for i := range rs {
		if rs[i].ID == r.ID {
			rs[i] = r
			return rs
		}
	}
	return append(rs, r)
}

func removeRecipe(rs []models.Recipe, id string) ([]models.Recipe, bool) {
	for i := range rs {
		if rs[i].ID == id {
			return append(rs[:i], rs[i+1:]...), true
		}
	}
	return rs, false
}
