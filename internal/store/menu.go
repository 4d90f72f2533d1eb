package store

import (
	"context"
	"fmt"
	"sync"

	"menuops/internal/events"
	"menuops/internal/models"
)

// MenuStore reads and writes menu_data_<projectId> records
type MenuStore struct {
	backend
	mu sync.Mutex
}

// Get returns the project's menu. A project without a menu yields an empty
// MenuData rather than an error.
func (s *MenuStore) Get(ctx context.Context, projectID string) (*models.MenuData, error) {
	data := &models.MenuData{}
	if _, err := s.load(ctx, MenuKey(projectID), data); err != nil {
		return &models.MenuData{Items: []models.MenuItem{}}, err
	}
	if data.Items == nil {
		data.Items = []models.MenuItem{}
	}
	return data, nil
}

// Save validates and replaces the project's menu
func (s *MenuStore) Save(ctx context.Context, projectID string, data *models.MenuData) error {
	if err := models.ValidateMenuData(data); err != nil {
		return fmt.Errorf("save menu %s: %w", projectID, err)
	}
	s.mu.Lock()
	err := s.write(ctx, MenuKey(projectID), data)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(MenuKey(projectID), events.MenuWorkflowUpdated)
	return nil
}

// RemoveItem drops one item from the project's menu
func (s *MenuStore) RemoveItem(ctx context.Context, projectID, itemID string) error {
	if err := s.removeItem(ctx, projectID, itemID); err != nil {
		return err
	}
	s.notify(MenuKey(projectID), events.MenuWorkflowUpdated)
	return nil
}

func (s *MenuStore) removeItem(ctx context.Context, projectID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := &models.MenuData{}
	if _, err := s.load(ctx, MenuKey(projectID), data); err != nil {
		return err
	}
	if !data.RemoveItem(itemID) {
		return fmt.Errorf("menu item %s: %w", itemID, ErrNotFound)
	}
	return s.write(ctx, MenuKey(projectID), data)
}

// ProjectStore tracks the active project
type ProjectStore struct {
	backend
}

// Current returns the active project id, DefaultProjectID when unset
func (s *ProjectStore) Current(ctx context.Context) (string, error) {
	var id string
	found, err := s.load(ctx, KeyCurrentProject, &id)
	if err != nil {
		return DefaultProjectID, err
	}
	if !found || id == "" {
		return DefaultProjectID, nil
	}
	return id, nil
}

// SetCurrent switches the active project
func (s *ProjectStore) SetCurrent(ctx context.Context, projectID string) error {
	if projectID == "" {
		return fmt.Errorf("project id is required")
	}
	return s.save(ctx, KeyCurrentProject, projectID, events.ProjectChanged)
}
