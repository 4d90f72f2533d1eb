package store

import (
	"context"
	"fmt"
	"sync"

	"menuops/internal/models"
)

// VendorStore reads the vendor directory
type VendorStore struct {
	backend
}

// All returns every vendor
func (s *VendorStore) All(ctx context.Context) ([]models.Vendor, error) {
	var vendors []models.Vendor
	if _, err := s.load(ctx, KeyVendors, &vendors); err != nil {
		return nil, err
	}
	return vendors, nil
}

// Names maps vendor id to display name
func (s *VendorStore) Names(ctx context.Context) (map[string]string, error) {
	vendors, err := s.All(ctx)
	names := make(map[string]string, len(vendors))
	for _, v := range vendors {
		names[v.ID] = v.Name
	}
	return names, err
}

// Save replaces the vendor directory
func (s *VendorStore) Save(ctx context.Context, vendors []models.Vendor) error {
	for _, v := range vendors {
		if v.ID == "" {
			return fmt.Errorf("vendor id is required")
		}
	}
	return s.save(ctx, KeyVendors, vendors)
}

// VendorConnectionStore holds vendor quotes per ingredient. Several quotes may
// exist per ingredient; duplicates already in storage are kept as found.
type VendorConnectionStore struct {
	backend
	mu sync.Mutex
}

// All returns every connection in stored order
func (s *VendorConnectionStore) All(ctx context.Context) ([]models.VendorIngredientConnection, error) {
	var conns []models.VendorIngredientConnection
	if _, err := s.load(ctx, KeyConnections, &conns); err != nil {
		return nil, err
	}
	return conns, nil
}

// ForIngredient returns the connections of one ingredient in stored order
func (s *VendorConnectionStore) ForIngredient(ctx context.Context, ingredientID string) ([]models.VendorIngredientConnection, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.VendorIngredientConnection
	for _, c := range all {
		if c.IngredientID == ingredientID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Upsert replaces the first connection with the same ingredient and vendor,
// or appends. It returns the previous connection when one was replaced.
func (s *VendorConnectionStore) Upsert(ctx context.Context, c models.VendorIngredientConnection) (*models.VendorIngredientConnection, error) {
	if err := models.ValidateConnection(&c); err != nil {
		return nil, err
	}
	prev, err := s.upsert(ctx, c)
	if err != nil {
		return nil, err
	}
	s.notify(KeyConnections)
	return prev, nil
}

func (s *VendorConnectionStore) upsert(ctx context.Context, c models.VendorIngredientConnection) (*models.VendorIngredientConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var prev *models.VendorIngredientConnection
	replaced := false
	for i := range all {
		if all[i].IngredientID == c.IngredientID && all[i].VendorID == c.VendorID {
			old := all[i]
			prev = &old
			all[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, c)
	}
	return prev, s.write(ctx, KeyConnections, all)
}

// ReplaceAll overwrites every connection
func (s *VendorConnectionStore) ReplaceAll(ctx context.Context, conns []models.VendorIngredientConnection) error {
	for i := range conns {
		if err := models.ValidateConnection(&conns[i]); err != nil {
			return err
		}
	}
	s.mu.Lock()
	err := s.write(ctx, KeyConnections, conns)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(KeyConnections)
	return nil
}
