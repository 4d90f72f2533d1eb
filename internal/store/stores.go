package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"menuops/internal/events"
)

// Storage keys shared with every other consumer of the flat store
const (
	KeyMenuDataPrefix = "menu_data_"
	KeyLinks          = "menu_recipe_links"
	KeyRecipeStubs    = "recipe_stubs"
	KeyRecipes        = "recipes"
	KeyConnections    = "vendor_ingredient_connections"
	KeyPriceHistory   = "vendor_price_history"
	KeyVendors        = "iterum_vendors"
	KeyCurrentProject = "current_project_id"
)

// DefaultProjectID is used when no project has been selected
const DefaultProjectID = "default"

// MenuKey returns the storage key of a project's menu
func MenuKey(projectID string) string {
	return KeyMenuDataPrefix + projectID
}

// Stores bundles the typed repositories over one KV
type Stores struct {
	KV          KV
	Menus       *MenuStore
	Projects    *ProjectStore
	Recipes     *RecipeStore
	Links       *LinkStore
	Vendors     *VendorStore
	Connections *VendorConnectionStore
	History     *PriceHistoryStore
}

// New builds every repository over kv. bus may be nil.
func New(kv KV, bus *events.Bus) *Stores {
	b := backend{kv: kv, bus: bus}
	return &Stores{
		KV:          kv,
		Menus:       &MenuStore{backend: b},
		Projects:    &ProjectStore{backend: b},
		Recipes:     &RecipeStore{backend: b},
		Links:       &LinkStore{backend: b},
		Vendors:     &VendorStore{backend: b},
		Connections: &VendorConnectionStore{backend: b},
		History:     &PriceHistoryStore{backend: b},
	}
}

// backend holds the JSON codec and change notification shared by repositories
type backend struct {
	kv  KV
	bus *events.Bus
}

// load decodes key into v. A missing key leaves v untouched and reports false.
func (b backend) load(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := b.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 || string(data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%s: %w: %v", key, ErrMalformed, err)
	}
	return true, nil
}

// write encodes v under key. Callers publish with notify once they have
// released their own locks, since subscribers read the stores synchronously.
func (b backend) write(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.kv.Set(ctx, key, data)
}

// save writes and notifies in one step, for callers holding no lock
func (b backend) save(ctx context.Context, key string, v interface{}, extra ...events.Type) error {
	if err := b.write(ctx, key, v); err != nil {
		return err
	}
	b.notify(key, extra...)
	return nil
}

// notify publishes a storage event for key followed by any extra types
func (b backend) notify(key string, extra ...events.Type) {
	if b.bus == nil {
		return
	}
	b.bus.Publish(events.Event{Type: events.Storage, Key: key})
	for _, t := range extra {
		b.bus.Publish(events.Event{Type: t, Key: key})
	}
}
