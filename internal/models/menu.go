package models

import (
	"fmt"
	"strings"
)

// MenuItem represents a dish on the menu, independent of its recipe
type MenuItem struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Category        string   `json:"category,omitempty"`
	Price           float64  `json:"price,omitempty"`
	ProjectedCovers int      `json:"projectedCovers,omitempty"`
	PrepStation     string   `json:"prepStation,omitempty"`
	Allergens       []string `json:"allergens,omitempty"`
	DietaryInfo     []string `json:"dietaryInfo,omitempty"`
	RecipeID        string   `json:"recipeId,omitempty"`
	IsSignature     bool     `json:"isSignature,omitempty"`
	IsNew           bool     `json:"isNew,omitempty"`
	Story           string   `json:"story,omitempty"`
	Highlights      []string `json:"highlights,omitempty"`
}

// Menu holds the header of a project's menu
type Menu struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	ServiceDate string `json:"serviceDate,omitempty"`
	Concept     string `json:"concept,omitempty"`
}

// MenuData is the record stored under menu_data_<projectId>
type MenuData struct {
	Menu  Menu       `json:"menu"`
	Items []MenuItem `json:"items"`
}

// MenuCategory represents the category of a menu item
type MenuCategory string

const (
	MenuCategoryAppetizer MenuCategory = "appetizer"
	MenuCategoryEntree    MenuCategory = "entree"
	MenuCategorySide      MenuCategory = "side"
	MenuCategoryDessert   MenuCategory = "dessert"
	MenuCategoryBeverage  MenuCategory = "beverage"
)

// ValidateMenuItem validates a menu item
func ValidateMenuItem(item *MenuItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("menu item id is required")
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("menu item %s: name is required", item.ID)
	}
	if item.Price < 0 {
		return fmt.Errorf("menu item %s: price must not be negative", item.ID)
	}
	if item.ProjectedCovers < 0 {
		return fmt.Errorf("menu item %s: projected covers must not be negative", item.ID)
	}
	return nil
}

// ValidateMenuData validates every item and rejects duplicate ids
func ValidateMenuData(data *MenuData) error {
	seen := make(map[string]bool, len(data.Items))
	for i := range data.Items {
		if err := ValidateMenuItem(&data.Items[i]); err != nil {
			return err
		}
		if seen[data.Items[i].ID] {
			return fmt.Errorf("menu item %s: duplicate id", data.Items[i].ID)
		}
		seen[data.Items[i].ID] = true
	}
	return nil
}

// FindItem returns the item with the given id
func (d *MenuData) FindItem(id string) (*MenuItem, bool) {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return &d.Items[i], true
		}
	}
	return nil, false
}

// RemoveItem drops the item with the given id and reports whether it existed
func (d *MenuData) RemoveItem(id string) bool {
	for i := range d.Items {
		if d.Items[i].ID == id {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return true
		}
	}
	return false
}

// DisplayName returns the item name, falling back to its id
func (mi *MenuItem) DisplayName() string {
	if mi.Name != "" {
		return mi.Name
	}
	return mi.ID
}

// HasAllergen checks if the item lists a specific allergen
func (mi *MenuItem) HasAllergen(allergen string) bool {
	for _, alg := range mi.Allergens {
		if strings.EqualFold(alg, allergen) {
			return true
		}
	}
	return false
}
