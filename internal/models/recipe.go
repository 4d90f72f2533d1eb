package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Amount is an ingredient quantity as authored. Records carry either a
// string such as "1 1/2" or a bare JSON number.
type Amount string

// UnmarshalJSON accepts a JSON string, number or null
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(n.String())
	return nil
}

// Ingredient is a single recipe line
type Ingredient struct {
	IngredientID string   `json:"ingredientId,omitempty"`
	Name         string   `json:"name"`
	Amount       Amount   `json:"amount"`
	Unit         string   `json:"unit"`
	Notes        string   `json:"notes,omitempty"`
	Cost         *float64 `json:"cost,omitempty"`
}

// Recipe represents a recipe record, either authored or a generated stub
type Recipe struct {
	ID            string       `json:"id"`
	Title         string       `json:"title,omitempty"`
	Name          string       `json:"name,omitempty"`
	Description   string       `json:"description,omitempty"`
	Cuisine       string       `json:"cuisine,omitempty"`
	Category      string       `json:"category,omitempty"`
	Ingredients   []Ingredient `json:"ingredients"`
	Instructions  []string     `json:"instructions"`
	Servings      int          `json:"servings,omitempty"`
	Station       string       `json:"station,omitempty"`
	Components    []string     `json:"components"`
	Status        string       `json:"status,omitempty"`
	PrepTime      float64      `json:"prepTime,omitempty"` // minutes
	CookTime      float64      `json:"cookTime,omitempty"` // minutes
	LeadTimeHours float64      `json:"leadTimeHours,omitempty"`
	TargetCost    *float64     `json:"targetCost,omitempty"`
	MenuItemID    string       `json:"menuItemId,omitempty"`
	IsStub        bool         `json:"isStub,omitempty"`
	CreatedAt     time.Time    `json:"createdAt,omitempty"`
	UpdatedAt     time.Time    `json:"updatedAt,omitempty"`
}

// RecipeStatusNeedsDevelopment marks a generated stub
const RecipeStatusNeedsDevelopment = "needs-development"

// ValidateRecipe validates a recipe before it is persisted
func ValidateRecipe(r *Recipe) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("recipe id is required")
	}
	if r.DisplayTitle() == "" {
		return fmt.Errorf("recipe %s: title is required", r.ID)
	}
	if r.Servings < 0 {
		return fmt.Errorf("recipe %s: servings must not be negative", r.ID)
	}
	if r.PrepTime < 0 || r.CookTime < 0 {
		return fmt.Errorf("recipe %s: times must not be negative", r.ID)
	}
	return nil
}

// DisplayTitle returns the title, falling back to the name field
func (r *Recipe) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// HasIngredients reports whether any ingredient lines exist
func (r *Recipe) HasIngredients() bool {
	return len(r.Ingredients) > 0
}

// HasInstructions reports whether any instruction lines exist
func (r *Recipe) HasInstructions() bool {
	return len(r.Instructions) > 0
}

// AllIngredientsCosted reports whether every ingredient carries a cost.
// A recipe without ingredients is never costed.
func (r *Recipe) AllIngredientsCosted() bool {
	if len(r.Ingredients) == 0 {
		return false
	}
	for _, ing := range r.Ingredients {
		if ing.Cost == nil {
			return false
		}
	}
	return true
}

// TotalMinutes returns prep plus cook time
func (r *Recipe) TotalMinutes() float64 {
	return r.PrepTime + r.CookTime
}
