package models

import "time"

// PrepPlan is the derived prep report for one service. It is regenerated on
// every request and never persisted.
type PrepPlan struct {
	MenuID      string                  `json:"menuId,omitempty"`
	MenuName    string                  `json:"menuName,omitempty"`
	ServiceDate time.Time               `json:"serviceDate,omitempty"`
	GeneratedAt time.Time               `json:"generatedAt"`
	Stations    map[string]*StationPlan `json:"stations"`
	Shopping    []ShoppingItem          `json:"shopping"`
	Items       []PlannedItem           `json:"items"`
	Warnings    []Warning               `json:"warnings"`
	Summary     PrepSummary             `json:"summary"`
}

// StationPlan groups the tasks of one kitchen station
type StationPlan struct {
	Station string     `json:"station"`
	Tasks   []PrepTask `json:"tasks"`
}

// PrepTask represents the preparation of one menu item at its station
type PrepTask struct {
	ItemID        string             `json:"itemId"`
	ItemName      string             `json:"itemName"`
	RecipeID      string             `json:"recipeId"`
	RecipeTitle   string             `json:"recipeTitle"`
	Covers        int                `json:"covers"`
	ScaleFactor   float64            `json:"scaleFactor"`
	Ingredients   []ScaledIngredient `json:"ingredients"`
	Components    []string           `json:"components,omitempty"`
	LeadTimeHours float64            `json:"leadTimeHours"`
	Priority      int                `json:"priority"`
}

// ScaledIngredient is a recipe line multiplied by the task's scale factor.
// Quantity is nil when the authored amount could not be parsed.
type ScaledIngredient struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     string   `json:"unit"`
	Raw      string   `json:"raw,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// ShoppingItem is one consolidated purchasing line
type ShoppingItem struct {
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit"`
	UsedBy   []string `json:"usedBy,omitempty"`
}

// PlannedItem summarises how a menu item fared during planning
type PlannedItem struct {
	ItemID       string       `json:"itemId"`
	Name         string       `json:"name"`
	Station      string       `json:"station"`
	RecipeID     string       `json:"recipeId,omitempty"`
	RecipeStatus RecipeStatus `json:"recipeStatus"`
	Covers       int          `json:"covers"`
}

// PrepSummary carries the headline numbers of a plan
type PrepSummary struct {
	TotalItems    int `json:"totalItems"`
	LinkedItems   int `json:"linkedItems"`
	TotalCovers   int `json:"totalCovers"`
	StationCount  int `json:"stationCount"`
	ShoppingLines int `json:"shoppingLines"`
}

// TaskCount returns the number of tasks across all stations
func (p *PrepPlan) TaskCount() int {
	n := 0
	for _, s := range p.Stations {
		n += len(s.Tasks)
	}
	return n
}

// HasWarningType reports whether any warning of the given type exists
func HasWarningType(warnings []Warning, kind string) bool {
	for _, w := range warnings {
		if w.Type == kind {
			return true
		}
	}
	return false
}
