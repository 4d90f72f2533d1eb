package models

import "time"

// MenuRecipeLink binds a menu item to its single active recipe
type MenuRecipeLink struct {
	RecipeID string    `json:"recipeId"`
	LinkedAt time.Time `json:"linkedAt"`
}

// LinkTable is the record stored under menu_recipe_links, keyed by menu item id
type LinkTable map[string]MenuRecipeLink

// RecipeStatus classifies how far a menu item's recipe has been developed
type RecipeStatus string

const (
	RecipeStatusNoRecipe RecipeStatus = "no-recipe"
	RecipeStatusStub     RecipeStatus = "stub"
	RecipeStatusDraft    RecipeStatus = "draft"
	RecipeStatusComplete RecipeStatus = "complete"
	RecipeStatusCosted   RecipeStatus = "costed"
)

// RecipeStatusInfo is the display form of a RecipeStatus
type RecipeStatusInfo struct {
	Status RecipeStatus `json:"status"`
	Label  string       `json:"label"`
	Icon   string       `json:"icon"`
	Action string       `json:"action"`
}

// MenuItemCost is the costing breakdown for one menu item
type MenuItemCost struct {
	MenuItemID      string  `json:"menuItemId"`
	RecipeID        string  `json:"recipeId,omitempty"`
	IngredientCost  float64 `json:"ingredientCost"`
	LaborCost       float64 `json:"laborCost"`
	TotalCost       float64 `json:"totalCost"`
	FoodCostPercent float64 `json:"foodCostPercent,omitempty"`
}
