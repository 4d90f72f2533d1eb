package linker

import "menuops/internal/models"

var statusInfo = map[models.RecipeStatus]models.RecipeStatusInfo{
	models.RecipeStatusNoRecipe: {Status: models.RecipeStatusNoRecipe, Label: "No Recipe", Icon: "❌", Action: "Create Recipe"},
	models.RecipeStatusStub:     {Status: models.RecipeStatusStub, Label: "Needs Development", Icon: "📝", Action: "Develop Recipe"},
	models.RecipeStatusDraft:    {Status: models.RecipeStatusDraft, Label: "Draft", Icon: "✏️", Action: "Complete Recipe"},
	models.RecipeStatusComplete: {Status: models.RecipeStatusComplete, Label: "Complete", Icon: "✅", Action: "Add Costing"},
	models.RecipeStatusCosted:   {Status: models.RecipeStatusCosted, Label: "Costed", Icon: "💰", Action: "View Recipe"},
}

// StatusOf classifies a recipe by presence checks only. An instruction list
// holding an empty string still counts as present.
func StatusOf(r *models.Recipe) models.RecipeStatusInfo {
	switch {
	case r == nil:
		return statusInfo[models.RecipeStatusNoRecipe]
	case r.HasIngredients() && r.HasInstructions() && r.AllIngredientsCosted():
		return statusInfo[models.RecipeStatusCosted]
	case r.HasIngredients() && r.HasInstructions():
		return statusInfo[models.RecipeStatusComplete]
	case r.HasIngredients() || r.HasInstructions():
		return statusInfo[models.RecipeStatusDraft]
	default:
		return statusInfo[models.RecipeStatusStub]
	}
}

// Resolve finds an item's recipe from already loaded tables. The link table
// is authoritative; the item's own recipeId is only a fallback.
func Resolve(item models.MenuItem, links models.LinkTable, recipes map[string]*models.Recipe) *models.Recipe {
	if link, ok := links[item.ID]; ok && link.RecipeID != "" {
		if r, ok := recipes[link.RecipeID]; ok {
			return r
		}
	}
	if item.RecipeID != "" {
		if r, ok := recipes[item.RecipeID]; ok {
			return r
		}
	}
	return nil
}

// Index maps recipes by id, keeping the first occurrence
func Index(recipes []models.Recipe) map[string]*models.Recipe {
	idx := make(map[string]*models.Recipe, len(recipes))
	for i := range recipes {
		if _, dup := idx[recipes[i].ID]; dup {
			continue
		}
		idx[recipes[i].ID] = &recipes[i]
	}
	return idx
}
