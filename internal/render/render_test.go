package render

import (
	"testing"

	"menuops/internal/dashboard"
	"menuops/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDashboard(t *testing.T) {
	out := Dashboard(dashboard.Snapshot{
		MenuName:     "Autumn",
		Completeness: 50,
		ItemCount:    2,
		LinkedCount:  1,
		Checklist: []dashboard.Check{
			{Label: "Menu has items", Passed: true},
			{Label: "Every item links to a recipe", Detail: "1 item needs a recipe"},
		},
		Warnings: []models.Warning{{Type: models.WarningMissingRecipe, Message: "Tart has no linked recipe"}},
	})
	assert.Contains(t, out, "Autumn")
	assert.Contains(t, out, "50% complete")
	assert.Contains(t, out, "✓ Menu has items")
	assert.Contains(t, out, "1 item needs a recipe")
	assert.Contains(t, out, "Tart has no linked recipe")
}

func TestDashboardError(t *testing.T) {
	out := Dashboard(dashboard.Snapshot{Error: "disk unavailable"})
	assert.Contains(t, out, "Refresh failed: disk unavailable")
	assert.NotContains(t, out, "complete")
}

func TestPrepPlanAndBriefing(t *testing.T) {
	q := 10.0
	plan := &models.PrepPlan{
		Stations: map[string]*models.StationPlan{
			"Soup": {Station: "Soup", Tasks: []models.PrepTask{{
				ItemName: "Soup", ScaleFactor: 5, Covers: 20, Priority: 3,
				Ingredients: []models.ScaledIngredient{{Name: "Carrot", Quantity: &q, Unit: "lb"}, {Name: "Salt", Raw: "to taste"}},
			}}},
		},
		Shopping: []models.ShoppingItem{{Name: "Carrot", Quantity: 10, Unit: "lb"}},
	}
	out := PrepPlan(plan)
	assert.Contains(t, out, "[P3] Soup")
	assert.Contains(t, out, "Carrot 10 lb")
	assert.Contains(t, out, "to taste")
	assert.Contains(t, out, "10.00 lb")

	sheet := Briefing(&models.FOHBriefing{
		Dishes: []models.DishBriefing{{
			Name: "Carrot Soup", IsSignature: true,
			TalkingPoints: []string{"Roasted carrots"},
			Allergens:     []string{"dairy"},
		}},
		AllergenSummary: []models.TagCount{{Tag: "Dairy", Count: 1}},
	})
	assert.Contains(t, sheet, "Carrot Soup ★")
	assert.Contains(t, sheet, "• Roasted carrots")
	assert.Contains(t, sheet, "Dairy: 1")
}
