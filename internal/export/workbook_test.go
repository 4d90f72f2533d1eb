package export

import (
	"bytes"
	"testing"

	"menuops/internal/models"
	"menuops/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func qty(v float64) *float64 { return &v }

func testPlan() *models.PrepPlan {
	return &models.PrepPlan{
		Stations: map[string]*models.StationPlan{
			"Soup": {Station: "Soup", Tasks: []models.PrepTask{{
				ItemName:    "Soup",
				RecipeTitle: "Carrot Soup",
				Covers:      20,
				ScaleFactor: 5,
				Priority:    3,
				Ingredients: []models.ScaledIngredient{
					{Name: "Carrot", Quantity: qty(10), Unit: "lb"},
					{Name: "Salt", Raw: "to taste"},
				},
			}}},
		},
		Shopping: []models.ShoppingItem{{Name: "Carrot", Quantity: 10, Unit: "lb", UsedBy: []string{"Soup"}}},
		Warnings: []models.Warning{{Type: models.WarningUnparseableQuantity, Name: "Salt", Message: "could not read amount"}},
	}
}

func TestWriteWorkbook(t *testing.T) {
	cmp := pricing.Compare("carrot", []models.VendorIngredientConnection{
		{IngredientID: "carrot", VendorID: "v1", Price: 2, Unit: "lb"},
		{IngredientID: "carrot", VendorID: "v2", Price: 1, Unit: "lb"},
	}, map[string]string{"v2": "Local Farm"})

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, testPlan(), []pricing.Comparison{cmp}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetShopping, SheetTasks, SheetVendors, SheetWarnings}, f.GetSheetList())

	shopping, err := f.GetRows(SheetShopping)
	require.NoError(t, err)
	require.Len(t, shopping, 2)
	assert.Equal(t, []string{"Carrot", "10", "lb", "Soup"}, shopping[1])

	tasks, err := f.GetRows(SheetTasks)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "to taste", tasks[2][7])

	vendors, err := f.GetRows(SheetVendors)
	require.NoError(t, err)
	require.Len(t, vendors, 3)
	assert.Equal(t, "Local Farm", vendors[1][1])
	assert.Equal(t, "yes", vendors[1][5])
	assert.Equal(t, "v1", vendors[2][1])

	warnings, err := f.GetRows(SheetWarnings)
	require.NoError(t, err)
	assert.Len(t, warnings, 2)
}
