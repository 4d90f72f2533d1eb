package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuItemAcceptsNumericStrings(t *testing.T) {
	var data MenuData
	raw := `{"items":[
		{"id":"i1","name":"Soup","price":12,"projectedCovers":20},
		{"id":"i2","name":"Tart","price":"12.99","projectedCovers":"8","allergens":["gluten"]},
		{"id":"i3","name":"Salad","price":"","projectedCovers":null}
	]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	require.Len(t, data.Items, 3)

	assert.Equal(t, 12.0, data.Items[0].Price)
	assert.Equal(t, 20, data.Items[0].ProjectedCovers)
	assert.Equal(t, 12.99, data.Items[1].Price)
	assert.Equal(t, 8, data.Items[1].ProjectedCovers)
	assert.Equal(t, []string{"gluten"}, data.Items[1].Allergens)
	assert.Zero(t, data.Items[2].Price)
	assert.Zero(t, data.Items[2].ProjectedCovers)
}

func TestRecipeAcceptsNumericStrings(t *testing.T) {
	var r Recipe
	raw := `{"id":"r1","title":"Soup","servings":"4","prepTime":"30","cookTime":15,
		"targetCost":"3.60","ingredients":[
			{"name":"Carrot","amount":2,"unit":"lb","cost":"1.50"},
			{"name":"Salt","amount":"1 1/2","unit":"tsp","cost":""}
		]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &r))

	assert.Equal(t, 4, r.Servings)
	assert.Equal(t, 30.0, r.PrepTime)
	assert.Equal(t, 15.0, r.CookTime)
	require.NotNil(t, r.TargetCost)
	assert.Equal(t, 3.6, *r.TargetCost)
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, Amount("2"), r.Ingredients[0].Amount)
	require.NotNil(t, r.Ingredients[0].Cost)
	assert.Equal(t, 1.5, *r.Ingredients[0].Cost)
	assert.Nil(t, r.Ingredients[1].Cost)
	assert.Equal(t, Amount("1 1/2"), r.Ingredients[1].Amount)
}

func TestConnectionAcceptsNumericStrings(t *testing.T) {
	var c VendorIngredientConnection
	require.NoError(t, json.Unmarshal([]byte(`{"ingredientId":"carrot","vendorId":"v1","price":"2.25","unit":"lb","minOrder":"10"}`), &c))
	assert.Equal(t, 2.25, c.Price)
	assert.Equal(t, 10.0, c.MinOrder)
	assert.Equal(t, "lb", c.Unit)
}

func TestNumericFieldsRejectOtherTypes(t *testing.T) {
	var item MenuItem
	assert.Error(t, json.Unmarshal([]byte(`{"id":"i1","name":"Soup","price":true}`), &item))
	assert.Error(t, json.Unmarshal([]byte(`{"id":"i1","name":"Soup","projectedCovers":{"n":1}}`), &item))
}

func TestMarshalKeepsNumbers(t *testing.T) {
	data, err := json.Marshal(MenuItem{ID: "i1", Name: "Soup", Price: 9.5})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":9.5`)
}
