package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"menuops/internal/units"
)

// looseNumber decodes a numeric field written either as a JSON number or as
// a string such as "12.99". Strings that do not parse read as absent.
type looseNumber struct {
	value   float64
	present bool
	ok      bool
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch v.(type) {
	case nil, string, json.Number:
	default:
		return fmt.Errorf("expected a number, got %s", data)
	}
	n.present = true
	n.value, n.ok = units.ParseAny(v)
	return nil
}

func (n looseNumber) setFloat(dst *float64) {
	if n.present {
		*dst = n.value
	}
}

func (n looseNumber) setInt(dst *int) {
	if n.present {
		*dst = int(math.Round(n.value))
	}
}

func (n looseNumber) setPtr(dst **float64) {
	if !n.present {
		return
	}
	if !n.ok {
		*dst = nil
		return
	}
	v := n.value
	*dst = &v
}

// UnmarshalJSON accepts price and covers as numbers or numeric strings
func (mi *MenuItem) UnmarshalJSON(data []byte) error {
	type plain MenuItem
	aux := struct {
		*plain
		Price           looseNumber `json:"price"`
		ProjectedCovers looseNumber `json:"projectedCovers"`
	}{plain: (*plain)(mi)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	aux.Price.setFloat(&mi.Price)
	aux.ProjectedCovers.setInt(&mi.ProjectedCovers)
	return nil
}

// UnmarshalJSON accepts servings, times and target cost as numbers or
// numeric strings
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type plain Recipe
	aux := struct {
		*plain
		Servings      looseNumber `json:"servings"`
		PrepTime      looseNumber `json:"prepTime"`
		CookTime      looseNumber `json:"cookTime"`
		LeadTimeHours looseNumber `json:"leadTimeHours"`
		TargetCost    looseNumber `json:"targetCost"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	aux.Servings.setInt(&r.Servings)
	aux.PrepTime.setFloat(&r.PrepTime)
	aux.CookTime.setFloat(&r.CookTime)
	aux.LeadTimeHours.setFloat(&r.LeadTimeHours)
	aux.TargetCost.setPtr(&r.TargetCost)
	return nil
}

// UnmarshalJSON accepts the cost as a number or a numeric string
func (ing *Ingredient) UnmarshalJSON(data []byte) error {
	type plain Ingredient
	aux := struct {
		*plain
		Cost looseNumber `json:"cost"`
	}{plain: (*plain)(ing)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	aux.Cost.setPtr(&ing.Cost)
	return nil
}

// UnmarshalJSON accepts price and minimum order as numbers or numeric strings
func (c *VendorIngredientConnection) UnmarshalJSON(data []byte) error {
	type plain VendorIngredientConnection
	aux := struct {
		*plain
		Price    looseNumber `json:"price"`
		MinOrder looseNumber `json:"minOrder"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	aux.Price.setFloat(&c.Price)
	aux.MinOrder.setFloat(&c.MinOrder)
	return nil
}
