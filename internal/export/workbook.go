// Package export writes prep plans and vendor comparisons as xlsx workbooks
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"menuops/internal/models"
	"menuops/internal/pricing"

	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	SheetShopping = "Shopping"
	SheetTasks    = "Prep Tasks"
	SheetVendors  = "Vendors"
	SheetWarnings = "Warnings"
)

// BuildWorkbook lays the plan out over one sheet per concern. comparisons may
// be empty, in which case the vendor sheet only carries its header.
func BuildWorkbook(plan *models.PrepPlan, comparisons []pricing.Comparison) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetShopping); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetTasks, SheetVendors, SheetWarnings} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	writers := []struct {
		sheet string
		rows  [][]interface{}
	}{
		{SheetShopping, shoppingRows(plan)},
		{SheetTasks, taskRows(plan)},
		{SheetVendors, vendorRows(comparisons)},
		{SheetWarnings, warningRows(plan)},
	}
	for _, w := range writers {
		if err := writeRows(f, w.sheet, w.rows); err != nil {
			f.Close()
			return nil, fmt.Errorf("write %s sheet: %w", w.sheet, err)
		}
	}
	return f, nil
}

// WriteWorkbook builds the workbook and writes it to w
func WriteWorkbook(w io.Writer, plan *models.PrepPlan, comparisons []pricing.Comparison) error {
	f, err := BuildWorkbook(plan, comparisons)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func shoppingRows(plan *models.PrepPlan) [][]interface{} {
	rows := [][]interface{}{{"Ingredient", "Quantity", "Unit", "Used by"}}
	for _, s := range plan.Shopping {
		rows = append(rows, []interface{}{s.Name, s.Quantity, s.Unit, strings.Join(s.UsedBy, ", ")})
	}
	return rows
}

func taskRows(plan *models.PrepPlan) [][]interface{} {
	rows := [][]interface{}{{"Station", "Priority", "Item", "Recipe", "Covers", "Scale", "Ingredient", "Quantity", "Unit"}}
	stations := make([]string, 0, len(plan.Stations))
	for name := range plan.Stations {
		stations = append(stations, name)
	}
	sort.Strings(stations)

	for _, name := range stations {
		for _, task := range plan.Stations[name].Tasks {
			if len(task.Ingredients) == 0 {
				rows = append(rows, []interface{}{name, task.Priority, task.ItemName, task.RecipeTitle, task.Covers, task.ScaleFactor, "", "", ""})
				continue
			}
			for _, ing := range task.Ingredients {
				var qty interface{} = ing.Raw
				if ing.Quantity != nil {
					qty = *ing.Quantity
				}
				rows = append(rows, []interface{}{name, task.Priority, task.ItemName, task.RecipeTitle, task.Covers, task.ScaleFactor, ing.Name, qty, ing.Unit})
			}
		}
	}
	return rows
}

func vendorRows(comparisons []pricing.Comparison) [][]interface{} {
	rows := [][]interface{}{{"Ingredient", "Vendor", "Price", "Unit", "Price per lb", "Best", "Savings %"}}
	for _, cmp := range comparisons {
		for _, q := range cmp.Vendors {
			vendor := q.VendorName
			if vendor == "" {
				vendor = q.VendorID
			}
			best := ""
			if cmp.BestVendor != nil && cmp.BestVendor.VendorID == q.VendorID {
				best = "yes"
			}
			rows = append(rows, []interface{}{cmp.IngredientID, vendor, q.Price, q.Unit, q.PricePerLb, best, cmp.SavingsPercent})
		}
	}
	return rows
}

func warningRows(plan *models.PrepPlan) [][]interface{} {
	rows := [][]interface{}{{"Type", "Item", "Message"}}
	for _, w := range plan.Warnings {
		rows = append(rows, []interface{}{w.Type, w.Name, w.Message})
	}
	return rows
}
