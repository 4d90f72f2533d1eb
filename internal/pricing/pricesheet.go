package pricing

import (
	"context"
	"fmt"
	"io"
	"strings"

	"menuops/internal/models"
	"menuops/internal/units"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
)

// SheetResult reports what an import did
type SheetResult struct {
	VendorID string                              `json:"vendorId"`
	Imported []models.VendorIngredientConnection `json:"imported"`
	Skipped  []string                            `json:"skipped"`
}

type sheetColumns struct {
	id, name, price, unit, brand, code int
}

func detectColumns(headers []string) (sheetColumns, error) {
	cols := sheetColumns{id: -1, name: -1, price: -1, unit: -1, brand: -1, code: -1}
	folder := cases.Fold()
	for i, h := range headers {
		switch strings.Join(strings.Fields(folder.String(h)), " ") {
		case "ingredient id", "id":
			cols.id = i
		case "ingredient", "item", "name", "product":
			cols.name = i
		case "price", "cost", "unit price":
			cols.price = i
		case "unit", "uom", "pack":
			cols.unit = i
		case "brand":
			cols.brand = i
		case "code", "sku", "product code", "item #":
			cols.code = i
		}
	}
	if cols.id < 0 && cols.name < 0 {
		return cols, fmt.Errorf("price sheet has no ingredient column")
	}
	if cols.price < 0 {
		return cols, fmt.Errorf("price sheet has no price column")
	}
	return cols, nil
}

// IngredientKey turns a display name into an ingredient id
func IngredientKey(name string) string {
	return strings.Join(strings.Fields(cases.Fold().String(name)), "-")
}

func cleanText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// ParsePriceSheet reads the first table of a vendor's HTML price list. The
// header row names the columns; rows with no ingredient or no parseable
// price are skipped and listed by their raw text.
func ParsePriceSheet(r io.Reader, vendorID string) (SheetResult, error) {
	res := SheetResult{VendorID: vendorID, Imported: []models.VendorIngredientConnection{}, Skipped: []string{}}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return res, fmt.Errorf("read price sheet: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return res, fmt.Errorf("price sheet has no table")
	}

	var headers []string
	table.Find("tr").First().Find("th, td").Each(func(_ int, c *goquery.Selection) {
		headers = append(headers, cleanText(c))
	})
	cols, err := detectColumns(headers)
	if err != nil {
		return res, err
	}

	table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		cell := func(i int) string {
			if i < 0 || i >= cells.Length() {
				return ""
			}
			return cleanText(cells.Eq(i))
		}

		name := cell(cols.name)
		id := cell(cols.id)
		if id == "" {
			id = IngredientKey(name)
		}
		price, ok := units.ParseQuantity(strings.TrimLeft(strings.ReplaceAll(cell(cols.price), ",", ""), "$ "))
		if id == "" || !ok {
			res.Skipped = append(res.Skipped, cleanText(tr))
			return
		}
		unit := cell(cols.unit)
		if unit == "" {
			unit = "each"
		}
		res.Imported = append(res.Imported, models.VendorIngredientConnection{
			IngredientID: id,
			VendorID:     vendorID,
			BrandName:    cell(cols.brand),
			ProductCode:  cell(cols.code),
			Price:        units.Round2(price),
			Unit:         unit,
		})
	})
	return res, nil
}

// ImportPriceSheet parses a sheet and applies every quote through
// UpdateConnectionPrice so changed prices land in the history log
func (c *Comparator) ImportPriceSheet(ctx context.Context, r io.Reader, vendorID string) (SheetResult, error) {
	if vendorID == "" {
		return SheetResult{}, fmt.Errorf("price sheet import requires a vendor id")
	}
	res, err := ParsePriceSheet(r, vendorID)
	if err != nil {
		return res, err
	}
	for _, conn := range res.Imported {
		if err := c.UpdateConnectionPrice(ctx, conn); err != nil {
			return res, fmt.Errorf("import %s: %w", conn.IngredientID, err)
		}
	}
	c.log.Info().Str("vendor", vendorID).Int("imported", len(res.Imported)).Int("skipped", len(res.Skipped)).Msg("price sheet imported")
	return res, nil
}
