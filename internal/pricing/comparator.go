// Package pricing compares vendor quotes on a per-pound basis, picks sourcing
// mixes and keeps the price change log.
package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"menuops/internal/models"
	"menuops/internal/store"
	"menuops/internal/units"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Trend directions
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// VendorQuote is a connection annotated with its normalised price
type VendorQuote struct {
	models.VendorIngredientConnection
	VendorName     string  `json:"vendorName,omitempty"`
	PricePerLb     float64 `json:"pricePerLb"`
	UnitRecognized bool    `json:"unitRecognized"`
}

// Comparison ranks every vendor quote for one ingredient
type Comparison struct {
	IngredientID   string        `json:"ingredientId"`
	Vendors        []VendorQuote `json:"vendors"`
	BestVendor     *VendorQuote  `json:"bestVendor"`
	WorstVendor    *VendorQuote  `json:"worstVendor"`
	SavingsPercent string        `json:"savingsPercent"`
}

// MixRequest asks for an ingredient in a quantity of the vendor's unit
type MixRequest struct {
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity,omitempty"`
}

// MixItem is one ingredient assigned to a vendor
type MixItem struct {
	IngredientID string  `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
	Price        float64 `json:"price"`
	Unit         string  `json:"unit"`
	PricePerLb   float64 `json:"pricePerLb"`
	Cost         float64 `json:"cost"`
}

// VendorAllocation groups the ingredients bought from one vendor
type VendorAllocation struct {
	VendorID   string    `json:"vendorId"`
	VendorName string    `json:"vendorName,omitempty"`
	Items      []MixItem `json:"items"`
	TotalCost  float64   `json:"totalCost"`
}

// VendorMix is a greedy per-ingredient sourcing plan. Minimum orders and
// delivery consolidation are not considered.
type VendorMix struct {
	Vendors   []VendorAllocation `json:"vendors"`
	TotalCost float64            `json:"totalCost"`
	Unsourced []string           `json:"unsourced"`
}

// Trend summarises the price change log for an ingredient
type Trend struct {
	IngredientID  string  `json:"ingredientId"`
	VendorID      string  `json:"vendorId,omitempty"`
	Direction     string  `json:"direction"`
	AverageChange float64 `json:"averageChange"`
	Samples       int     `json:"samples"`
}

// Comparator answers price questions from the vendor stores
type Comparator struct {
	stores     *store.Stores
	historyCap int
	log        zerolog.Logger
	now        func() time.Time
}

// NewComparator creates a comparator. historyCap bounds the change log.
func NewComparator(stores *store.Stores, historyCap int, log zerolog.Logger) *Comparator {
	if historyCap <= 0 {
		historyCap = store.DefaultHistoryCap
	}
	return &Comparator{
		stores:     stores,
		historyCap: historyCap,
		log:        log.With().Str("component", "pricing").Logger(),
		now:        time.Now,
	}
}

// Compare ranks connections ascending by price per pound. The sort is stable
// so equal prices keep their stored order.
func Compare(ingredientID string, conns []models.VendorIngredientConnection, vendorNames map[string]string) Comparison {
	quotes := make([]VendorQuote, 0, len(conns))
	for _, c := range conns {
		perLb, ok := units.PricePerPound(c.Price, c.Unit)
		quotes = append(quotes, VendorQuote{
			VendorIngredientConnection: c,
			VendorName:                 vendorNames[c.VendorID],
			PricePerLb:                 perLb,
			UnitRecognized:             ok,
		})
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].PricePerLb < quotes[j].PricePerLb
	})

	cmp := Comparison{IngredientID: ingredientID, Vendors: quotes, SavingsPercent: "0.0"}
	if len(quotes) == 0 {
		return cmp
	}
	best, worst := quotes[0], quotes[len(quotes)-1]
	cmp.BestVendor = &best
	cmp.WorstVendor = &worst
	if worst.PricePerLb > 0 {
		cmp.SavingsPercent = fmt.Sprintf("%.1f", (worst.PricePerLb-best.PricePerLb)/worst.PricePerLb*100)
	}
	return cmp
}

// CompareVendorsForIngredient ranks the stored quotes of one ingredient
func (c *Comparator) CompareVendorsForIngredient(ctx context.Context, ingredientID string) (Comparison, error) {
	conns, err := c.stores.Connections.ForIngredient(ctx, ingredientID)
	if err != nil {
		return Comparison{IngredientID: ingredientID, SavingsPercent: "0.0"}, err
	}
	names, err := c.stores.Vendors.Names(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("vendor directory unreadable, comparing without names")
	}
	return Compare(ingredientID, conns, names), nil
}

// GetOptimalVendorMix assigns each requested ingredient to its cheapest vendor
// independently. Quantity defaults to one of the vendor's units.
func (c *Comparator) GetOptimalVendorMix(ctx context.Context, requests []MixRequest) (VendorMix, error) {
	all, err := c.stores.Connections.All(ctx)
	if err != nil {
		return VendorMix{}, err
	}
	names, err := c.stores.Vendors.Names(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("vendor directory unreadable, mixing without names")
	}

	byIngredient := make(map[string][]models.VendorIngredientConnection)
	for _, conn := range all {
		byIngredient[conn.IngredientID] = append(byIngredient[conn.IngredientID], conn)
	}

	mix := VendorMix{Vendors: []VendorAllocation{}, Unsourced: []string{}}
	index := make(map[string]int)
	for _, req := range requests {
		cmp := Compare(req.IngredientID, byIngredient[req.IngredientID], names)
		if cmp.BestVendor == nil {
			mix.Unsourced = append(mix.Unsourced, req.IngredientID)
			continue
		}
		qty := req.Quantity
		if qty <= 0 {
			qty = 1
		}
		best := cmp.BestVendor
		item := MixItem{
			IngredientID: req.IngredientID,
			Quantity:     qty,
			Price:        best.Price,
			Unit:         best.Unit,
			PricePerLb:   best.PricePerLb,
			Cost:         units.Round2(best.Price * qty),
		}

		i, ok := index[best.VendorID]
		if !ok {
			i = len(mix.Vendors)
			index[best.VendorID] = i
			mix.Vendors = append(mix.Vendors, VendorAllocation{VendorID: best.VendorID, VendorName: best.VendorName})
		}
		mix.Vendors[i].Items = append(mix.Vendors[i].Items, item)
		mix.Vendors[i].TotalCost = units.Round2(mix.Vendors[i].TotalCost + item.Cost)
		mix.TotalCost = units.Round2(mix.TotalCost + item.Cost)
	}
	return mix, nil
}

// RecordPriceChange appends to the capped change log
func (c *Comparator) RecordPriceChange(ctx context.Context, change models.PriceChange) (models.PriceChange, error) {
	if change.IngredientID == "" || change.VendorID == "" {
		return change, fmt.Errorf("price change requires ingredient id and vendor id")
	}
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.RecordedAt.IsZero() {
		change.RecordedAt = c.now()
	}
	if err := c.stores.History.Append(ctx, change, c.historyCap); err != nil {
		return change, err
	}
	return change, nil
}

// UpdateConnectionPrice stores a new quote and records the change when the
// price moved
func (c *Comparator) UpdateConnectionPrice(ctx context.Context, conn models.VendorIngredientConnection) error {
	conn.UpdatedAt = c.now()
	prev, err := c.stores.Connections.Upsert(ctx, conn)
	if err != nil {
		return err
	}
	if prev == nil || prev.Price == conn.Price {
		return nil
	}
	_, err = c.RecordPriceChange(ctx, models.PriceChange{
		IngredientID: conn.IngredientID,
		VendorID:     conn.VendorID,
		OldPrice:     prev.Price,
		NewPrice:     conn.Price,
		Unit:         conn.Unit,
	})
	return err
}

// TrendOf reduces changes to the sign of their mean delta
func TrendOf(changes []models.PriceChange) (direction string, mean float64) {
	if len(changes) == 0 {
		return TrendStable, 0
	}
	var sum float64
	for _, ch := range changes {
		sum += ch.Delta()
	}
	mean = sum / float64(len(changes))
	switch {
	case mean > 1e-9:
		return TrendIncreasing, units.Round2(mean)
	case mean < -1e-9:
		return TrendDecreasing, units.Round2(mean)
	default:
		return TrendStable, 0
	}
}

// GetPriceTrends summarises the log for an ingredient, optionally narrowed
// to one vendor
func (c *Comparator) GetPriceTrends(ctx context.Context, ingredientID, vendorID string) (Trend, error) {
	log, err := c.stores.History.All(ctx)
	if err != nil {
		return Trend{IngredientID: ingredientID, VendorID: vendorID, Direction: TrendStable}, err
	}
	var matching []models.PriceChange
	for _, ch := range log {
		if ch.IngredientID != ingredientID {
			continue
		}
		if vendorID != "" && ch.VendorID != vendorID {
			continue
		}
		matching = append(matching, ch)
	}
	direction, mean := TrendOf(matching)
	return Trend{
		IngredientID:  ingredientID,
		VendorID:      vendorID,
		Direction:     direction,
		AverageChange: mean,
		Samples:       len(matching),
	}, nil
}
