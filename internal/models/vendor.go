package models

import (
	"fmt"
	"time"
)

// Vendor is an entry of the vendor directory (iterum_vendors)
type Vendor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// VendorIngredientConnection is one vendor's quote for one ingredient
type VendorIngredientConnection struct {
	IngredientID string    `json:"ingredientId"`
	VendorID     string    `json:"vendorId"`
	BrandName    string    `json:"brandName,omitempty"`
	FarmName     string    `json:"farmName,omitempty"`
	ProductCode  string    `json:"productCode,omitempty"`
	Price        float64   `json:"price"`
	Unit         string    `json:"unit"`
	MinOrder     float64   `json:"minOrder,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// PriceChange is an entry of the append-only vendor_price_history log
type PriceChange struct {
	ID           string    `json:"id"`
	IngredientID string    `json:"ingredientId"`
	VendorID     string    `json:"vendorId"`
	OldPrice     float64   `json:"oldPrice"`
	NewPrice     float64   `json:"newPrice"`
	Unit         string    `json:"unit,omitempty"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// ValidateConnection validates a vendor connection
func ValidateConnection(c *VendorIngredientConnection) error {
	if c.IngredientID == "" {
		return fmt.Errorf("vendor connection: ingredient id is required")
	}
	if c.VendorID == "" {
		return fmt.Errorf("vendor connection for %s: vendor id is required", c.IngredientID)
	}
	if c.Price < 0 {
		return fmt.Errorf("vendor connection %s/%s: price must not be negative", c.IngredientID, c.VendorID)
	}
	return nil
}

// Delta returns the signed price movement
func (p PriceChange) Delta() float64 {
	return p.NewPrice - p.OldPrice
}
