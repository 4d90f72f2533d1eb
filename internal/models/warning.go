package models

// Warning is a non-fatal finding attached to a derived report
type Warning struct {
	Source  string `json:"source"`
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	ItemID  string `json:"itemId,omitempty"`
	Name    string `json:"name,omitempty"`
}

const (
	WarningMissingRecipe        = "missing-recipe"
	WarningUnparseableQuantity  = "unparseable-quantity"
	WarningUnitMismatch         = "unit-mismatch"
	WarningLowConfidenceUnit    = "low-confidence-unit"
	WarningMissingAllergens     = "missing-allergens"
	WarningMissingTalkingPoints = "missing-talking-points"
	WarningMalformedData        = "malformed-data"
	WarningInternalError        = "internal-error"
)
