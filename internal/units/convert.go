package units

import "strings"

// Category groups units that can be converted between each other exactly
type Category string

const (
	CategoryWeight  Category = "weight"
	CategoryVolume  Category = "volume"
	CategoryCount   Category = "count"
	CategoryUnknown Category = "unknown"
)

type unitInfo struct {
	factor   float64 // pounds per one unit
	category Category
}

// Fixed table relative to one pound. Count and volume entries are rough
// kitchen equivalences, not physical conversions.
var poundFactors = map[string]unitInfo{
	"lb":    {1, CategoryWeight},
	"oz":    {1.0 / 16, CategoryWeight},
	"kg":    {2.20462, CategoryWeight},
	"g":     {0.00220462, CategoryWeight},
	"each":  {1, CategoryCount},
	"dozen": {12, CategoryCount},
	"case":  {1, CategoryCount},
	"box":   {1, CategoryCount},
	"cup":   {0.5, CategoryVolume},
	"tbsp":  {1.0 / 32, CategoryVolume},
	"tsp":   {1.0 / 96, CategoryVolume},
}

var aliases = map[string]string{
	"lbs":         "lb",
	"pound":       "lb",
	"pounds":      "lb",
	"#":           "lb",
	"ounce":       "oz",
	"ounces":      "oz",
	"kgs":         "kg",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"gram":        "g",
	"grams":       "g",
	"ea":          "each",
	"pc":          "each",
	"piece":       "each",
	"pieces":      "each",
	"dz":          "dozen",
	"doz":         "dozen",
	"cases":       "case",
	"cs":          "case",
	"boxes":       "box",
	"cups":        "cup",
	"c":           "cup",
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"tbs":         "tbsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
}

// Canonical maps a unit string to its table key. Unknown units come back
// lower-cased and trimmed.
func Canonical(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.TrimSuffix(u, ".")
	if a, ok := aliases[u]; ok {
		return a
	}
	return u
}

// PoundFactor returns how many pounds one unit represents. Unrecognised units
// fall back to 1 with ok=false so callers can flag the conversion.
func PoundFactor(unit string) (factor float64, ok bool) {
	info, found := poundFactors[Canonical(unit)]
	if !found {
		return 1, false
	}
	return info.factor, true
}

// CategoryOf returns the conversion category of a unit
func CategoryOf(unit string) Category {
	info, found := poundFactors[Canonical(unit)]
	if !found {
		return CategoryUnknown
	}
	return info.category
}

// PricePerPound normalises a quoted price for one unit to a per-pound basis
func PricePerPound(price float64, unit string) (float64, bool) {
	factor, ok := PoundFactor(unit)
	return price / factor, ok
}

// ToPounds converts a quantity expressed in unit to pounds
func ToPounds(quantity float64, unit string) (float64, bool) {
	factor, ok := PoundFactor(unit)
	return quantity * factor, ok
}
