package linker

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// DefaultCuisine is used when no keyword matches
const DefaultCuisine = "American"

// Checked in order; the first cuisine with a matching keyword wins.
var cuisineKeywords = []struct {
	cuisine  string
	keywords []string
}{
	{"Italian", []string{"pasta", "pizza", "risotto", "lasagna", "gnocchi", "ravioli", "carbonara", "marinara", "pesto", "bruschetta", "tiramisu", "parmigiana", "focaccia"}},
	{"Mexican", []string{"taco", "burrito", "enchilada", "quesadilla", "guacamole", "tamale", "mole", "carnitas", "churro", "pozole", "elote"}},
	{"Japanese", []string{"sushi", "ramen", "teriyaki", "tempura", "miso", "udon", "sashimi", "katsu", "yakitori", "donburi"}},
	{"Chinese", []string{"dumpling", "lo mein", "kung pao", "wonton", "szechuan", "fried rice", "bao", "chow mein", "mapo"}},
	{"Thai", []string{"pad thai", "tom yum", "green curry", "red curry", "satay", "larb", "pad see ew"}},
	{"Indian", []string{"tikka", "masala", "naan", "biryani", "tandoori", "samosa", "korma", "vindaloo", "paneer", "curry"}},
	{"French", []string{"coq au vin", "bouillabaisse", "crepe", "souffle", "ratatouille", "confit", "bearnaise", "gratin", "bisque", "cassoulet"}},
	{"Mediterranean", []string{"hummus", "falafel", "tzatziki", "gyro", "shawarma", "tabbouleh", "feta", "kebab", "baba ganoush"}},
}

// normalizeWords folds case and collapses punctuation so keywords can be
// matched on word boundaries.
func normalizeWords(s string) string {
	// a Caser keeps state, so each call gets its own
	folded := cases.Fold().String(s)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(fields, " ") + " "
}

// GuessCuisine matches the text against the cuisine keyword table
func GuessCuisine(texts ...string) string {
	text := normalizeWords(strings.Join(texts, " "))
	for _, entry := range cuisineKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, " "+kw+" ") || strings.Contains(text, " "+kw+"s ") {
				return entry.cuisine
			}
		}
	}
	return DefaultCuisine
}
