// Package units parses authored quantities and converts purchasing units to a
// common pound basis.
package units

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	mixedPattern    = regexp.MustCompile(`^(\d+)\s+(\d+)\s*/\s*(\d+)`)
	fractionPattern = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)`)
	decimalPattern  = regexp.MustCompile(`^(\d+(?:\.\d+)?|\.\d+)`)
)

// ParseQuantity parses an authored quantity string. Precedence is mixed
// number ("1 1/2"), bare fraction ("3/4"), then a leading decimal or integer
// prefix ("2.5 cups" -> 2.5). The boolean is false when nothing matched.
func ParseQuantity(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	if m := mixedPattern.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den != 0 {
			return whole + num/den, true
		}
	}

	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den != 0 {
			return num / den, true
		}
	}

	if m := decimalPattern.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v, true
		}
	}

	return 0, false
}

// ParseAny accepts the loosely typed values found in stored records.
// Numbers are returned unchanged, strings go through ParseQuantity, and nil
// or any other type is reported as absent.
func ParseAny(v interface{}) (float64, bool) {
	switch q := v.(type) {
	case nil:
		return 0, false
	case float64:
		return q, true
	case float32:
		return float64(q), true
	case int:
		return float64(q), true
	case int64:
		return float64(q), true
	case json.Number:
		f, err := q.Float64()
		return f, err == nil
	case string:
		return ParseQuantity(q)
	case *string:
		if q == nil {
			return 0, false
		}
		return ParseQuantity(*q)
	default:
		return 0, false
	}
}

// Round2 rounds to two decimal places, half away from zero
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
