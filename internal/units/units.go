// Package units converts dosage amounts between the measurement units of a
// medication form. Dosage is entered in whatever unit is convenient per
// intake, but stock is tracked in one canonical unit per form: the first unit
// listed for that form.
package units

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nastya-andreeva/dailydose-server/internal/model"
)

// Triplet holds the singular/few/many forms of a unit name.
type Triplet [3]string

// ByForm lists the units of each medication form, canonical unit first.
var ByForm = map[model.Form][]Triplet{
	model.FormTablet: {
		{"таблетка", "таблетки", "таблеток"},
		{"мг", "мг", "мг"},
		{"г", "г", "г"},
	},
	model.FormCapsule: {
		{"капсула", "капсулы", "капсул"},
		{"мг", "мг", "мг"},
		{"г", "г", "г"},
	},
	model.FormDrops: {
		{"мл", "мл", "мл"},
		{"капля", "капли", "капель"},
	},
	model.FormLiquid: {
		{"мл", "мл", "мл"},
		{"чайная ложка", "чайные ложки", "чайных ложек"},
		{"столовая ложка", "столовые ложки", "столовых ложек"},
	},
	model.FormOintment: {
		{"мг", "мг", "мг"},
		{"г", "г", "г"},
	},
	model.FormSpray: {
		{"впрыск", "впрыска", "впрысков"},
		{"мл", "мл", "мл"},
	},
	model.FormPowder: {
		{"мг", "мг", "мг"},
		{"г", "г", "г"},
	},
}

// conversionTable maps fromUnit -> toUnit -> multiplier. Pairs missing here
// are tried in the inverse direction before giving up.
var conversionTable = map[string]map[string]float64{
	"мг":              {"г": 0.001},
	"г":               {"мг": 1000},
	"мл":              {"чайная ложка": 1.0 / 5, "столовая ложка": 1.0 / 15},
	"чайная ложка":    {"мл": 5},
	"столовая ложка":  {"мл": 15},
	"капля":           {"мл": 0.05},
	"впрыск":          {"мл": 0.1},
}

// Canonical returns the stock-accounting unit of a form, the empty string for
// an unknown form.
func Canonical(form model.Form) string {
	u, ok := ByForm[form]
	if !ok || len(u) == 0 {
		return ""
	}
	return u[0][0]
}

var potencyRe = regexp.MustCompile(`^([\d.]+)\s*([^\d\s]+)$`)

// ParsePotency splits a per-unit potency string such as "20 мг" into its
// number and unit.
func ParsePotency(s string) (value float64, unit string, ok bool) {
	m := potencyRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return v, m[2], true
}

// Convert expresses value, given in fromUnit, in the canonical unit of form.
// potency is the medication's per-unit potency string ("20 мг") and is only
// consulted for tablet and capsule forms; pass "" when the medication has
// none. An unknown unit pair is not an error: it logs a warning and converts
// to 0 so stock bookkeeping degrades instead of blocking intake recording.
func Convert(logger *zap.Logger, form model.Form, value float64, fromUnit, potency string) float64 {
	canonical := Canonical(form)
	if fromUnit == canonical {
		return value
	}

	if (form == model.FormTablet || form == model.FormCapsule) && potency != "" {
		if n, unit, ok := ParsePotency(potency); ok && n != 0 {
			if fromUnit == unit {
				return value / n
			}
			// The alternate unit of these forms is grams against a
			// milligram potency.
			return value * 1000 / n
		}
	}

	multiplier := math.NaN()
	if to, ok := conversionTable[fromUnit]; ok {
		if m, ok := to[canonical]; ok {
			multiplier = m
		}
	}
	if math.IsNaN(multiplier) {
		if to, ok := conversionTable[canonical]; ok {
			if m, ok := to[fromUnit]; ok && m != 0 {
				multiplier = 1 / m
			}
		}
	}
	if math.IsNaN(multiplier) {
		logger.Warn("no conversion between units",
			zap.String("from", fromUnit),
			zap.String("to", canonical),
			zap.String("form", string(form)))
		return 0
	}
	return value * multiplier
}

// PluralForm picks the Russian plural index (0 singular, 1 few, 2 many) for a
// count. Fractional counts always read as the many form.
func PluralForm(n float64) int {
	if n != math.Trunc(n) {
		return 2
	}
	mod10 := int64(n) % 10
	mod100 := int64(n) % 100
	switch {
	case mod10 == 1 && mod100 != 11:
		return 0
	case mod10 >= 2 && mod10 <= 4 && !(mod100 >= 12 && mod100 <= 14):
		return 1
	default:
		return 2
	}
}

// Pluralize returns the form of a unit triplet matching count.
func Pluralize(t Triplet, count float64) string {
	return t[PluralForm(count)]
}

// Display finds the triplet a raw unit belongs to and pluralizes it for the
// given amount; unknown units come back unchanged.
func Display(unit string, amount float64) string {
	for _, triplets := range ByForm {
		for _, t := range triplets {
			if t[0] == unit || t[1] == unit || t[2] == unit {
				return Pluralize(t, amount)
			}
		}
	}
	return unit
}
