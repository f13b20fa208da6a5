package matching

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shelfmatch/backend/internal/domain"
)

// sizeTokenRegex matches the first number+unit token in a product name,
// e.g. "200g", "1.5 kg", "750 ml", "12 pcs".
var sizeTokenRegex = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kg|gm|g|lb|oz|ml|l|pcs?|each)\b`)

// unitConversion converts a recognized unit to its canonical base unit.
type unitConversion struct {
	factor   float64
	baseUnit string
	unitType domain.UnitType
}

var unitConversions = map[string]unitConversion{
	"kg":   {1000, "g", domain.UnitWeight},
	"lb":   {453.6, "g", domain.UnitWeight},
	"oz":   {28.35, "g", domain.UnitWeight},
	"l":    {1000, "ml", domain.UnitVolume},
	"g":    {1, "g", domain.UnitWeight},
	"gm":   {1, "g", domain.UnitWeight},
	"ml":   {1, "ml", domain.UnitVolume},
	"pc":   {1, "pcs", domain.UnitCount},
	"pcs":  {1, "pcs", domain.UnitCount},
	"each": {1, "each", domain.UnitCount},
}

// ExtractSize scans a product name for a single number+unit token and
// converts it to canonical base units (grams, milliliters, pieces). First
// match wins; multi-pack "N x M unit" detection is left to the price
// normalizer. Returns the zero-value sentinel when no token is found.
func ExtractSize(name string) domain.SizeInfo {
	m := sizeTokenRegex.FindStringSubmatch(name)
	if m == nil {
		return domain.SizeInfo{UnitType: domain.UnitUnknown}
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return domain.SizeInfo{UnitType: domain.UnitUnknown}
	}
	unit := strings.ToLower(m[2])

	conv, ok := unitConversions[unit]
	if !ok {
		return domain.SizeInfo{Value: value, Unit: unit, UnitType: domain.UnitUnknown, Original: m[0]}
	}

	return domain.SizeInfo{
		Value:    value * conv.factor,
		Unit:     conv.baseUnit,
		UnitType: conv.unitType,
		Original: m[0],
	}
}

// SizeSimilarity scores two canonicalized sizes in [0,1]. Different unit
// types are near-certain non-matches; a missing size on either side is
// neutral. Within one unit type the score is a monotone, symmetric function
// of the magnitude ratio with an exact-size bonus band.
func SizeSimilarity(a, b domain.SizeInfo) float64 {
	if a.UnitType != b.UnitType {
		if a.UnitType == domain.UnitUnknown || b.UnitType == domain.UnitUnknown {
			return 0.3
		}
		return 0.1
	}

	if a.Value == 0 || b.Value == 0 {
		return 0.5
	}

	ratio := a.Value / b.Value
	if ratio > 1 {
		ratio = b.Value / a.Value
	}

	if ratio > 0.98 {
		return 1.0
	}
	if ratio < 0.5 {
		return ratio * 0.3
	}
	if ratio < 0.75 {
		return ratio * 0.6
	}
	return ratio
}
