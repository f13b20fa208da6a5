package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NormalizedPrice is a price expressed per 100 base units (100 g or 100 ml)
// so different pack sizes can be compared directly.
type NormalizedPrice struct {
	PricePer100 *float64 `json:"pricePer100,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Size        string   `json:"size,omitempty"`
}

// Size patterns for price normalization. Unlike the core extractor this
// includes the multi-pack "N x M unit" form, since a 4 x 250g pack prices
// like a single 1kg pack.
var (
	multiPackPattern = regexp.MustCompile(`(?i)(\d+)\s*x\s*(\d+(?:\.\d+)?)\s*(kg|g|ml|l)\b`)
	weightPatterns   = []struct {
		re     *regexp.Regexp
		factor float64
		unit   string
	}{
		{regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kg\b`), 1000, "g"},
		{regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*g\b`), 1, "g"},
		{regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*lb\b`), 453.592, "g"},
		{regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*oz\b`), 28.3495, "g"},
		{regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*l\b`), 1000, "ml"},
		{regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*ml\b`), 1, "ml"},
	}
)

// NormalizePrice derives the per-100g/100ml price from a product name and
// its shelf price. Returns an empty NormalizedPrice when no size token is
// recognizable.
func NormalizePrice(productName string, price float64) NormalizedPrice {
	if price <= 0 {
		return NormalizedPrice{}
	}
	nameLower := strings.ToLower(productName)

	if m := multiPackPattern.FindStringSubmatch(nameLower); m != nil {
		quantity, _ := strconv.ParseFloat(m[1], 64)
		perItem, _ := strconv.ParseFloat(m[2], 64)
		itemUnit := m[3]

		total := quantity * perItem
		unit := "g"
		switch itemUnit {
		case "kg":
			total *= 1000
		case "l":
			total *= 1000
			unit = "ml"
		case "ml":
			unit = "ml"
		}
		if total <= 0 {
			return NormalizedPrice{}
		}
		per100 := price / total * 100
		return NormalizedPrice{
			PricePer100: &per100,
			Unit:        unit,
			Size:        fmt.Sprintf("%sx%s%s", m[1], m[2], m[3]),
		}
	}

	for _, p := range weightPatterns {
		m := p.re.FindStringSubmatch(nameLower)
		if m == nil {
			continue
		}
		size, err := strconv.ParseFloat(m[1], 64)
		if err != nil || size <= 0 {
			return NormalizedPrice{}
		}
		total := size * p.factor
		per100 := price / total * 100
		return NormalizedPrice{
			PricePer100: &per100,
			Unit:        p.unit,
			Size:        strings.TrimSpace(m[0]),
		}
	}

	return NormalizedPrice{}
}
