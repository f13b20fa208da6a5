package domain

import "strings"

// ProductRecord is one product row as supplied by ingestion/scraping code.
// The matching engine treats it as read-only. ID must be unique within a
// matching run and Name must be non-empty; Price, Brand and Category are
// optional.
type ProductRecord struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Validate checks the required fields at the engine boundary.
func (p *ProductRecord) Validate() error {
	if p == nil {
		return ErrInvalidProduct
	}
	if p.ID == 0 || strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProduct
	}
	return nil
}

// HasPrice reports whether the record carries a usable positive price.
func (p *ProductRecord) HasPrice() bool {
	return p.Price != nil && *p.Price > 0
}

// UnitType is the magnitude class of an extracted size token.
type UnitType string

const (
	UnitWeight  UnitType = "weight"
	UnitVolume  UnitType = "volume"
	UnitCount   UnitType = "count"
	UnitUnknown UnitType = "unknown"
)

// SizeInfo is a size token extracted from a product name, converted to a
// canonical base unit (grams, milliliters or pieces). Value == 0 together
// with UnitUnknown means no size token was found.
type SizeInfo struct {
	Value    float64  `json:"value"`
	Unit     string   `json:"unit"`
	UnitType UnitType `json:"unitType"`
	Original string   `json:"original"`
}

// Detected reports whether a size token was found in the name.
func (s SizeInfo) Detected() bool {
	return s.Value > 0 && s.UnitType != UnitUnknown
}

// Classification is the (type, subtype) category pair assigned to a product
// name. The zero-match default is ("other", "generic").
type Classification struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
}

// Key returns the "type:subtype" token used by rule lookups.
func (c Classification) Key() string {
	return c.Type + ":" + c.Subtype
}

// MatchType is the confidence tier of an accepted match.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchSimilar    MatchType = "similar"
	MatchSubstitute MatchType = "substitute"
)

// ProductMatch is one accepted (primary, candidate) pairing. It is
// constructed by the match finder and never mutated afterwards.
type ProductMatch struct {
	PrimaryID      int64     `json:"primaryId"`
	MatchedID      int64     `json:"matchedId"`
	Confidence     float64   `json:"confidence"`
	MatchType      MatchType `json:"matchType"`
	SizeSimilarity float64   `json:"sizeSimilarity"`
	Warnings       []string  `json:"warnings,omitempty"`
}
