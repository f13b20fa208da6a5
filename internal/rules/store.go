package rules

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Category is one taxonomy entry. Declaration order matters: it is the
// stable tie-break when two categories match with equal priority.
type Category struct {
	Type     string   `json:"type"`
	Subtype  string   `json:"subtype"`
	Keywords []string `json:"keywords"`
}

// SynonymGroup rewrites regional terms to one canonical term before
// classification.
type SynonymGroup struct {
	Canonical string   `json:"canonical"`
	Terms     []string `json:"terms"`
}

// Tables is the raw rule data a Store is built from. Callers normally get
// one from Load, but tests construct them directly.
type Tables struct {
	Categories             []Category
	StrictCategories       []string
	IncompatibleCategories [][2]string
	ForbiddenPairs         [][2]string
	PenaltyMultipliers     map[string]float64
	Synonyms               []SynonymGroup
	Brands                 []string
}

// Store holds the immutable rule configuration shared read-only across all
// evaluations in a run. Every table degrades to empty when its source file
// is missing, so construction never fails on partial configuration.
type Store struct {
	categories   []Category
	synonyms     []SynonymGroup
	pairSet      map[[2]string]struct{}
	patternRules []PatternRule
	penalties    map[string]float64
	strict       map[string]struct{}
	incompatible [][2]string
	brands       []string
	brandLower   []string
}

// New builds a Store from in-memory tables, parsing pattern tokens once.
func New(t Tables) *Store {
	s := &Store{
		categories:   t.Categories,
		synonyms:     t.Synonyms,
		pairSet:      make(map[[2]string]struct{}),
		penalties:    make(map[string]float64),
		strict:       make(map[string]struct{}),
		incompatible: t.IncompatibleCategories,
		brands:       t.Brands,
	}

	for _, pair := range t.ForbiddenPairs {
		if isPatternToken(pair[0]) || isPatternToken(pair[1]) {
			s.patternRules = append(s.patternRules, PatternRule{
				A: parsePattern(pair[0]),
				B: parsePattern(pair[1]),
			})
			continue
		}
		a, b := strings.ToLower(pair[0]), strings.ToLower(pair[1])
		s.pairSet[[2]string{a, b}] = struct{}{}
		s.pairSet[[2]string{b, a}] = struct{}{}
	}

	for key, mult := range t.PenaltyMultipliers {
		s.penalties[key] = mult
	}
	for _, key := range t.StrictCategories {
		s.strict[key] = struct{}{}
	}
	for _, brand := range t.Brands {
		s.brandLower = append(s.brandLower, strings.ToLower(brand))
	}

	return s
}

// file schemas, matching the rule documents' fixed shape

type classificationsFile struct {
	Categories    []Category `json:"categories"`
	MatchingRules struct {
		StrictCategoryMatching []string    `json:"strict_category_matching"`
		IncompatibleCategories [][2]string `json:"incompatible_categories"`
	} `json:"matching_rules"`
}

type forbiddenFile struct {
	Pairs [][2]string `json:"pairs"`
	Rules struct {
		PenaltyMultipliers map[string]float64 `json:"penalty_multipliers"`
	} `json:"rules"`
}

type synonymsFile struct {
	Groups []SynonymGroup `json:"groups"`
}

type brandsFile struct {
	KnownBrands []string `json:"known_brands"`
}

// Load reads the four rule documents from dir. A missing file degrades that
// table to empty with a warning; a present-but-unreadable file is an error.
func Load(dir string) (*Store, error) {
	var t Tables

	var classifications classificationsFile
	if err := loadJSON(filepath.Join(dir, "classifications.json"), &classifications); err != nil {
		return nil, err
	}
	t.Categories = classifications.Categories
	t.StrictCategories = classifications.MatchingRules.StrictCategoryMatching
	t.IncompatibleCategories = classifications.MatchingRules.IncompatibleCategories

	var forbidden forbiddenFile
	if err := loadJSON(filepath.Join(dir, "forbidden.json"), &forbidden); err != nil {
		return nil, err
	}
	t.ForbiddenPairs = forbidden.Pairs
	t.PenaltyMultipliers = forbidden.Rules.PenaltyMultipliers

	var synonyms synonymsFile
	if err := loadJSON(filepath.Join(dir, "synonyms.json"), &synonyms); err != nil {
		return nil, err
	}
	t.Synonyms = synonyms.Groups

	var brands brandsFile
	if err := loadJSON(filepath.Join(dir, "brands.json"), &brands); err != nil {
		return nil, err
	}
	t.Brands = brands.KnownBrands

	store := New(t)
	log.Printf("[RULES] Loaded %d categories, %d forbidden pairs, %d pattern rules, %d synonym groups, %d brands",
		len(store.categories), len(store.pairSet)/2, len(store.patternRules), len(store.synonyms), len(store.brands))
	return store, nil
}

// loadJSON decodes one rule document into out. Missing files are tolerated.
func loadJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[RULES] %s not found, using empty table", filepath.Base(path))
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Categories returns the taxonomy in declaration order.
func (s *Store) Categories() []Category { return s.categories }

// Synonyms returns the synonym groups.
func (s *Store) Synonyms() []SynonymGroup { return s.synonyms }

// HasForbiddenPair reports whether (a, b) is in the forbidden pair set.
// Both orderings were inserted at load, so one lookup covers either order.
func (s *Store) HasForbiddenPair(a, b string) bool {
	_, ok := s.pairSet[[2]string{strings.ToLower(a), strings.ToLower(b)}]
	return ok
}

// PatternRules returns the parsed pattern rules in declaration order.
func (s *Store) PatternRules() []PatternRule { return s.patternRules }

// PenaltyMultiplier looks up a configured category-mismatch multiplier.
func (s *Store) PenaltyMultiplier(key string) (float64, bool) {
	mult, ok := s.penalties[key]
	return mult, ok
}

// IsStrict reports whether a "type:subtype" key requires strict subtype
// matching.
func (s *Store) IsStrict(key string) bool {
	_, ok := s.strict[key]
	return ok
}

// IncompatibleCategories returns the configured incompatible pairs.
func (s *Store) IncompatibleCategories() [][2]string { return s.incompatible }

// Brands returns the known brand list as configured.
func (s *Store) Brands() []string { return s.brands }

// MatchBrand returns the first known brand occurring in the name, or "".
// Matching is a case-insensitive substring check against the raw name.
func (s *Store) MatchBrand(name string) string {
	nameLower := strings.ToLower(name)
	for i, brand := range s.brandLower {
		if strings.Contains(nameLower, brand) {
			return s.brands[i]
		}
	}
	return ""
}
