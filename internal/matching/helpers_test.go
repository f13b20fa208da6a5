package matching

import (
	"testing"

	"github.com/shelfmatch/backend/internal/domain"
	"github.com/shelfmatch/backend/internal/infrastructure/embedding"
	"github.com/shelfmatch/backend/internal/rules"
)

// testTables is a compact rule set covering every table the engine consults.
func testTables() rules.Tables {
	return rules.Tables{
		Categories: []rules.Category{
			{Type: "rice", Subtype: "basmati", Keywords: []string{"basmati"}},
			{Type: "rice", Subtype: "generic", Keywords: []string{"rice"}},
			{Type: "salt", Subtype: "generic", Keywords: []string{"salt"}},
			{Type: "sugar", Subtype: "generic", Keywords: []string{"sugar"}},
			{Type: "spice", Subtype: "turmeric", Keywords: []string{"turmeric", "haldi"}},
			{Type: "spice", Subtype: "coriander", Keywords: []string{"coriander", "dhania"}},
			{Type: "dal", Subtype: "toor", Keywords: []string{"toor dal", "toor"}},
			{Type: "oil", Subtype: "sunflower", Keywords: []string{"sunflower oil"}},
			{Type: "oil", Subtype: "generic", Keywords: []string{"oil"}},
			{Type: "flour", Subtype: "wheat", Keywords: []string{"atta", "wheat flour"}},
		},
		StrictCategories:       []string{"spice:turmeric"},
		IncompatibleCategories: [][2]string{{"salt", "sugar"}},
		ForbiddenPairs: [][2]string{
			{"rice", "dal"},
			{"snack|namkeen", "dal:toor"},
		},
		PenaltyMultipliers: map[string]float64{"different_rice_vs_flour": 0.3},
		Synonyms: []rules.SynonymGroup{
			{Canonical: "turmeric", Terms: []string{"haldi"}},
		},
		Brands: []string{"Tata", "Everest", "Badshah", "India Gate"},
	}
}

func newTestRules() *rules.Store {
	return rules.New(testTables())
}

func newEmptyRules() *rules.Store {
	return rules.New(rules.Tables{})
}

// newTestEngine builds an engine over the deterministic mock embedder so
// scores are reproducible across runs.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	embedder, err := embedding.NewProvider(embedding.Config{
		Provider:      "mock",
		RatePerSecond: 10000,
		Burst:         10000,
	})
	if err != nil {
		t.Fatalf("failed to build mock embedder: %v", err)
	}
	return NewEngine(newTestRules(), embedder)
}

func priceOf(v float64) *float64 {
	return &v
}

func product(id int64, name string) domain.ProductRecord {
	return domain.ProductRecord{ID: id, Name: name}
}
