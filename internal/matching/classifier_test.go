package matching

import (
	"testing"

	"github.com/shelfmatch/backend/internal/domain"
)

func TestClassify(t *testing.T) {
	classifier := NewClassifier(newTestRules())

	tests := []struct {
		name    string
		product string
		want    domain.Classification
	}{
		{
			name:    "single keyword category",
			product: "Tata Salt 1kg",
			want:    domain.Classification{Type: "salt", Subtype: "generic"},
		},
		{
			name:    "specific subtype wins by declaration order on equal priority",
			product: "India Gate Basmati Rice 5kg",
			want:    domain.Classification{Type: "rice", Subtype: "basmati"},
		},
		{
			name:    "more keywords outrank fewer",
			product: "Laxmi Toor Dal 2lb",
			want:    domain.Classification{Type: "dal", Subtype: "toor"},
		},
		{
			name:    "synonym rewritten before keyword scan",
			product: "Everest Haldi Powder 100g",
			want:    domain.Classification{Type: "spice", Subtype: "turmeric"},
		},
		{
			name:    "case insensitive",
			product: "SUNFLOWER OIL 1L",
			want:    domain.Classification{Type: "oil", Subtype: "sunflower"},
		},
		{
			name:    "no keyword falls back to other/generic",
			product: "Mystery Item",
			want:    domain.Classification{Type: "other", Subtype: "generic"},
		},
		{
			name:    "empty name falls back to other/generic",
			product: "",
			want:    domain.Classification{Type: "other", Subtype: "generic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.product)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.product, got, tt.want)
			}
		})
	}

	t.Run("deterministic across calls", func(t *testing.T) {
		first := classifier.Classify("Deep Toor Dal 4lb")
		for i := 0; i < 10; i++ {
			if got := classifier.Classify("Deep Toor Dal 4lb"); got != first {
				t.Fatalf("Classify changed between calls: %v then %v", first, got)
			}
		}
	})
}
