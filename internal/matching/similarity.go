package matching

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shelfmatch/backend/internal/domain"
	"github.com/shelfmatch/backend/internal/rules"
)

// Weights and adjustments for the hybrid score. Lexical similarity carries
// more weight than semantic: surface tokens are the stronger signal for
// regional grocery names.
const (
	semanticWeight     = 0.4
	lexicalWeight      = 0.6
	sameBrandBonus     = 0.1
	differentBrandMult = 0.85
	noOverlapScore     = 0.1
)

var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)

// nameStopWords are filler words stripped during normalization.
var nameStopWords = map[string]bool{
	"the": true, "and": true, "or": true, "of": true, "in": true,
	"with": true, "for": true, "pure": true, "organic": true,
	"fresh": true, "premium": true,
}

// SimilarityScorer blends semantic (embedding cosine) and lexical
// (token-sort ratio) name similarity with a brand adjustment.
type SimilarityScorer struct {
	rules    *rules.Store
	embedder domain.Embedder
}

// NewSimilarityScorer creates a scorer. The embedder is shared read-only
// across concurrent evaluations.
func NewSimilarityScorer(ruleStore *rules.Store, embedder domain.Embedder) *SimilarityScorer {
	return &SimilarityScorer{rules: ruleStore, embedder: embedder}
}

// NormalizeName strips the detected size token, lowercases, replaces
// non-alphanumeric characters with spaces and removes stop words.
func NormalizeName(name string) string {
	if size := ExtractSize(name); size.Original != "" {
		name = strings.Replace(name, size.Original, "", 1)
	}

	name = strings.ToLower(strings.TrimSpace(name))
	name = nonAlphanumericRegex.ReplaceAllString(name, " ")

	var kept []string
	for _, word := range strings.Fields(name) {
		if !nameStopWords[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// Score computes the hybrid similarity of two raw product names. An empty
// normalized name on either side scores 0; zero common words short-circuits
// to 0.1 before any embedding work. The result is not clamped here: the
// confidence calculator's closing clamp is authoritative.
func (s *SimilarityScorer) Score(ctx context.Context, nameA, nameB string) (float64, error) {
	normA := NormalizeName(nameA)
	normB := NormalizeName(nameB)

	if normA == "" || normB == "" {
		return 0.0, nil
	}

	if countCommonWords(normA, normB) == 0 {
		return noOverlapScore, nil
	}

	semantic, err := s.semanticSimilarity(ctx, normA, normB)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
	}
	lexical := tokenSortRatio(normA, normB)

	score := semantic*semanticWeight + lexical*lexicalWeight

	brandA := s.rules.MatchBrand(nameA)
	brandB := s.rules.MatchBrand(nameB)
	switch {
	case brandA != "" && brandA == brandB:
		score = math.Min(score+sameBrandBonus, 1.0)
	case brandA != "" && brandB != "" && brandA != brandB:
		score *= differentBrandMult
	}

	return score, nil
}

// semanticSimilarity is the cosine similarity of the two names' embeddings.
func (s *SimilarityScorer) semanticSimilarity(ctx context.Context, normA, normB string) (float64, error) {
	vecs, err := s.embedder.EmbedBatch(ctx, []string{normA, normB})
	if err != nil {
		return 0, err
	}
	if len(vecs) != 2 {
		return 0, fmt.Errorf("expected 2 embeddings, got %d", len(vecs))
	}
	return cosineSimilarity(vecs[0], vecs[1]), nil
}

// cosineSimilarity computes the cosine of two vectors, 0 when either has no
// magnitude or the dimensions disagree.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func countCommonWords(a, b string) int {
	wordsA := make(map[string]bool)
	for _, w := range strings.Fields(a) {
		wordsA[w] = true
	}
	count := 0
	seen := make(map[string]bool)
	for _, w := range strings.Fields(b) {
		if wordsA[w] && !seen[w] {
			count++
			seen[w] = true
		}
	}
	return count
}
