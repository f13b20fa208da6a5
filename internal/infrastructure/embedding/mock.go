package embedding

import (
	"context"
	"math"
	"math/rand"
	"strings"

	"github.com/philippgille/chromem-go"
)

const mockDimensions = 128

// NewMockEmbedFunc returns a deterministic offline embedding function. Each
// word hashes to a fixed pseudo-random vector and a text embeds as the
// normalized sum of its word vectors, so texts sharing words get a cosine
// similarity proportional to their overlap. Identical texts always embed
// identically.
func NewMockEmbedFunc(dimensions int) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return mockEmbed(text, dimensions), nil
	}
}

func mockEmbed(text string, dimensions int) []float32 {
	vec := make([]float64, dimensions)
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		words = []string{text}
	}

	for _, word := range words {
		var hash int64
		for _, r := range word {
			hash = hash*31 + int64(r)
		}
		rng := rand.New(rand.NewSource(hash))
		for i := range vec {
			vec[i] += rng.Float64()*2 - 1
		}
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, dimensions)
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
