package embedding

import (
	"context"
	"errors"

	"github.com/shelfmatch/backend/internal/domain"
)

// CachedEmbedder wraps an embedder with a vector cache so each unique
// normalized name is encoded once per run, however many pairwise
// comparisons it appears in.
type CachedEmbedder struct {
	inner domain.Embedder
	cache domain.VectorCache
}

// NewCachedEmbedder wraps inner with cache.
func NewCachedEmbedder(inner domain.Embedder, cache domain.VectorCache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

// Embed returns the cached vector for text, encoding and caching on a miss.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, err := c.cache.Get(ctx, text); err == nil {
		return vec, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		return nil, err
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, text, vec)
	return vec, nil
}

// EmbedBatch resolves as many texts as possible from the cache and encodes
// only the misses through the backend.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vec, err := c.cache.Get(ctx, text); err == nil {
			vectors[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	encoded, err := c.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range encoded {
		vectors[missingIdx[j]] = vec
		_ = c.cache.Set(ctx, missing[j], vec)
	}
	return vectors, nil
}
