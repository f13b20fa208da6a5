package matching

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/shelfmatch/backend/internal/domain"
)

// Default match finder settings.
const (
	DefaultMinConfidence = 0.65
	DefaultMaxMatches    = 3
	defaultBatchWorkers  = 4
)

// Match type thresholds.
const (
	exactThreshold   = 0.9
	similarThreshold = 0.75
)

// MatchOptions tunes one FindMatches call. Zero values fall back to the
// defaults.
type MatchOptions struct {
	MinConfidence float64
	MaxMatches    int
}

func (o MatchOptions) withDefaults() MatchOptions {
	if o.MinConfidence <= 0 {
		o.MinConfidence = DefaultMinConfidence
	}
	if o.MaxMatches <= 0 {
		o.MaxMatches = DefaultMaxMatches
	}
	return o
}

// FindMatches evaluates one primary against every candidate and returns the
// accepted matches sorted by descending confidence, input order preserved on
// ties, truncated to MaxMatches. A failure while scoring a single pair is
// logged and skipped; only an invalid primary aborts the whole call.
func (e *Engine) FindMatches(ctx context.Context, primary *domain.ProductRecord, candidates []domain.ProductRecord, opts MatchOptions) ([]domain.ProductMatch, error) {
	if err := primary.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	var matches []domain.ProductMatch
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.ID == primary.ID {
			continue
		}

		confidence, warnings, err := e.scorePair(ctx, primary, candidate)
		if err != nil {
			log.Printf("[MATCH] skipping pair %d/%d: %v", primary.ID, candidate.ID, err)
			continue
		}

		if confidence < opts.MinConfidence {
			continue
		}

		matches = append(matches, domain.ProductMatch{
			PrimaryID:      primary.ID,
			MatchedID:      candidate.ID,
			Confidence:     confidence,
			MatchType:      matchTypeFor(confidence),
			SizeSimilarity: SizeSimilarity(ExtractSize(primary.Name), ExtractSize(candidate.Name)),
			Warnings:       warnings,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	if len(matches) > opts.MaxMatches {
		matches = matches[:opts.MaxMatches]
	}
	return matches, nil
}

// scorePair wraps Confidence with a panic boundary so one malformed
// candidate cannot take down a whole batch.
func (e *Engine) scorePair(ctx context.Context, primary, candidate *domain.ProductRecord) (confidence float64, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			confidence, warnings = 0, nil
			err = fmt.Errorf("panic while scoring pair: %v", r)
		}
	}()
	return e.Confidence(ctx, primary, candidate)
}

// BatchMatch runs FindMatches for every primary against the full candidate
// set across a bounded worker pool and concatenates the results. There is no
// cross-primary interaction: the same candidate may be the best match for
// several primaries. Result order across primaries is unspecified; within
// one primary it is FindMatches' deterministic order.
func (e *Engine) BatchMatch(ctx context.Context, primaries, candidates []domain.ProductRecord, minConfidence float64) []domain.ProductMatch {
	opts := MatchOptions{MinConfidence: minConfidence}.withDefaults()

	jobs := make(chan int)
	results := make(chan []domain.ProductMatch)

	var wg sync.WaitGroup
	for w := 0; w < defaultBatchWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				matches, err := e.FindMatches(ctx, &primaries[i], candidates, opts)
				if err != nil {
					log.Printf("[MATCH] skipping primary %d: %v", primaries[i].ID, err)
					continue
				}
				results <- matches
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range primaries {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []domain.ProductMatch
	for matches := range results {
		all = append(all, matches...)
	}
	log.Printf("[MATCH] batch complete: %d primaries, %d matches", len(primaries), len(all))
	return all
}

// WarmEmbeddings encodes every unique normalized name once so pairwise
// scoring hits the vector cache instead of re-embedding per pair. Failures
// are non-fatal: scoring falls back to per-pair embedding.
func (e *Engine) WarmEmbeddings(ctx context.Context, products ...[]domain.ProductRecord) {
	seen := make(map[string]bool)
	var names []string
	for _, set := range products {
		for i := range set {
			norm := NormalizeName(set[i].Name)
			if norm != "" && !seen[norm] {
				seen[norm] = true
				names = append(names, norm)
			}
		}
	}
	if len(names) == 0 {
		return
	}
	if _, err := e.scorer.embedder.EmbedBatch(ctx, names); err != nil {
		log.Printf("[MATCH] embedding warm-up failed, continuing without: %v", err)
	}
}

func matchTypeFor(confidence float64) domain.MatchType {
	switch {
	case confidence >= exactThreshold:
		return domain.MatchExact
	case confidence >= similarThreshold:
		return domain.MatchSimilar
	default:
		return domain.MatchSubstitute
	}
}
