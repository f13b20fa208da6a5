package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfmatch/backend/internal/domain"
	"github.com/shelfmatch/backend/internal/matching"
)

// ComparisonService runs store-vs-store matching and turns stored matches
// into price comparison reports.
type ComparisonService struct {
	engine  *matching.Engine
	stores  domain.StoreRepository
	matches domain.MatchRepository
}

// NewComparisonService wires the comparison workflow.
func NewComparisonService(engine *matching.Engine, stores domain.StoreRepository, matches domain.MatchRepository) *ComparisonService {
	return &ComparisonService{engine: engine, stores: stores, matches: matches}
}

// RunResult summarizes one matching run.
type RunResult struct {
	RunID             string `json:"runId"`
	PrimaryProducts   int    `json:"primaryProducts"`
	CandidateProducts int    `json:"candidateProducts"`
	Matches           int    `json:"matches"`
}

// MatchStores matches the primary store's catalog against one competitor
// and replaces the stored matches with the new run's output.
func (s *ComparisonService) MatchStores(ctx context.Context, competitorStoreID int64, minConfidence float64) (*RunResult, error) {
	primary, err := s.stores.GetPrimaryStore(ctx)
	if err != nil {
		return nil, err
	}
	competitor, err := s.stores.GetStoreByID(ctx, competitorStoreID)
	if err != nil {
		return nil, err
	}
	if competitor.ID == primary.ID {
		return nil, fmt.Errorf("%w: competitor store is the primary store", domain.ErrInvalidRequest)
	}

	primaries, err := s.stores.ProductsByStore(ctx, primary.ID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.stores.ProductsByStore(ctx, competitor.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("[COMPARE] Matching %d %s products against %d %s products",
		len(primaries), primary.Name, len(candidates), competitor.Name)

	s.engine.WarmEmbeddings(ctx, primaries, candidates)
	matches := s.engine.BatchMatch(ctx, primaries, candidates, minConfidence)

	runID := uuid.NewString()
	if err := s.matches.ReplaceMatches(ctx, runID, competitor.ID, matches); err != nil {
		return nil, fmt.Errorf("persisting matches: %w", err)
	}

	return &RunResult{
		RunID:             runID,
		PrimaryProducts:   len(primaries),
		CandidateProducts: len(candidates),
		Matches:           len(matches),
	}, nil
}

// ReportOptions filters and pages a comparison report.
type ReportOptions struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

// ComparisonRow is one matched product pair with its price analysis.
type ComparisonRow struct {
	PrimaryProductID    int64           `json:"primaryProductId"`
	PrimaryName         string          `json:"primaryName"`
	PrimaryBrand        string          `json:"primaryBrand,omitempty"`
	CompetitorProductID int64           `json:"competitorProductId"`
	CompetitorName      string          `json:"competitorName"`
	CompetitorBrand     string          `json:"competitorBrand,omitempty"`
	Category            string          `json:"category"`
	OurPrice            float64         `json:"ourPrice"`
	TheirPrice          float64         `json:"theirPrice"`
	OurNormalized       NormalizedPrice `json:"ourNormalized"`
	TheirNormalized     NormalizedPrice `json:"theirNormalized"`
	Savings             float64         `json:"savings"`
	SavingsPercent      float64         `json:"savingsPercent"`
	MatchType           domain.MatchType `json:"matchType"`
	Confidence          float64         `json:"confidence"`
	SizeSimilarity      float64         `json:"sizeSimilarity"`
}

// ComparisonStats aggregates a whole report.
type ComparisonStats struct {
	TotalMatched      int     `json:"totalMatched"`
	WeCheaperCount    int     `json:"weCheaperCount"`
	TheyCheaperCount  int     `json:"theyCheaperCount"`
	WeCheaperPercent  float64 `json:"weCheaperPercent"`
	TheyCheaperPercent float64 `json:"theyCheaperPercent"`
	AvgSavings        float64 `json:"avgSavings"`
	AvgSavingsPercent float64 `json:"avgSavingsPercent"`
}

// ComparisonReport is the full response for one competitor store.
type ComparisonReport struct {
	PrimaryStore    domain.Store    `json:"primaryStore"`
	CompetitorStore domain.Store    `json:"competitorStore"`
	Stats           ComparisonStats `json:"statistics"`
	Categories      []string        `json:"categories"`
	Products        []ComparisonRow `json:"products"`
	Total           int             `json:"total"`
	Limit           int             `json:"limit"`
	Offset          int             `json:"offset"`
}

// Comparison builds a price comparison report against one competitor from
// the stored matches. Rows are sorted by savings percent, best first.
func (s *ComparisonService) Comparison(ctx context.Context, competitorStoreID int64, opts ReportOptions) (*ComparisonReport, error) {
	primary, err := s.stores.GetPrimaryStore(ctx)
	if err != nil {
		return nil, err
	}
	competitor, err := s.stores.GetStoreByID(ctx, competitorStoreID)
	if err != nil {
		return nil, err
	}

	stored, err := s.matches.MatchesByCompetitor(ctx, competitor.ID)
	if err != nil {
		return nil, err
	}

	var stats ComparisonStats
	var totalSavings, totalSavingsPercent float64
	var rows []ComparisonRow
	categorySet := make(map[string]bool)

	for _, sm := range stored {
		row, ok := s.buildRow(ctx, sm)
		if !ok {
			continue
		}

		stats.TotalMatched++
		if row.Savings > 0 {
			stats.WeCheaperCount++
		} else if row.Savings < 0 {
			stats.TheyCheaperCount++
		}
		totalSavings += abs(row.Savings)
		totalSavingsPercent += abs(row.SavingsPercent)
		categorySet[row.Category] = true

		if opts.Category != "" && opts.Category != "All" && row.Category != opts.Category {
			continue
		}
		if opts.Search != "" {
			needle := strings.ToLower(opts.Search)
			if !strings.Contains(strings.ToLower(row.PrimaryName), needle) &&
				!strings.Contains(strings.ToLower(row.CompetitorName), needle) {
				continue
			}
		}
		rows = append(rows, row)
	}

	if stats.TotalMatched > 0 {
		stats.WeCheaperPercent = float64(stats.WeCheaperCount) / float64(stats.TotalMatched) * 100
		stats.TheyCheaperPercent = float64(stats.TheyCheaperCount) / float64(stats.TotalMatched) * 100
		stats.AvgSavings = totalSavings / float64(stats.TotalMatched)
		stats.AvgSavingsPercent = totalSavingsPercent / float64(stats.TotalMatched)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].SavingsPercent > rows[j].SavingsPercent
	})

	var categories []string
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	total := len(rows)
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &ComparisonReport{
		PrimaryStore:    *primary,
		CompetitorStore: *competitor,
		Stats:           stats,
		Categories:      categories,
		Products:        rows[offset:end],
		Total:           total,
		Limit:           limit,
		Offset:          offset,
	}, nil
}

// buildRow resolves one stored match against the catalogs; matches whose
// products or prices disappeared since the run are dropped.
func (s *ComparisonService) buildRow(ctx context.Context, sm domain.StoredMatch) (ComparisonRow, bool) {
	primaryProduct, err := s.stores.GetProduct(ctx, sm.Match.PrimaryID)
	if err != nil {
		return ComparisonRow{}, false
	}
	competitorProduct, err := s.stores.GetProduct(ctx, sm.Match.MatchedID)
	if err != nil {
		return ComparisonRow{}, false
	}
	if !primaryProduct.HasPrice() || !competitorProduct.HasPrice() {
		return ComparisonRow{}, false
	}

	ourPrice := *primaryProduct.Price
	theirPrice := *competitorProduct.Price
	savings := theirPrice - ourPrice
	savingsPercent := 0.0
	if theirPrice > 0 {
		savingsPercent = savings / theirPrice * 100
	}

	return ComparisonRow{
		PrimaryProductID:    primaryProduct.ID,
		PrimaryName:         primaryProduct.Name,
		PrimaryBrand:        primaryProduct.Brand,
		CompetitorProductID: competitorProduct.ID,
		CompetitorName:      competitorProduct.Name,
		CompetitorBrand:     competitorProduct.Brand,
		Category:            DisplayCategory(primaryProduct.Name, primaryProduct.Category),
		OurPrice:            ourPrice,
		TheirPrice:          theirPrice,
		OurNormalized:       NormalizePrice(primaryProduct.Name, ourPrice),
		TheirNormalized:     NormalizePrice(competitorProduct.Name, theirPrice),
		Savings:             savings,
		SavingsPercent:      savingsPercent,
		MatchType:           sm.Match.MatchType,
		Confidence:          sm.Match.Confidence,
		SizeSimilarity:      sm.Match.SizeSimilarity,
	}, true
}

// StoreSummary is one row of the store listing.
type StoreSummary struct {
	domain.Store
	TotalProducts   int `json:"totalProducts"`
	MatchedProducts int `json:"matchedProducts"`
}

// ListStores returns every store with product and match counts.
func (s *ComparisonService) ListStores(ctx context.Context) ([]StoreSummary, error) {
	stores, err := s.stores.ListStores(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]StoreSummary, 0, len(stores))
	for _, st := range stores {
		summary := StoreSummary{Store: st}
		if count, err := s.stores.CountProducts(ctx, st.ID); err == nil {
			summary.TotalProducts = count
		}
		if !st.IsPrimary {
			if count, err := s.matches.CountMatches(ctx, st.ID); err == nil {
				summary.MatchedProducts = count
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
