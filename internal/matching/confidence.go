package matching

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shelfmatch/backend/internal/domain"
	"github.com/shelfmatch/backend/internal/rules"
)

// Confidence pipeline thresholds. Step order matters: each step acts on the
// output of the previous one, and the closing clamp is authoritative.
const (
	earlyRejectThreshold = 0.3

	defaultTypePenalty    = 0.5
	strictSubtypePenalty  = 0.3
	defaultSubtypePenalty = 0.7
	exactCategoryBonus    = 0.15

	sizeHardPenaltyBelow = 0.5
	sizeSoftPenaltyBelow = 0.75
	sizeBonusAbove       = 0.95
	sizeHardPenalty      = 0.5
	sizeSoftPenalty      = 0.8
	sizeBonus            = 0.05

	priceHardRatio   = 10.0
	priceSoftRatio   = 5.0
	priceHardPenalty = 0.6
	priceSoftPenalty = 0.8

	borderlineLow         = 0.6
	borderlineHigh        = 0.75
	manyWarningsPenalty   = 0.8
	weakOverlapPenalty    = 0.7
	minMeaningfulOverlap  = 2
	borderlineMaxWarnings = 2
)

// unitTokens are excluded from the borderline raw-name overlap check so a
// shared "kg" never counts as meaningful agreement.
var unitTokens = map[string]bool{
	"g": true, "kg": true, "ml": true, "l": true, "oz": true, "lb": true,
}

// Engine is the product matching engine: classification, forbidden checks,
// hybrid similarity and the confidence pipeline behind one façade. Once
// constructed it is a pure function of its immutable rule store plus the two
// input records, so concurrent evaluation needs no locking.
type Engine struct {
	rules      *rules.Store
	classifier *Classifier
	forbidden  *ForbiddenChecker
	scorer     *SimilarityScorer
}

// NewEngine wires the matching engine over a rule store and an embedder.
func NewEngine(ruleStore *rules.Store, embedder domain.Embedder) *Engine {
	return &Engine{
		rules:      ruleStore,
		classifier: NewClassifier(ruleStore),
		forbidden:  NewForbiddenChecker(ruleStore),
		scorer:     NewSimilarityScorer(ruleStore, embedder),
	}
}

// Classify exposes the engine's category classifier.
func (e *Engine) Classify(name string) domain.Classification {
	return e.classifier.Classify(name)
}

// Confidence scores how safely candidate can be treated as primary's
// counterpart. Business outcomes — forbidden pairs, too-dissimilar names —
// come back as score 0 with a warning, never as an error; the error return
// is reserved for invalid input records and embedding failures.
func (e *Engine) Confidence(ctx context.Context, primary, candidate *domain.ProductRecord) (float64, []string, error) {
	if err := primary.Validate(); err != nil {
		return 0, nil, err
	}
	if err := candidate.Validate(); err != nil {
		return 0, nil, err
	}

	var warnings []string

	classP := e.classifier.Classify(primary.Name)
	classC := e.classifier.Classify(candidate.Name)

	if forbidden, reason := e.forbidden.Check(primary.Name, candidate.Name, classP, classC); forbidden {
		return 0, append(warnings, reason), nil
	}

	score, err := e.scorer.Score(ctx, primary.Name, candidate.Name)
	if err != nil {
		return 0, nil, err
	}
	if score < earlyRejectThreshold {
		warnings = append(warnings, fmt.Sprintf("very low name similarity: %.2f", score))
		return 0, warnings, nil
	}

	score, warnings = e.applyCategoryPenalty(score, warnings, classP, classC)

	sizeP := ExtractSize(primary.Name)
	sizeC := ExtractSize(candidate.Name)
	sizeSim := SizeSimilarity(sizeP, sizeC)
	switch {
	case sizeSim < sizeHardPenaltyBelow:
		score *= sizeHardPenalty
		warnings = append(warnings, fmt.Sprintf("significant size mismatch: %s vs %s", formatSize(sizeP), formatSize(sizeC)))
	case sizeSim < sizeSoftPenaltyBelow:
		score *= sizeSoftPenalty
		warnings = append(warnings, fmt.Sprintf("size difference: %s vs %s", formatSize(sizeP), formatSize(sizeC)))
	case sizeSim > sizeBonusAbove:
		score = math.Min(score+sizeBonus, 1.0)
	}

	if primary.HasPrice() && candidate.HasPrice() {
		ratio := *primary.Price / *candidate.Price
		if ratio < 1 {
			ratio = 1 / ratio
		}
		if ratio > priceHardRatio {
			score *= priceHardPenalty
			warnings = append(warnings, fmt.Sprintf("large price difference: %.1fx", ratio))
		} else if ratio > priceSoftRatio {
			score *= priceSoftPenalty
			warnings = append(warnings, fmt.Sprintf("price difference: %.1fx", ratio))
		}
	}

	if score > borderlineLow && score < borderlineHigh {
		if len(warnings) > borderlineMaxWarnings {
			score *= manyWarningsPenalty
		}
		if meaningfulOverlap(primary.Name, candidate.Name) < minMeaningfulOverlap {
			score *= weakOverlapPenalty
			warnings = append(warnings, "insufficient common meaningful words")
		}
	}

	return clamp01(score), warnings, nil
}

// applyCategoryPenalty handles step 4 of the pipeline: type mismatch,
// subtype mismatch (strict or not) or exact-category bonus.
func (e *Engine) applyCategoryPenalty(score float64, warnings []string, classP, classC domain.Classification) (float64, []string) {
	if classP.Type != classC.Type {
		penaltyKey := fmt.Sprintf("different_%s_vs_%s", classP.Type, classC.Type)
		if mult, ok := e.rules.PenaltyMultiplier(penaltyKey); ok {
			score *= mult
		} else {
			score *= defaultTypePenalty
		}
		warnings = append(warnings, fmt.Sprintf("type mismatch: %s vs %s", classP.Type, classC.Type))
		return score, warnings
	}

	if classP.Subtype != classC.Subtype {
		if e.rules.IsStrict(classP.Key()) || e.rules.IsStrict(classC.Key()) {
			score *= strictSubtypePenalty
			warnings = append(warnings, fmt.Sprintf("strict subtype mismatch: %s vs %s", classP.Subtype, classC.Subtype))
		} else {
			score *= defaultSubtypePenalty
			warnings = append(warnings, fmt.Sprintf("subtype mismatch: %s vs %s", classP.Subtype, classC.Subtype))
		}
		return score, warnings
	}

	return math.Min(score+exactCategoryBonus, 1.0), warnings
}

// meaningfulOverlap counts raw-name words shared by both products,
// excluding bare unit tokens.
func meaningfulOverlap(nameA, nameB string) int {
	wordsA := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(nameA)) {
		if !unitTokens[w] {
			wordsA[w] = true
		}
	}
	count := 0
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(nameB)) {
		if wordsA[w] && !seen[w] && !unitTokens[w] {
			count++
			seen[w] = true
		}
	}
	return count
}

func formatSize(s domain.SizeInfo) string {
	if !s.Detected() {
		return "unknown"
	}
	return fmt.Sprintf("%g%s", s.Value, s.Unit)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0.0), 1.0)
}
