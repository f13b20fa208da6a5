package matching

import (
	"strings"

	"github.com/shelfmatch/backend/internal/domain"
	"github.com/shelfmatch/backend/internal/rules"
)

// Classifier maps a free-text product name to a (type, subtype) pair using
// the rule store's taxonomy. Pure and deterministic: same rules + same name
// always yield the same classification.
type Classifier struct {
	rules *rules.Store
}

// NewClassifier creates a classifier over an immutable rule store.
func NewClassifier(ruleStore *rules.Store) *Classifier {
	return &Classifier{rules: ruleStore}
}

// Classify returns the most specific matching category for a name, falling
// back to ("other", "generic"). Synonyms are rewritten to their canonical
// term first; a category's priority is its keyword count, so categories with
// more keywords outrank broader ones. Taxonomy declaration order breaks ties.
func (c *Classifier) Classify(name string) domain.Classification {
	nameLower := strings.ToLower(name)

	for _, group := range c.rules.Synonyms() {
		canonical := strings.ToLower(group.Canonical)
		for _, term := range group.Terms {
			termLower := strings.ToLower(term)
			if termLower != "" && strings.Contains(nameLower, termLower) {
				nameLower = strings.ReplaceAll(nameLower, termLower, canonical)
			}
		}
	}

	best := domain.Classification{Type: "other", Subtype: "generic"}
	bestPriority := -1

	for _, category := range c.rules.Categories() {
		priority := len(category.Keywords)
		if priority <= bestPriority {
			continue
		}
		for _, keyword := range category.Keywords {
			if strings.Contains(nameLower, strings.ToLower(keyword)) {
				subtype := category.Subtype
				if subtype == "" {
					subtype = "generic"
				}
				best = domain.Classification{Type: category.Type, Subtype: subtype}
				bestPriority = priority
				break
			}
		}
	}

	return best
}
