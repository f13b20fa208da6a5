package matching

import (
	"fmt"
	"strings"

	"github.com/shelfmatch/backend/internal/domain"
	"github.com/shelfmatch/backend/internal/rules"
)

// Hard-coded critical exclusions. These apply to raw names regardless of
// classification: rule files can be edited, but these pairings corrupt price
// comparisons badly enough to be compiled in.
var (
	bakingSpices   = []string{"cumin", "coriander", "turmeric", "chili", "masala"}
	distinctSpices = []string{"amchur", "anardana", "cumin", "coriander", "turmeric", "chili"}
)

// ForbiddenChecker decides whether a candidate pairing is categorically
// disallowed. Rules are evaluated in a fixed order, short-circuiting on the
// first hit.
type ForbiddenChecker struct {
	rules *rules.Store
}

// NewForbiddenChecker creates a checker over an immutable rule store.
func NewForbiddenChecker(ruleStore *rules.Store) *ForbiddenChecker {
	return &ForbiddenChecker{rules: ruleStore}
}

// Check returns (true, reason) when the pair must never match. Evaluation
// order: exact type:subtype pairs, bare type pairs, pattern rules,
// configured incompatible categories, hard-coded exclusions.
func (f *ForbiddenChecker) Check(nameA, nameB string, classA, classB domain.Classification) (bool, string) {
	if f.rules.HasForbiddenPair(classA.Key(), classB.Key()) {
		return true, fmt.Sprintf("forbidden type combination: %s vs %s", classA.Key(), classB.Key())
	}

	if f.rules.HasForbiddenPair(classA.Type, classB.Type) {
		return true, fmt.Sprintf("forbidden type combination: %s vs %s", classA.Type, classB.Type)
	}

	lowerA := strings.ToLower(nameA)
	lowerB := strings.ToLower(nameB)

	for _, rule := range f.rules.PatternRules() {
		if (rule.A.Applies(lowerA, classA.Type, classA.Subtype) && rule.B.Applies(lowerB, classB.Type, classB.Subtype)) ||
			(rule.A.Applies(lowerB, classB.Type, classB.Subtype) && rule.B.Applies(lowerA, classA.Type, classA.Subtype)) {
			return true, fmt.Sprintf("matches forbidden pattern: %s vs %s", rule.A.Raw, rule.B.Raw)
		}
	}

	for _, pair := range f.rules.IncompatibleCategories() {
		catA, catB := pair[0], pair[1]
		if (classA.Key() == catA && classB.Key() == catB) ||
			(classA.Key() == catB && classB.Key() == catA) ||
			(classA.Type == catA && classB.Type == catB) ||
			(classA.Type == catB && classB.Type == catA) {
			return true, fmt.Sprintf("incompatible categories: %s vs %s", catA, catB)
		}
	}

	return f.checkCriticalExclusions(lowerA, lowerB)
}

// checkCriticalExclusions applies the compiled-in cross-domain rules on
// lowercased raw names.
func (f *ForbiddenChecker) checkCriticalExclusions(lowerA, lowerB string) (bool, string) {
	// Baking agents never match named spices.
	if (strings.Contains(lowerA, "baking powder") && containsAny(lowerB, bakingSpices)) ||
		(strings.Contains(lowerB, "baking powder") && containsAny(lowerA, bakingSpices)) {
		return true, "baking powder cannot match with spices"
	}

	// Two different named spices never match each other.
	spiceA := firstContained(lowerA, distinctSpices)
	spiceB := firstContained(lowerB, distinctSpices)
	if spiceA != "" && spiceB != "" && spiceA != spiceB {
		return true, fmt.Sprintf("different spices: %s vs %s", spiceA, spiceB)
	}

	// Coconut products never match curry products.
	if (strings.Contains(lowerA, "coconut") && strings.Contains(lowerB, "curry")) ||
		(strings.Contains(lowerA, "curry") && strings.Contains(lowerB, "coconut")) {
		return true, "coconut products cannot match with curry products"
	}

	return false, ""
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstContained(s string, substrings []string) string {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return sub
		}
	}
	return ""
}
