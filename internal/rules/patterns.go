package rules

import "strings"

// PatternKind distinguishes the three forms a forbidden pattern token can
// take: "type:subtype" category tokens, "opt1|opt2" alternations, and plain
// keywords.
type PatternKind int

const (
	KindCategory PatternKind = iota
	KindAlternation
	KindKeyword
)

// Pattern is one parsed side of a forbidden pattern rule. Tokens are parsed
// once at load time so lookups never re-split raw strings.
type Pattern struct {
	Kind    PatternKind
	Type    string   // KindCategory
	Subtype string   // KindCategory
	Options []string // KindAlternation
	Keyword string   // KindKeyword
	Raw     string
}

// PatternRule forbids matching two products when both sides apply, in either
// orientation.
type PatternRule struct {
	A Pattern
	B Pattern
}

// parsePattern classifies a raw pattern token. Category form wins over
// alternation, mirroring rule-file conventions. Malformed tokens (e.g. a
// category token with too many colons) fall back to keyword form so they can
// never make pattern evaluation fail.
func parsePattern(raw string) Pattern {
	token := strings.ToLower(strings.TrimSpace(raw))

	if strings.Contains(token, ":") {
		parts := strings.Split(token, ":")
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return Pattern{Kind: KindCategory, Type: parts[0], Subtype: parts[1], Raw: raw}
		}
		return Pattern{Kind: KindKeyword, Keyword: token, Raw: raw}
	}

	if strings.Contains(token, "|") {
		var options []string
		for _, opt := range strings.Split(token, "|") {
			opt = strings.TrimSpace(opt)
			if opt != "" {
				options = append(options, opt)
			}
		}
		if len(options) > 0 {
			return Pattern{Kind: KindAlternation, Options: options, Raw: raw}
		}
		return Pattern{Kind: KindKeyword, Keyword: token, Raw: raw}
	}

	return Pattern{Kind: KindKeyword, Keyword: token, Raw: raw}
}

// isPatternToken reports whether a raw pair entry needs pattern evaluation
// rather than a set lookup.
func isPatternToken(raw string) bool {
	return strings.ContainsAny(raw, ":|")
}

// Applies reports whether the pattern matches one product, given its
// lowercased name and its classification.
func (p Pattern) Applies(nameLower, ctype, csubtype string) bool {
	switch p.Kind {
	case KindCategory:
		return p.Type == ctype && p.Subtype == csubtype
	case KindAlternation:
		for _, opt := range p.Options {
			if strings.Contains(nameLower, opt) {
				return true
			}
		}
		return false
	default:
		return p.Keyword != "" && strings.Contains(nameLower, p.Keyword)
	}
}
