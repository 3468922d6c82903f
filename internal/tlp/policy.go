package tlp

import (
	"strings"
	"unicode"
)

// Rule is a single (level, pattern) entry parsed from a policy document.
type Rule struct {
	Level   Level  `json:"level"`
	Pattern string `json:"pattern"`
	Line    int    `json:"line"`
}

// Policy is the ordered rule list of a vault's .tlp file.
// Order is significant: the first matching rule wins.
type Policy struct {
	Rules []Rule `json:"rules"`
}

// ParsePolicy parses a .tlp document. It never fails: lines that are not
// blank, comments, level headers or quoted patterns are skipped, and
// patterns that appear before any level header are ignored.
func ParsePolicy(text string) *Policy {
	p := &Policy{}
	var current Level
	haveLevel := false

	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if lvl, ok := parseLevelHeader(trimmed); ok {
			current = lvl
			haveLevel = true
			continue
		}
		pattern, ok := parsePatternLine(trimmed)
		if !ok || !haveLevel {
			continue
		}
		p.Rules = append(p.Rules, Rule{Level: current, Pattern: pattern, Line: i + 1})
	}
	return p
}

// Classify returns the level of the first rule matching path, or Default.
func (p *Policy) Classify(path string) Level {
	if r, ok := p.Match(path); ok {
		return r.Level
	}
	return Default
}

// Match returns the first rule matching path.
func (p *Policy) Match(path string) (Rule, bool) {
	if p == nil {
		return Rule{}, false
	}
	for _, r := range p.Rules {
		if MatchPattern(path, r.Pattern) {
			return r, true
		}
	}
	return Rule{}, false
}

// Classify parses policyText and classifies a vault-relative path.
func Classify(path, policyText string) Level {
	return ParsePolicy(policyText).Classify(path)
}

func parseLevelHeader(line string) (Level, bool) {
	switch line {
	case "RED:":
		return Red, true
	case "AMBER:":
		return Amber, true
	case "GREEN:":
		return Green, true
	case "CLEAR:":
		return Clear, true
	default:
		return Clear, false
	}
}

// parsePatternLine accepts `"pattern"` with an optional leading list bullet.
func parsePatternLine(line string) (string, bool) {
	stripped := strings.TrimLeftFunc(line, func(r rune) bool {
		return r == '-' || unicode.IsSpace(r)
	})
	if len(stripped) < 2 || !strings.HasPrefix(stripped, `"`) || !strings.HasSuffix(stripped, `"`) {
		return "", false
	}
	return stripped[1 : len(stripped)-1], true
}
