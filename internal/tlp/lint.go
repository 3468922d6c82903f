package tlp

import (
	"fmt"
	"strings"
)

// Diagnostic is a problem found in a policy document. Diagnostics never
// change classification; the parser skips whatever it cannot use.
type Diagnostic struct {
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %q", d.Line, d.Message, d.Text)
}

// Lint reports lines the parser skips or rules that can never take effect.
func Lint(text string) []Diagnostic {
	var diags []Diagnostic
	haveLevel := false
	catchAll := 0

	for i, line := range strings.Split(text, "\n") {
		n := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if _, ok := parseLevelHeader(trimmed); ok {
			haveLevel = true
			continue
		}
		if _, ok := ParseLevel(strings.TrimSuffix(trimmed, ":")); ok && strings.HasSuffix(trimmed, ":") {
			diags = append(diags, Diagnostic{Line: n, Text: trimmed, Message: "level headers must be upper-case"})
			continue
		}

		pattern, ok := parsePatternLine(trimmed)
		if !ok {
			diags = append(diags, Diagnostic{Line: n, Text: trimmed, Message: "unrecognized line (expected LEVEL: or a quoted pattern)"})
			continue
		}
		if !haveLevel {
			diags = append(diags, Diagnostic{Line: n, Text: trimmed, Message: "pattern before any level header is ignored"})
			continue
		}
		if catchAll > 0 {
			diags = append(diags, Diagnostic{Line: n, Text: trimmed, Message: fmt.Sprintf("unreachable: catch-all \"**\" on line %d matches first", catchAll)})
			continue
		}
		if msg := checkPattern(pattern); msg != "" {
			diags = append(diags, Diagnostic{Line: n, Text: trimmed, Message: msg})
		}
		if pattern == "**" {
			catchAll = n
		}
	}
	return diags
}

// checkPattern flags patterns whose wildcards MatchPattern treats literally.
func checkPattern(pattern string) string {
	switch {
	case pattern == "":
		return "empty pattern matches nothing"
	case pattern == "**":
		return ""
	case strings.HasPrefix(pattern, "*") && !strings.Contains(pattern, "/"):
		if strings.Contains(pattern[1:], "*") {
			return "only a leading '*' is supported in extension patterns"
		}
		return ""
	case strings.HasSuffix(pattern, "/**"):
		if strings.Contains(strings.TrimSuffix(pattern, "/**"), "*") {
			return "wildcards inside a directory prefix are matched literally"
		}
		return ""
	case strings.Contains(pattern, "*"):
		return "unsupported glob shape, matched as an exact path"
	}
	return ""
}
