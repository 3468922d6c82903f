package redact

import "strings"

// RedactSecrets replaces every secret token match with the secret
// placeholder, line by line. Reports whether anything was replaced.
func (e *Engine) RedactSecrets(text string) (string, bool) {
	if e.secrets == nil {
		return text, false
	}
	found := false
	lines := splitLines(text)
	for i, line := range lines {
		locs := e.secrets.FindAllStringIndex(line, -1)
		if len(locs) == 0 {
			continue
		}
		found = true
		var b strings.Builder
		prev := 0
		for _, loc := range locs {
			b.WriteString(line[prev:loc[0]])
			b.WriteString(e.markers.Secret)
			prev = loc[1]
		}
		b.WriteString(line[prev:])
		lines[i] = b.String()
	}
	if !found {
		return text, false
	}
	return joinLines(lines, text), true
}

// ExtractSecrets returns every secret token match in document order. Run it
// on section-redacted text, the same stage RedactSecrets sees in SafeView.
func (e *Engine) ExtractSecrets(text string) []string {
	if e.secrets == nil {
		return nil
	}
	var out []string
	for _, line := range splitLines(text) {
		out = append(out, e.secrets.FindAllString(line, -1)...)
	}
	return out
}
