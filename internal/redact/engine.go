package redact

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// Engine hides TLP:RED sections and secret tokens from document text and
// puts them back. An Engine is immutable after construction and safe for
// concurrent use; it holds no per-document state.
type Engine struct {
	markers Markers
	secrets *regexp.Regexp
	names   []string
}

// New builds an engine from a marker table and secret patterns.
func New(m Markers, patterns []SecretPattern) (*Engine, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	re, err := compileSecrets(patterns, m)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.Name
	}
	return &Engine{
		markers: Markers{
			Begin:      m.Begin,
			Boundaries: slices.Clone(m.Boundaries),
			Redacted:   m.Redacted,
			Secret:     m.Secret,
		},
		secrets: re,
		names:   names,
	}, nil
}

var defaultEngine = sync.OnceValue(func() *Engine {
	e, err := New(DefaultMarkers, BuiltinSecretPatterns)
	if err != nil {
		panic(fmt.Sprintf("redact: builtin tables invalid: %v", err))
	}
	return e
})

// Default returns the engine for DefaultMarkers and BuiltinSecretPatterns.
func Default() *Engine {
	return defaultEngine()
}

// Markers returns the engine's marker table.
func (e *Engine) Markers() Markers {
	m := e.markers
	m.Boundaries = slices.Clone(m.Boundaries)
	return m
}

// SecretPatternNames lists the active secret patterns in match priority order.
func (e *Engine) SecretPatternNames() []string {
	return slices.Clone(e.names)
}

// ContainsMarker reports whether s contains a placeholder.
func (e *Engine) ContainsMarker(s string) bool {
	return e.markers.ContainsMarker(s)
}

// SafeView runs the full pipeline: section redaction, then secret redaction
// on the result. Secrets inside hidden sections are therefore never matched.
func (e *Engine) SafeView(text string) (string, bool) {
	return e.RedactSecrets(e.RedactSections(text))
}

// Extract captures the hidden content of an original document in the order
// SafeView hides it. The result belongs to one read-edit-write transaction
// against this exact original.
func (e *Engine) Extract(original string) Hidden {
	secs := e.scan(original)
	return Hidden{
		Blocks:  secs.blocks(),
		Inline:  secs.inline(),
		Secrets: e.ExtractSecrets(secs.render(e.markers.Redacted, original)),
	}
}

// splitLines splits on '\n' and drops the empty element after a final
// newline. Carriage returns stay part of the line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// joinLines is the inverse of splitLines for a document whose trailing
// newline state is taken from like.
func joinLines(lines []string, like string) string {
	out := strings.Join(lines, "\n")
	if strings.HasSuffix(like, "\n") {
		out += "\n"
	}
	return out
}
