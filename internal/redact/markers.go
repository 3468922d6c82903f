package redact

import (
	"errors"
	"slices"
	"strings"
)

// Placeholders written into safe views in place of hidden content.
const (
	RedactedMarker = "[REDACTED]"
	SecretMarker   = "[SECRET REDACTED]"
)

// Markers is the static tag and placeholder table an Engine works with.
type Markers struct {
	// Begin opens a hidden region: on a line of its own it starts a block,
	// mid-line it starts an inline span.
	Begin string
	// Boundaries close a hidden region. Begin is never a boundary.
	Boundaries []string
	// Redacted replaces a hidden block or inline span.
	Redacted string
	// Secret replaces a matched secret token.
	Secret string
}

// DefaultMarkers is the TLP tag set used in vault documents.
var DefaultMarkers = Markers{
	Begin:      "#tlp/red",
	Boundaries: []string{"#tlp/amber", "#tlp/green", "#tlp/clear"},
	Redacted:   RedactedMarker,
	Secret:     SecretMarker,
}

func (m Markers) validate() error {
	switch {
	case m.Begin == "":
		return errors.New("markers: begin tag is empty")
	case len(m.Boundaries) == 0:
		return errors.New("markers: no boundary tags")
	case slices.Contains(m.Boundaries, ""):
		return errors.New("markers: empty boundary tag")
	case slices.Contains(m.Boundaries, m.Begin):
		return errors.New("markers: begin tag cannot be a boundary")
	case m.Redacted == "" || m.Secret == "":
		return errors.New("markers: empty placeholder")
	case strings.Contains(m.Redacted, m.Secret) || strings.Contains(m.Secret, m.Redacted):
		return errors.New("markers: placeholders must not contain each other")
	}
	return nil
}

// isBoundary reports whether a trimmed line is a boundary tag.
func (m Markers) isBoundary(trimmed string) bool {
	return slices.Contains(m.Boundaries, trimmed)
}

// ContainsMarker reports whether s contains either placeholder. Text that
// does cannot be written back without making restoration ambiguous.
func (m Markers) ContainsMarker(s string) bool {
	return strings.Contains(s, m.Redacted) || strings.Contains(s, m.Secret)
}
