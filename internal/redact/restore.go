package redact

import (
	"errors"
	"fmt"
	"strings"
)

// Hidden is the content a safe view stands in for, one ordered list per
// channel. It is derived from one original document and is only valid for
// restoring edits of that document's safe view; never cache or reuse it
// across revisions.
type Hidden struct {
	Blocks  []string `json:"-"`
	Inline  []string `json:"-"`
	Secrets []string `json:"-"`
}

// Len is the total number of hidden chunks.
func (h Hidden) Len() int {
	return len(h.Blocks) + len(h.Inline) + len(h.Secrets)
}

// Summary describes the channel sizes without revealing content.
func (h Hidden) Summary() string {
	return fmt.Sprintf("%d TLP block(s), %d inline chunk(s), %d secret(s)",
		len(h.Blocks), len(h.Inline), len(h.Secrets))
}

var (
	// ErrTooManyMarkers: the edited view has more placeholders than originals.
	ErrTooManyMarkers = errors.New("more placeholders than hidden originals")
	// ErrTooFewMarkers: the edit dropped placeholders, which would lose content.
	ErrTooFewMarkers = errors.New("fewer placeholders than hidden originals")
)

// ChannelCount pairs placeholders found with originals supplied.
type ChannelCount struct {
	Markers   int `json:"markers"`
	Originals int `json:"originals"`
}

func (c ChannelCount) ok() bool { return c.Markers == c.Originals }

// MismatchError reports per-channel counts when restoration cannot proceed.
// It matches ErrTooManyMarkers and/or ErrTooFewMarkers with errors.Is.
type MismatchError struct {
	Blocks  ChannelCount `json:"blocks"`
	Inline  ChannelCount `json:"inline"`
	Secrets ChannelCount `json:"secrets"`
}

func (e *MismatchError) Error() string {
	var parts []string
	add := func(c ChannelCount, marker, what string) {
		if !c.ok() {
			parts = append(parts, fmt.Sprintf("%d %s for %d %s", c.Markers, marker, c.Originals, what))
		}
	}
	add(e.Blocks, "[REDACTED] line(s)", "TLP block(s)")
	add(e.Inline, "inline [REDACTED]", "inline chunk(s)")
	add(e.Secrets, "[SECRET REDACTED]", "secret(s)")
	return "placeholder count mismatch: " + strings.Join(parts, "; ")
}

// Is matches the too-many / too-few sentinels by channel direction.
func (e *MismatchError) Is(target error) bool {
	chans := []ChannelCount{e.Blocks, e.Inline, e.Secrets}
	for _, c := range chans {
		switch {
		case target == ErrTooManyMarkers && c.Markers > c.Originals:
			return true
		case target == ErrTooFewMarkers && c.Markers < c.Originals:
			return true
		}
	}
	return false
}

// Restore merges an edited safe view with the hidden originals of the
// document it was derived from.
//
// A line whose trimmed content is the block placeholder takes the next
// block. Within other lines, secret placeholders take the next secrets
// left to right, then inline placeholders take the next inline chunks.
// Inserted text is never rescanned for placeholders.
//
// Every placeholder must consume exactly one original and every original
// must be consumed; otherwise a *MismatchError carrying all channel counts
// is returned and no text is produced. Trailing newline presence follows
// edited.
func (e *Engine) Restore(edited string, h Hidden) (string, error) {
	var blocks, inl, secs int
	lines := splitLines(edited)
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.TrimSpace(line) == e.markers.Redacted {
			if blocks < len(h.Blocks) {
				out = append(out, h.Blocks[blocks])
			}
			blocks++
			continue
		}
		line = fill(line, e.markers.Secret, h.Secrets, &secs)
		line = fill(line, e.markers.Redacted, h.Inline, &inl)
		out = append(out, line)
	}

	mm := &MismatchError{
		Blocks:  ChannelCount{Markers: blocks, Originals: len(h.Blocks)},
		Inline:  ChannelCount{Markers: inl, Originals: len(h.Inline)},
		Secrets: ChannelCount{Markers: secs, Originals: len(h.Secrets)},
	}
	if !mm.Blocks.ok() || !mm.Inline.ok() || !mm.Secrets.ok() {
		return "", mm
	}
	return joinLines(out, edited), nil
}

// fill replaces each placeholder in line with the next original, counting
// every placeholder seen even when originals run out.
func fill(line, placeholder string, originals []string, next *int) string {
	if !strings.Contains(line, placeholder) {
		return line
	}
	var b strings.Builder
	rest := line
	for {
		i := strings.Index(rest, placeholder)
		if i < 0 {
			break
		}
		b.WriteString(rest[:i])
		if *next < len(originals) {
			b.WriteString(originals[*next])
		} else {
			b.WriteString(placeholder)
		}
		*next++
		rest = rest[i+len(placeholder):]
	}
	b.WriteString(rest)
	return b.String()
}

// Leaks returns hidden chunks that appear verbatim in a safe view. A
// correct view never contains any.
func (h Hidden) Leaks(view string) []string {
	var leaks []string
	for _, list := range [][]string{h.Blocks, h.Inline, h.Secrets} {
		for _, v := range list {
			if v != "" && strings.Contains(view, v) {
				leaks = append(leaks, v)
			}
		}
	}
	return leaks
}
