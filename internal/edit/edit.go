// Package edit applies agent edits to vault documents without exposing or
// losing hidden content.
//
// Edits and inserts locate their target in the safe view, apply the change
// there and restore the hidden content into the result. Text inside hidden
// sections can be neither matched nor counted. Whole-file writes go through
// restoration directly.
package edit

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/contexttlp/internal/redact"
)

var (
	// ErrMarkerInjection is returned when caller-supplied text contains a
	// placeholder that would be written to disk literally or target
	// hidden content.
	ErrMarkerInjection = errors.New("text contains redaction markers")
	// ErrNotFound is returned when the edit target does not occur.
	ErrNotFound = errors.New("not found")
	// ErrEmptyContent is returned for a whole-file write with no content.
	ErrEmptyContent = errors.New("refusing to write empty content")
	// ErrHiddenChanged is returned when an edit of the safe view would
	// move, merge or drop hidden content once restored.
	ErrHiddenChanged = errors.New("edit would change hidden content")
)

// AmbiguousError reports a target that occurs more than once.
type AmbiguousError struct {
	What  string
	Count int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s found %d times, must be unique", e.What, e.Count)
}

// UnescapeShell undoes the "\!" escaping some shells apply to '!' even
// inside single quotes.
func UnescapeShell(s string) string {
	return strings.ReplaceAll(s, `\!`, "!")
}

// Replace substitutes the single occurrence of old in content with new.
func Replace(e *redact.Engine, content, old, new string) (string, error) {
	if old == "" {
		return "", errors.New("old string is empty")
	}
	if e.ContainsMarker(old) {
		return "", fmt.Errorf("old string: %w, cannot edit hidden content", ErrMarkerInjection)
	}
	if e.ContainsMarker(new) {
		return "", fmt.Errorf("new string: %w, placeholders cannot be written as text", ErrMarkerInjection)
	}
	return throughView(e, content, func(view string) (string, error) {
		switch n := strings.Count(view, old); n {
		case 0:
			return "", fmt.Errorf("old string %w", ErrNotFound)
		case 1:
			return strings.Replace(view, old, new, 1), nil
		default:
			return "", &AmbiguousError{What: "old string", Count: n}
		}
	})
}

// throughView applies fn to the safe view of content and restores the
// hidden content of content into the result. The edit is refused unless the
// result holds exactly the hidden sections content held. Secrets are not
// compared: new visible text may carry a token of its own.
func throughView(e *redact.Engine, content string, fn func(view string) (string, error)) (string, error) {
	h := e.Extract(content)
	if h.Len() == 0 {
		return fn(content)
	}
	view, _ := e.SafeView(content)
	edited, err := fn(view)
	if err != nil {
		return "", err
	}
	out, err := e.Restore(edited, h)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHiddenChanged, err)
	}
	if !sameHidden(e.Extract(out), h) {
		return "", ErrHiddenChanged
	}
	return out, nil
}

func sameHidden(a, b redact.Hidden) bool {
	return slices.Equal(a.Blocks, b.Blocks) && slices.Equal(a.Inline, b.Inline)
}

// Position says where Insert puts text relative to the anchor line.
type Position int

const (
	Before Position = iota
	After
)

func (p Position) String() string {
	if p == Before {
		return "before"
	}
	return "after"
}

// Insert adds text as new line(s) before or after the one visible line
// whose trimmed content equals the trimmed anchor. Trailing newline
// presence is preserved.
func Insert(e *redact.Engine, content, anchor, text string, pos Position) (string, error) {
	if e.ContainsMarker(text) {
		return "", fmt.Errorf("content: %w, cannot insert hidden content", ErrMarkerInjection)
	}
	want := strings.TrimSpace(anchor)
	if want == "" {
		return "", errors.New("marker is empty")
	}
	return throughView(e, content, func(view string) (string, error) {
		return insertLine(view, want, text, pos)
	})
}

func insertLine(content, want, text string, pos Position) (string, error) {
	lines := strings.Split(content, "\n")
	trailing := len(lines) > 1 && lines[len(lines)-1] == ""
	if trailing || content == "" {
		lines = lines[:len(lines)-1]
	}

	idx, count := -1, 0
	for i, line := range lines {
		if strings.TrimSpace(line) == want {
			idx = i
			count++
		}
	}
	switch {
	case count == 0:
		return "", fmt.Errorf("marker %w", ErrNotFound)
	case count > 1:
		return "", &AmbiguousError{What: "marker", Count: count}
	}

	at := idx
	if pos == After {
		at = idx + 1
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, text)
	out = append(out, lines[at:]...)

	result := strings.Join(out, "\n")
	if trailing {
		result += "\n"
	}
	return result, nil
}

// Merge is the outcome of planning a whole-file write.
type Merge struct {
	Content string
	// Hidden is what was restored; zero for new files and files without
	// hidden content.
	Hidden redact.Hidden
}

// PlanWrite merges new content, written against the safe view of original,
// back into a full document. exists is false when there is no original file.
func PlanWrite(e *redact.Engine, original string, exists bool, content string) (Merge, error) {
	if content == "" {
		return Merge{}, ErrEmptyContent
	}
	if !exists {
		return Merge{Content: content}, nil
	}

	h := e.Extract(original)
	if h.Len() == 0 {
		if e.ContainsMarker(content) {
			return Merge{}, fmt.Errorf("new content: %w but the original has no hidden content to restore", ErrMarkerInjection)
		}
		return Merge{Content: content}, nil
	}

	merged, err := e.Restore(content, h)
	if err != nil {
		return Merge{}, fmt.Errorf("restoration failed: %w", err)
	}
	return Merge{Content: merged, Hidden: h}, nil
}
