package redact

import "strings"

type sectionKind int

const (
	visible sectionKind = iota
	block
	inline
)

// section is one unit of a scanned document: a visible line, a hidden block
// (one or more original lines collapsed to one placeholder line), or a line
// carrying inline spans.
type section struct {
	kind  sectionKind
	lines []string // original lines; exactly one unless kind == block
	spans []span   // inline only
	view  string   // redacted rendering of an inline line
}

// span is a hidden inline range [start, end) of a line.
type span struct {
	start, end int
}

type sections []section

// scan walks the document once with two states, scanning and in-block.
// Redaction and extraction both render from its output, which keeps the
// placeholder sequence and the hidden-chunk channels aligned.
func (e *Engine) scan(text string) sections {
	var out sections
	var open []string
	inBlock := false

	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)

		if inBlock {
			open = append(open, line)
			if e.markers.isBoundary(trimmed) {
				out = append(out, section{kind: block, lines: open})
				open, inBlock = nil, false
			}
			continue
		}

		if trimmed == e.markers.Begin {
			open, inBlock = []string{line}, true
			continue
		}

		spans := e.inlineSpans(line)
		if len(spans) == 0 {
			out = append(out, section{kind: visible, lines: []string{line}})
			continue
		}

		view := e.renderInline(line, spans)
		kind := inline
		// A line that redacts to nothing but the placeholder is
		// indistinguishable from a collapsed block in the safe view, so
		// it is carried in the block channel.
		if strings.TrimSpace(view) == e.markers.Redacted {
			kind = block
		}
		out = append(out, section{kind: kind, lines: []string{line}, spans: spans, view: view})
	}

	if inBlock {
		out = append(out, section{kind: block, lines: open})
	}
	return out
}

// inlineSpans finds the hidden ranges of a line, left to right. Each span
// runs from the begin tag through the nearest following boundary tag on
// the same line, or to end of line.
func (e *Engine) inlineSpans(line string) []span {
	begin := e.markers.Begin
	var spans []span
	pos := 0
	for {
		i := strings.Index(line[pos:], begin)
		if i < 0 {
			return spans
		}
		start := pos + i
		after := start + len(begin)

		end := len(line)
		nearest := -1
		for _, tag := range e.markers.Boundaries {
			j := strings.Index(line[after:], tag)
			if j >= 0 && (nearest < 0 || j < nearest) {
				nearest = j
				end = after + j + len(tag)
			}
		}

		spans = append(spans, span{start: start, end: end})
		if end == len(line) {
			return spans
		}
		pos = end
	}
}

func (e *Engine) renderInline(line string, spans []span) string {
	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(line[prev:s.start])
		b.WriteString(e.markers.Redacted)
		prev = s.end
	}
	b.WriteString(line[prev:])
	return b.String()
}

// render produces the section-redacted document.
func (secs sections) render(placeholder, like string) string {
	lines := make([]string, 0, len(secs))
	for _, s := range secs {
		switch {
		case s.kind == visible:
			lines = append(lines, s.lines[0])
		case s.view != "":
			lines = append(lines, s.view)
		default:
			lines = append(lines, placeholder)
		}
	}
	return joinLines(lines, like)
}

func (secs sections) blocks() []string {
	var out []string
	for _, s := range secs {
		if s.kind == block {
			out = append(out, strings.Join(s.lines, "\n"))
		}
	}
	return out
}

func (secs sections) inline() []string {
	var out []string
	for _, s := range secs {
		if s.kind != inline {
			continue
		}
		line := s.lines[0]
		for _, sp := range s.spans {
			out = append(out, line[sp.start:sp.end])
		}
	}
	return out
}

// RedactSections replaces every TLP:RED block with a single placeholder line
// and every inline TLP:RED span with an inline placeholder. Trailing newline
// presence is preserved.
func (e *Engine) RedactSections(text string) string {
	return e.scan(text).render(e.markers.Redacted, text)
}

// ExtractBlocks returns, in document order, the original text of each hidden
// block including its tag lines, exactly as RedactSections collapses it.
func (e *Engine) ExtractBlocks(text string) []string {
	return e.scan(text).blocks()
}

// ExtractInline returns, in document order, each inline span outside hidden
// blocks, tags included.
func (e *Engine) ExtractInline(text string) []string {
	return e.scan(text).inline()
}
