// Package diffview renders line diffs between two safe views. Callers must
// only pass redacted text: the output is shown to the agent.
package diffview

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

// Format selects the rendering.
type Format int

const (
	// Unified is a standard unified diff with ---/+++ headers and @@ hunks.
	Unified Format = iota
	// Human prefixes each line with its line number instead of hunk headers.
	Human
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// Options control Render.
type Options struct {
	Format  Format
	Context int
	Color   bool
	// Name labels the file in headers.
	Name string
}

const (
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiCyan  = "\x1b[36m"
	ansiReset = "\x1b[0m"
)

// ColorEnabled reports whether f is a terminal and NO_COLOR is unset.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Render returns the diff from before to after, or "" when the two have the
// same lines.
func Render(before, after string, opts Options) (string, error) {
	if before == after {
		return "", nil
	}
	a, b := splitLines(before), splitLines(after)
	ctx := opts.Context
	if ctx <= 0 {
		ctx = DefaultContext
	}

	groups := difflib.NewMatcher(a, b).GetGroupedOpCodes(ctx)
	if !hasChanges(groups) {
		return "", nil
	}

	var out string
	var err error
	switch opts.Format {
	case Human:
		out = renderHuman(a, b, groups, opts.Name)
	default:
		out, err = renderUnified(a, b, groups, opts.Name)
	}
	if err != nil {
		return "", err
	}
	if opts.Color {
		out = colorize(out)
	}
	return out, nil
}

func hasChanges(groups [][]difflib.OpCode) bool {
	for _, g := range groups {
		for _, op := range g {
			if op.Tag != 'e' {
				return true
			}
		}
	}
	return false
}

func renderUnified(a, b []string, groups [][]difflib.OpCode, name string) (string, error) {
	fd := &diff.FileDiff{OrigName: "a/" + name, NewName: "b/" + name}
	for _, g := range groups {
		first, last := g[0], g[len(g)-1]
		h := &diff.Hunk{
			OrigStartLine: startLine(first.I1, last.I2),
			OrigLines:     int32(last.I2 - first.I1),
			NewStartLine:  startLine(first.J1, last.J2),
			NewLines:      int32(last.J2 - first.J1),
		}
		var body bytes.Buffer
		for _, op := range g {
			if op.Tag == 'e' {
				writeLines(&body, " ", a[op.I1:op.I2])
				continue
			}
			if op.Tag == 'r' || op.Tag == 'd' {
				writeLines(&body, "-", a[op.I1:op.I2])
			}
			if op.Tag == 'r' || op.Tag == 'i' {
				writeLines(&body, "+", b[op.J1:op.J2])
			}
		}
		h.Body = body.Bytes()
		fd.Hunks = append(fd.Hunks, h)
	}

	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("print diff: %w", err)
	}
	return string(out), nil
}

// startLine follows the unified convention: an empty range starts at the
// line before it.
func startLine(lo, hi int) int32 {
	if hi == lo {
		return int32(lo)
	}
	return int32(lo + 1)
}

func writeLines(w *bytes.Buffer, prefix string, lines []string) {
	for _, l := range lines {
		w.WriteString(prefix)
		w.WriteString(l)
		w.WriteByte('\n')
	}
}

func renderHuman(a, b []string, groups [][]difflib.OpCode, name string) string {
	var sb strings.Builder
	if name != "" {
		fmt.Fprintf(&sb, "%s\n", name)
	}
	for gi, g := range groups {
		if gi > 0 {
			sb.WriteString("  ...\n")
		}
		for _, op := range g {
			if op.Tag == 'e' {
				for i := op.I1; i < op.I2; i++ {
					fmt.Fprintf(&sb, "  :%d  %s\n", i+1, a[i])
				}
				continue
			}
			if op.Tag == 'r' || op.Tag == 'd' {
				for i := op.I1; i < op.I2; i++ {
					fmt.Fprintf(&sb, "- :%d  %s\n", i+1, a[i])
				}
			}
			if op.Tag == 'r' || op.Tag == 'i' {
				for j := op.J1; j < op.J2; j++ {
					fmt.Fprintf(&sb, "+ :%d  %s\n", j+1, b[j])
				}
			}
		}
	}
	return sb.String()
}

func colorize(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, l := range lines {
		body := strings.TrimSuffix(l, "\n")
		nl := l[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			sb.WriteString(l)
		case strings.HasPrefix(body, "@@"):
			sb.WriteString(ansiCyan + body + ansiReset + nl)
		case strings.HasPrefix(body, "-"):
			sb.WriteString(ansiRed + body + ansiReset + nl)
		case strings.HasPrefix(body, "+"):
			sb.WriteString(ansiGreen + body + ansiReset + nl)
		default:
			sb.WriteString(l)
		}
	}
	return sb.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
