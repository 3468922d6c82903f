package tlp

import (
	"strings"
	"testing"
)

func TestLintCleanPolicy(t *testing.T) {
	if diags := Lint(fullPolicy); len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}
}

func TestLintFindings(t *testing.T) {
	policy := `"orphan.md"
RED:
  - *.pdf
  - "*.p*"
  - "Secret*/**"
  - "Notes/*.md"
  - ""
red:
GREEN:
  - "**"
  - "never.md"
`
	diags := Lint(policy)

	want := map[int]string{
		1:  "before any level header",
		3:  "unrecognized line",
		4:  "leading '*'",
		5:  "directory prefix",
		6:  "exact path",
		7:  "empty pattern",
		8:  "upper-case",
		11: "unreachable",
	}
	if len(diags) != len(want) {
		t.Fatalf("expected %d diagnostics, got %d: %v", len(want), len(diags), diags)
	}
	for _, d := range diags {
		sub, ok := want[d.Line]
		if !ok {
			t.Errorf("unexpected diagnostic %v", d)
			continue
		}
		if !strings.Contains(d.Message, sub) {
			t.Errorf("line %d: message %q does not mention %q", d.Line, d.Message, sub)
		}
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Line: 3, Text: "x", Message: "bad"}
	if got := d.String(); got != `line 3: bad: "x"` {
		t.Errorf("String() = %s", got)
	}
}
