package audit

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/contexttlp/internal/tlp"
)

// writeTestLog creates a temp audit log with known entries for testing.
func writeTestLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-audit.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	base := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)
	at := func(sec int) string { return base.Add(time.Duration(sec) * time.Second).Format(TimestampFormat) }

	entries := []AuditEntry{
		{Timestamp: at(0), SessionID: "s-aaa", Action: AuditAction{Tool: "Read", Resource: "notes/daily.md"}, Level: tlp.Green, Decision: DecisionAllow},
		{Timestamp: at(2), SessionID: "s-aaa", Action: AuditAction{Tool: "Read", Resource: "clients/acme.md"}, Level: tlp.Amber, Decision: DecisionBlock, Reason: "AMBER direct read"},
		{Timestamp: at(4), SessionID: "s-bbb", Action: AuditAction{Tool: "Edit", Resource: "notes/daily.md"}, Level: tlp.Green, Decision: DecisionAllow},
		{Timestamp: at(6), SessionID: "s-aaa", Action: AuditAction{Tool: "read", Resource: "clients/acme.md"}, Level: tlp.Amber, Decision: DecisionRead},
		{Timestamp: at(8), SessionID: "s-aaa", Action: AuditAction{Tool: "write", Resource: "clients/acme.md"}, Level: tlp.Amber, Decision: DecisionWrite, Restored: &Restored{Blocks: 2}},
		{Timestamp: at(10), SessionID: "s-aaa", Action: AuditAction{Tool: "Read", Resource: "secrets/keys.md"}, Level: tlp.Red, Decision: DecisionBlock, Reason: "RED"},
	}

	for _, e := range entries {
		if err := log.Record(e); err != nil {
			t.Fatal(err)
		}
	}

	return path
}

func TestReplayFiltersBySession(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{SessionID: "s-aaa"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 5 {
		t.Errorf("expected 5 entries for s-aaa, got %d", len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.SessionID != "s-aaa" {
			t.Errorf("unexpected session ID: %s", e.SessionID)
		}
	}
}

func TestReplayFiltersByResource(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{Resource: "clients/"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 3 {
		t.Errorf("expected 3 entries under clients/, got %d", len(result.Entries))
	}

	result, _ = Replay(path, ReplayFilter{Resource: "notes/daily.md"})
	if len(result.Entries) != 2 {
		t.Errorf("expected 2 entries for notes/daily.md, got %d", len(result.Entries))
	}

	result, _ = Replay(path, ReplayFilter{Resource: "client"})
	if len(result.Entries) != 0 {
		t.Errorf("partial segment matched %d entries", len(result.Entries))
	}
}

func TestReplayTimeRange(t *testing.T) {
	path := writeTestLog(t)

	from := time.Date(2025, 1, 15, 14, 0, 5, 0, time.UTC)
	result, err := Replay(path, ReplayFilter{SessionID: "s-aaa", From: from})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 3 {
		t.Errorf("expected 3 entries after from filter, got %d", len(result.Entries))
	}

	to := time.Date(2025, 1, 15, 14, 0, 3, 0, time.UTC)
	result, _ = Replay(path, ReplayFilter{SessionID: "s-aaa", To: to})
	if len(result.Entries) != 2 {
		t.Errorf("expected 2 entries before to filter, got %d", len(result.Entries))
	}
}

func TestReplaySummary(t *testing.T) {
	path := writeTestLog(t)
	result, err := Replay(path, ReplayFilter{SessionID: "s-aaa"})
	if err != nil {
		t.Fatal(err)
	}
	s := result.Summary
	if s.Total != 5 || s.AllowCount != 1 || s.BlockCount != 2 || s.ReadCount != 1 || s.WriteCount != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.MaxLevel != tlp.Red {
		t.Errorf("max level = %v, want RED", s.MaxLevel)
	}
	if s.FirstTimestamp != "2025-01-15T14:00:00.000Z" || s.LastTimestamp != "2025-01-15T14:00:10.000Z" {
		t.Errorf("timestamps = %s .. %s", s.FirstTimestamp, s.LastTimestamp)
	}
}

func TestReplayMissingFile(t *testing.T) {
	if _, err := Replay(filepath.Join(t.TempDir(), "nope.jsonl"), ReplayFilter{}); err == nil {
		t.Fatal("expected error for missing log")
	}
}

func TestFormatTimeline(t *testing.T) {
	path := writeTestLog(t)
	result, err := Replay(path, ReplayFilter{SessionID: "s-aaa"})
	if err != nil {
		t.Fatal(err)
	}

	out := FormatTimeline(result)
	for _, want := range []string{
		"Session: s-aaa",
		"BLOCK",
		"WRITE",
		"clients/acme.md",
		"[restored 2/0/0]",
		"Summary: 1 allow, 2 block, 1 read, 1 write | Max level: RED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTimelineEmpty(t *testing.T) {
	out := FormatTimeline(&ReplayResult{SessionID: "s-none"})
	if out != "Session: s-none | No entries found.\n" {
		t.Errorf("got %q", out)
	}
}

func TestFormatJSONValid(t *testing.T) {
	path := writeTestLog(t)
	result, err := Replay(path, ReplayFilter{SessionID: "s-aaa"})
	if err != nil {
		t.Fatal(err)
	}

	jsonStr, err := FormatJSON(result)
	if err != nil {
		t.Fatal(err)
	}

	var parsed ReplayResult
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		t.Fatalf("JSON output not valid: %v", err)
	}
	if len(parsed.Entries) != 5 || parsed.Summary.MaxLevel != tlp.Red {
		t.Errorf("parsed = %+v", parsed.Summary)
	}
}
