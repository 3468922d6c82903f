package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	label := result.SessionID
	if label == "" {
		label = "all sessions"
	}
	if len(result.Entries) == 0 {
		return fmt.Sprintf("Session: %s | No entries found.\n", label)
	}

	var b strings.Builder

	firstTime := formatDateRange(result.Summary.FirstTimestamp)
	lastTime := formatTimeOnly(result.Summary.LastTimestamp)
	fmt.Fprintf(&b, "Session: %s | %s-%s UTC\n", label, firstTime, lastTime)
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		decision := strings.ToUpper(e.Decision)
		tool := truncate(e.Action.Tool, 12)
		resource := truncate(e.Action.Resource, 40)

		tag := ""
		if e.Restored != nil {
			tag = fmt.Sprintf("  [restored %d/%d/%d]", e.Restored.Blocks, e.Restored.Inline, e.Restored.Secrets)
		}

		fmt.Fprintf(&b, "%-10s %-6s %-8s %-13s %-40s%s\n",
			ts, e.Level, decision, tool, resource, tag)
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDateRange(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	counts := []struct {
		n    int
		name string
	}{
		{s.AllowCount, DecisionAllow},
		{s.BlockCount, DecisionBlock},
		{s.ReadCount, DecisionRead},
		{s.WriteCount, DecisionWrite},
		{s.RefuseCount, DecisionRefuse},
	}
	parts := []string{}
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.name))
		}
	}
	return fmt.Sprintf("Summary: %s | Max level: %s\n", strings.Join(parts, ", "), s.MaxLevel)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
