package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/contexttlp/internal/tlp"
)

// ReplayFilter holds filtering criteria for replay. Empty fields match all.
type ReplayFilter struct {
	SessionID string
	// Resource matches the relative path exactly or as a directory prefix.
	Resource string
	From     time.Time // zero value = no lower bound
	To       time.Time // zero value = no upper bound
}

// ReplaySummary holds decision counts and metadata for replayed entries.
type ReplaySummary struct {
	Total          int       `json:"total"`
	AllowCount     int       `json:"allow_count"`
	BlockCount     int       `json:"block_count"`
	ReadCount      int       `json:"read_count"`
	WriteCount     int       `json:"write_count"`
	RefuseCount    int       `json:"refuse_count"`
	FirstTimestamp string    `json:"first_timestamp"`
	LastTimestamp  string    `json:"last_timestamp"`
	MaxLevel       tlp.Level `json:"max_level"`
}

// ReplayResult holds filtered entries and their summary.
type ReplayResult struct {
	SessionID string        `json:"session_id,omitempty"`
	Entries   []AuditEntry  `json:"entries"`
	Summary   ReplaySummary `json:"summary"`
}

// Replay reads the audit log and returns entries matching the filter.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{SessionID: filter.SessionID}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}
		if !filter.matches(entry) {
			continue
		}
		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return result, nil
}

func (f ReplayFilter) matches(e AuditEntry) bool {
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.Resource != "" {
		r := strings.TrimSuffix(f.Resource, "/")
		if e.Action.Resource != r && !strings.HasPrefix(e.Action.Resource, r+"/") {
			return false
		}
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		ts, err := time.Parse(TimestampFormat, e.Timestamp)
		if err != nil {
			return false
		}
		if !f.From.IsZero() && ts.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && ts.After(f.To) {
			return false
		}
	}
	return true
}

func updateSummary(s *ReplaySummary, entry AuditEntry) {
	s.Total++

	switch entry.Decision {
	case DecisionAllow:
		s.AllowCount++
	case DecisionBlock:
		s.BlockCount++
	case DecisionRead:
		s.ReadCount++
	case DecisionWrite:
		s.WriteCount++
	case DecisionRefuse:
		s.RefuseCount++
	}

	s.MaxLevel = tlp.MostRestrictive(s.MaxLevel, entry.Level)

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
