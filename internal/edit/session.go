package edit

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/contexttlp/internal/audit"
	"github.com/ppiankov/contexttlp/internal/redact"
	"github.com/ppiankov/contexttlp/internal/tlp"
	"github.com/ppiankov/contexttlp/internal/vault"
)

// RefusedError is returned for operations on RED files.
type RefusedError struct {
	Op      string
	RelPath string
	// ConfigError means the file is RED only because the policy is unreadable.
	ConfigError bool
}

func (e *RefusedError) Error() string {
	if e.ConfigError {
		return fmt.Sprintf("TLP:RED: malformed .tlp config, %s refuses %s until fixed", e.Op, e.RelPath)
	}
	return fmt.Sprintf("TLP:RED: %s refuses RED files (%s)", e.Op, e.RelPath)
}

// ErrLeak is returned when a safe view would still contain hidden content.
var ErrLeak = errors.New("safe view still contains hidden content")

// Session runs file operations for one agent session: classification gate,
// redaction, restoration, atomic write and audit.
type Session struct {
	Engine *redact.Engine
	// Audit may be nil.
	Audit     *audit.Log
	SessionID string
}

// ReadResult is a safe view of one file.
type ReadResult struct {
	Path         string
	View         string
	SecretsFound bool
	// Class is nil for files outside any vault.
	Class *vault.Classification
}

// Change describes a completed mutation in terms of safe views only.
type Change struct {
	Path    string
	Class   *vault.Classification
	Before  string
	After   string
	Hidden  redact.Hidden
	Created bool
}

// Read returns the safe view of path. RED files are refused.
func (s *Session) Read(path string) (ReadResult, error) {
	c, err := s.gate("read", path)
	if err != nil {
		return ReadResult{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ReadResult{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	original := string(data)
	view, found := s.Engine.SafeView(original)
	if leaks := s.Engine.Extract(original).Leaks(view); len(leaks) > 0 {
		s.record("read", c, audit.DecisionRefuse, "leak check failed", nil)
		return ReadResult{}, fmt.Errorf("%s: %w", path, ErrLeak)
	}
	s.record("read", c, audit.DecisionRead, "", nil)
	return ReadResult{Path: path, View: view, SecretsFound: found, Class: c}, nil
}

// Edit replaces the single occurrence of old with new in path.
func (s *Session) Edit(path, old, new string) (Change, error) {
	return s.mutate("edit", path, func(original string) (string, error) {
		return Replace(s.Engine, original, old, new)
	})
}

// Insert adds text before or after the unique anchor line in path.
func (s *Session) Insert(path, anchor, text string, pos Position) (Change, error) {
	return s.mutate("insert", path, func(original string) (string, error) {
		return Insert(s.Engine, original, anchor, text, pos)
	})
}

// Write replaces path with content written against its safe view,
// restoring hidden content. A missing file is created as-is.
func (s *Session) Write(path, content string) (Change, error) {
	c, err := s.gate("write", path)
	if err != nil {
		return Change{}, err
	}
	original, exists, err := ReadOptional(path)
	if err != nil {
		return Change{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	m, err := PlanWrite(s.Engine, original, exists, content)
	if err != nil {
		s.record("write", c, audit.DecisionRefuse, err.Error(), nil)
		return Change{}, err
	}
	if err := WriteFile(path, []byte(m.Content)); err != nil {
		return Change{}, fmt.Errorf("cannot write %s: %w", path, err)
	}
	ch := s.change(path, c, original, m.Content)
	ch.Hidden = m.Hidden
	ch.Created = !exists
	s.record("write", c, audit.DecisionWrite, "", &m.Hidden)
	return ch, nil
}

func (s *Session) mutate(op, path string, apply func(string) (string, error)) (Change, error) {
	c, err := s.gate(op, path)
	if err != nil {
		return Change{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Change{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	original := string(data)
	updated, err := apply(original)
	if err != nil {
		s.record(op, c, audit.DecisionRefuse, err.Error(), nil)
		return Change{}, err
	}
	if err := WriteFile(path, []byte(updated)); err != nil {
		return Change{}, fmt.Errorf("cannot write %s: %w", path, err)
	}
	s.record(op, c, audit.DecisionWrite, "", nil)
	return s.change(path, c, original, updated), nil
}

func (s *Session) change(path string, c *vault.Classification, before, after string) Change {
	bv, _ := s.Engine.SafeView(before)
	av, _ := s.Engine.SafeView(after)
	return Change{Path: path, Class: c, Before: bv, After: av}
}

func (s *Session) gate(op, path string) (*vault.Classification, error) {
	c, ok := vault.ClassifyFile(path)
	if !ok {
		return nil, nil
	}
	if c.Level == tlp.Red {
		s.record(op, c, audit.DecisionRefuse, "RED", nil)
		return nil, &RefusedError{Op: op, RelPath: c.RelPath, ConfigError: c.ConfigError}
	}
	return c, nil
}

func (s *Session) record(op string, c *vault.Classification, decision, reason string, h *redact.Hidden) {
	if s.Audit == nil || c == nil {
		return
	}
	e := audit.AuditEntry{
		SessionID:  s.SessionID,
		Action:     audit.AuditAction{Tool: op, Resource: c.RelPath},
		Level:      c.Level,
		Decision:   decision,
		Reason:     reason,
		PolicyHash: c.PolicyHash,
	}
	if h != nil && h.Len() > 0 {
		e.Restored = &audit.Restored{Blocks: len(h.Blocks), Inline: len(h.Inline), Secrets: len(h.Secrets)}
	}
	if err := s.Audit.Record(e); err != nil {
		fmt.Fprintf(os.Stderr, "audit: %v\n", err)
	}
}
