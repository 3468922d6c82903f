package mcp

import (
	"context"
	"errors"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/contexttlp/internal/diffview"
	"github.com/ppiankov/contexttlp/internal/edit"
	"github.com/ppiankov/contexttlp/internal/vault"
)

// --- Input/Output types ---

// ClassifyInput defines parameters for the tlp_classify tool.
type ClassifyInput struct {
	Path string `json:"path" jsonschema:"file path, absolute or relative to the server's working directory"`
}

// ClassifyOutput reports the effective level of a file.
type ClassifyOutput struct {
	InVault     bool   `json:"in_vault"`
	Level       string `json:"level,omitempty"`
	Path        string `json:"path,omitempty"`
	Vault       string `json:"vault,omitempty"`
	PathLevel   string `json:"path_level,omitempty"`
	ConfigError bool   `json:"config_error,omitempty"`
	PolicyHash  string `json:"policy_hash,omitempty"`
}

// ReadInput defines parameters for the tlp_read tool.
type ReadInput struct {
	Path string `json:"path" jsonschema:"file to read"`
}

// ReadOutput carries the safe view of a file or block details.
type ReadOutput struct {
	Content      string `json:"content,omitempty"`
	Level        string `json:"level,omitempty"`
	SecretsFound bool   `json:"secrets_found,omitempty"`
	Blocked      bool   `json:"blocked,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// EditInput defines parameters for the tlp_edit tool.
type EditInput struct {
	Path      string `json:"path" jsonschema:"file to edit"`
	OldString string `json:"old_string" jsonschema:"exact text to replace, must occur once"`
	NewString string `json:"new_string" jsonschema:"replacement text"`
}

// WriteInput defines parameters for the tlp_write tool.
type WriteInput struct {
	Path    string `json:"path" jsonschema:"file to write"`
	Content string `json:"content" jsonschema:"full new content written against the tlp_read view"`
}

// InsertInput defines parameters for the tlp_insert tool.
type InsertInput struct {
	Path   string `json:"path" jsonschema:"file to edit"`
	Anchor string `json:"anchor" jsonschema:"text of the anchor line, compared after trimming whitespace"`
	Text   string `json:"text" jsonschema:"text to insert, may span lines"`
	Before bool   `json:"before,omitempty" jsonschema:"insert before the anchor instead of after"`
}

// ChangeOutput summarizes a mutation without exposing hidden content.
type ChangeOutput struct {
	Path     string `json:"path,omitempty"`
	Level    string `json:"level,omitempty"`
	Created  bool   `json:"created,omitempty"`
	Restored string `json:"restored,omitempty"`
	Diff     string `json:"diff,omitempty"`
	Blocked  bool   `json:"blocked,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// --- Handlers ---

func (s *Server) handleClassify(ctx context.Context, req *mcpsdk.CallToolRequest, input ClassifyInput) (*mcpsdk.CallToolResult, ClassifyOutput, error) {
	c, ok := vault.ClassifyFile(input.Path)
	if !ok {
		return nil, ClassifyOutput{}, nil
	}
	return nil, ClassifyOutput{
		InVault:     true,
		Level:       c.Level.String(),
		Path:        c.RelPath,
		Vault:       c.Root,
		PathLevel:   c.PathLevel.String(),
		ConfigError: c.ConfigError,
		PolicyHash:  c.PolicyHash,
	}, nil
}

func (s *Server) handleRead(ctx context.Context, req *mcpsdk.CallToolRequest, input ReadInput) (*mcpsdk.CallToolResult, ReadOutput, error) {
	r, err := s.session.Read(input.Path)
	if err != nil {
		var refused *edit.RefusedError
		if errors.As(err, &refused) {
			s.log.Info("read refused", "path", refused.RelPath)
			return &mcpsdk.CallToolResult{IsError: true}, ReadOutput{Blocked: true, Level: "RED", Reason: refused.Error()}, nil
		}
		return nil, ReadOutput{}, err
	}
	out := ReadOutput{Content: r.View, SecretsFound: r.SecretsFound}
	if r.Class != nil {
		out.Level = r.Class.Level.String()
	}
	return nil, out, nil
}

func (s *Server) handleEdit(ctx context.Context, req *mcpsdk.CallToolRequest, input EditInput) (*mcpsdk.CallToolResult, ChangeOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeResult(s.session.Edit(input.Path, input.OldString, input.NewString))
}

func (s *Server) handleWrite(ctx context.Context, req *mcpsdk.CallToolRequest, input WriteInput) (*mcpsdk.CallToolResult, ChangeOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeResult(s.session.Write(input.Path, input.Content))
}

func (s *Server) handleInsert(ctx context.Context, req *mcpsdk.CallToolRequest, input InsertInput) (*mcpsdk.CallToolResult, ChangeOutput, error) {
	pos := edit.After
	if input.Before {
		pos = edit.Before
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeResult(s.session.Insert(input.Path, input.Anchor, input.Text, pos))
}

func (s *Server) changeResult(ch edit.Change, err error) (*mcpsdk.CallToolResult, ChangeOutput, error) {
	if err != nil {
		var refused *edit.RefusedError
		if errors.As(err, &refused) {
			s.log.Info("mutation refused", "path", refused.RelPath, "op", refused.Op)
			return &mcpsdk.CallToolResult{IsError: true}, ChangeOutput{Blocked: true, Level: "RED", Reason: refused.Error()}, nil
		}
		return &mcpsdk.CallToolResult{IsError: true}, ChangeOutput{Reason: err.Error()}, nil
	}

	out := ChangeOutput{Path: ch.Path, Created: ch.Created}
	name := filepath.Base(ch.Path)
	if ch.Class != nil {
		out.Level = ch.Class.Level.String()
		name = ch.Class.RelPath
	}
	if ch.Hidden.Len() > 0 {
		out.Restored = "Restored " + ch.Hidden.Summary()
	}
	diff, err := diffview.Render(ch.Before, ch.After, diffview.Options{
		Format:  diffview.Unified,
		Context: diffview.DefaultContext,
		Name:    name,
	})
	if err != nil {
		s.log.Warn("diff render failed", "path", ch.Path, "error", err)
	}
	out.Diff = diff
	s.log.Debug("file changed", "path", name, "created", ch.Created)
	return nil, out, nil
}
