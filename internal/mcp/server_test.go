package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/contexttlp/internal/audit"
	"github.com/ppiankov/contexttlp/internal/redact"
)

const testPolicy = "RED:\n  - \"secrets/**\"\nAMBER:\n  - \"clients/**\"\nGREEN:\n  - \"**\"\n"

const testDoc = "Visible top.\n#tlp/red\nThis is secret line A.\n#tlp/amber\nVisible bottom.\n"

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(redact.ConfigEnv, "")
	t.Setenv(audit.PathEnv, "")

	root := t.TempDir()
	files := map[string]string{
		".tlp":            testPolicy,
		"clients/acme.md": testDoc,
		"secrets/keys.md": "top secret\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s, err := New(Config{
		AuditLogPath: filepath.Join(t.TempDir(), "audit.jsonl"),
		SessionID:    "mcp-test",
	})
	if err != nil {
		t.Fatalf("failed to create MCP server: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, root
}

func TestClassify(t *testing.T) {
	s, root := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleClassify(ctx, &mcpsdk.CallToolRequest{}, ClassifyInput{Path: filepath.Join(root, "clients", "acme.md")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.InVault || out.Level != "AMBER" || out.Path != "clients/acme.md" {
		t.Fatalf("unexpected classification: %+v", out)
	}
	if !strings.HasPrefix(out.PolicyHash, "sha256:") {
		t.Fatalf("expected policy hash, got %q", out.PolicyHash)
	}

	_, out, err = s.handleClassify(ctx, &mcpsdk.CallToolRequest{}, ClassifyInput{Path: filepath.Join(t.TempDir(), "x.md")})
	if err != nil || out.InVault {
		t.Fatalf("expected file outside vault, got %+v, %v", out, err)
	}
}

func TestReadRedacts(t *testing.T) {
	s, root := newTestServer(t)

	result, out, err := s.handleRead(context.Background(), &mcpsdk.CallToolRequest{}, ReadInput{Path: filepath.Join(root, "clients", "acme.md")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected success, got error result")
	}
	if out.Content != "Visible top.\n[REDACTED]\nVisible bottom.\n" {
		t.Fatalf("unexpected content: %q", out.Content)
	}
	if out.Level != "AMBER" {
		t.Fatalf("expected AMBER, got %q", out.Level)
	}
}

func TestReadRedBlocked(t *testing.T) {
	s, root := newTestServer(t)

	result, out, err := s.handleRead(context.Background(), &mcpsdk.CallToolRequest{}, ReadInput{Path: filepath.Join(root, "secrets", "keys.md")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result for RED file")
	}
	if !out.Blocked || out.Content != "" {
		t.Fatalf("expected blocked with no content, got %+v", out)
	}
}

func TestWriteRestores(t *testing.T) {
	s, root := newTestServer(t)
	ctx := context.Background()
	path := filepath.Join(root, "clients", "acme.md")

	_, read, err := s.handleRead(ctx, &mcpsdk.CallToolRequest{}, ReadInput{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	content := strings.Replace(read.Content, "Visible bottom.", "Changed bottom.", 1)

	result, out, err := s.handleWrite(ctx, &mcpsdk.CallToolRequest{}, WriteInput{Path: path, Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatalf("expected success, got %q", out.Reason)
	}
	if out.Restored != "Restored 1 TLP block(s), 0 inline chunk(s), 0 secret(s)" {
		t.Fatalf("unexpected restore summary: %q", out.Restored)
	}
	if !strings.Contains(out.Diff, "+Changed bottom.") || strings.Contains(out.Diff, "secret line") {
		t.Fatalf("unexpected diff: %q", out.Diff)
	}

	data, _ := os.ReadFile(path)
	if string(data) != strings.Replace(testDoc, "Visible bottom.", "Changed bottom.", 1) {
		t.Fatalf("unexpected file: %q", data)
	}
}

func TestWriteMismatchRejected(t *testing.T) {
	s, root := newTestServer(t)
	path := filepath.Join(root, "clients", "acme.md")

	result, out, err := s.handleWrite(context.Background(), &mcpsdk.CallToolRequest{}, WriteInput{Path: path, Content: "Visible top.\n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result")
	}
	if !strings.Contains(out.Reason, "placeholder count mismatch") {
		t.Fatalf("unexpected reason: %q", out.Reason)
	}
	data, _ := os.ReadFile(path)
	if string(data) != testDoc {
		t.Fatal("file modified after failed write")
	}
}

func TestEditAndInsert(t *testing.T) {
	s, root := newTestServer(t)
	ctx := context.Background()
	path := filepath.Join(root, "clients", "acme.md")

	result, out, err := s.handleEdit(ctx, &mcpsdk.CallToolRequest{}, EditInput{Path: path, OldString: "Visible top.", NewString: "New top."})
	if err != nil || (result != nil && result.IsError) {
		t.Fatalf("edit failed: %+v, %v", out, err)
	}

	result, out, err = s.handleInsert(ctx, &mcpsdk.CallToolRequest{}, InsertInput{Path: path, Anchor: "New top.", Text: "Preface.", Before: true})
	if err != nil || (result != nil && result.IsError) {
		t.Fatalf("insert failed: %+v, %v", out, err)
	}

	data, _ := os.ReadFile(path)
	want := "Preface.\nNew top.\n#tlp/red\nThis is secret line A.\n#tlp/amber\nVisible bottom.\n"
	if string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}

	result, out, _ = s.handleEdit(ctx, &mcpsdk.CallToolRequest{}, EditInput{Path: path, OldString: "[REDACTED]", NewString: "x"})
	if result == nil || !result.IsError || out.Reason == "" {
		t.Fatalf("expected marker injection refusal, got %+v", out)
	}
}

func TestEditRedBlocked(t *testing.T) {
	s, root := newTestServer(t)

	result, out, err := s.handleEdit(context.Background(), &mcpsdk.CallToolRequest{}, EditInput{
		Path: filepath.Join(root, "secrets", "keys.md"), OldString: "top", NewString: "bottom",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError || !out.Blocked {
		t.Fatalf("expected blocked, got %+v", out)
	}
}

func TestSessionIDGenerated(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(redact.ConfigEnv, "")
	t.Setenv(audit.PathEnv, "")
	s, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.SessionID()) != 36 {
		t.Fatalf("expected uuid session id, got %q", s.SessionID())
	}
}
