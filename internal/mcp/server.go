package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/contexttlp/internal/audit"
	"github.com/ppiankov/contexttlp/internal/edit"
	"github.com/ppiankov/contexttlp/internal/redact"
	"github.com/ppiankov/contexttlp/internal/vault"
	"github.com/ppiankov/contexttlp/internal/watch"
)

// Config holds MCP server configuration.
type Config struct {
	AuditLogPath     string
	RedactConfigPath string
	// SessionID stamps audit entries. Generated when empty.
	SessionID string
	Version   string
	// WatchPolicy logs policy changes of the vault enclosing the working
	// directory while the server runs.
	WatchPolicy bool
	Logger      *slog.Logger
}

// Server exposes TLP-aware file tools over MCP.
type Server struct {
	mcpServer *mcpsdk.Server
	session   *edit.Session
	auditLog  *audit.Log
	watch     bool
	log       *slog.Logger
	// mu serializes file mutations so that read-modify-write cycles of
	// concurrent tool calls never interleave.
	mu sync.Mutex
}

// New creates an MCP server with a loaded redaction engine and tools.
func New(cfg Config) (*Server, error) {
	rc, err := redact.LoadConfig(cfg.RedactConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load redact config: %w", err)
	}
	engine, err := redact.NewFromConfig(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to build redaction engine: %w", err)
	}

	auditLog, err := audit.OpenConfigured(cfg.AuditLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		session:  &edit.Session{Engine: engine, Audit: auditLog, SessionID: sessionID},
		auditLog: auditLog,
		watch:    cfg.WatchPolicy,
		log:      log.With("session", sessionID),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "contexttlp",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// SessionID returns the id stamped on this server's audit entries.
func (s *Server) SessionID() string {
	return s.session.SessionID
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.watch {
		s.startWatch(ctx)
	}
	s.log.Info("mcp server starting", "transport", "stdio")
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) startWatch(ctx context.Context) {
	root, ok := vault.FindFromCwd()
	if !ok {
		s.log.Debug("no vault above working directory, policy watch disabled")
		return
	}
	w, err := watch.New(root, s.log, nil)
	if err != nil {
		s.log.Warn("policy watch disabled", "error", err)
		return
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			s.log.Warn("policy watch stopped", "error", err)
		}
	}()
}

// Close closes the audit log if configured.
func (s *Server) Close() error {
	return s.auditLog.Close()
}

// registerTools adds all contexttlp tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tlp_classify",
		Description: "Report the TLP level of a file from its vault's .tlp policy and frontmatter. Never returns file content.",
	}, s.handleClassify)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tlp_read",
		Description: "Read a file with #tlp/red sections and credentials replaced by [REDACTED] and [SECRET REDACTED]. RED files are refused.",
	}, s.handleRead)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tlp_edit",
		Description: "Replace one unique occurrence of old_string in a file. Hidden sections are kept. Placeholders cannot be used in either string.",
	}, s.handleEdit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tlp_write",
		Description: "Write a whole file based on its tlp_read view. Keep every [REDACTED] and [SECRET REDACTED] placeholder; hidden content is restored into them.",
	}, s.handleWrite)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tlp_insert",
		Description: "Insert text before or after the unique line matching anchor.",
	}, s.handleInsert)
}
