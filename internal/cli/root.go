package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/contexttlp/internal/audit"
	"github.com/ppiankov/contexttlp/internal/edit"
	"github.com/ppiankov/contexttlp/internal/logging"
	"github.com/ppiankov/contexttlp/internal/redact"
)

// SessionEnv names the environment variable that correlates audit entries
// written by separate hook and CLI processes of one agent session.
const SessionEnv = "CONTEXTTLP_SESSION_ID"

var (
	redactConfigPath string
	auditLogPath     string
	logFormat        string
	logLevel         string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&redactConfigPath, "redact-config", "", "Path to redaction config YAML (default $"+redact.ConfigEnv+" or ~/.contexttlp/redact.yaml)")
	pf.StringVar(&auditLogPath, "audit-log", "", "Append decisions to this hash-chained audit log (default $"+audit.PathEnv+")")
	pf.StringVar(&logFormat, "log-format", "text", "Log format for long-running commands (text|json)")
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
}

var rootCmd = &cobra.Command{
	Use:   "contexttlp",
	Short: "Traffic Light Protocol disclosure control for AI agents in note vaults",
	Long: "Classifies vault files as RED, AMBER, GREEN or CLEAR from a .tlp policy and frontmatter,\n" +
		"shows agents redacted views of AMBER files, and restores hidden content when they write back.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError ends the process with a specific status after its message,
// if any, has been printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newEngine() (*redact.Engine, error) {
	cfg, err := redact.LoadConfig(redactConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load redact config: %w", err)
	}
	return redact.NewFromConfig(cfg)
}

func sessionID() string {
	if id := os.Getenv(SessionEnv); id != "" {
		return id
	}
	return uuid.NewString()
}

// openSession builds the edit session shared by read, write, edit and
// insert. The caller closes the returned session's audit log.
func openSession() (*edit.Session, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, err
	}
	log, err := audit.OpenConfigured(auditLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &edit.Session{Engine: engine, Audit: log, SessionID: sessionID()}, nil
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), logging.Config{Level: logLevel, Format: logFormat})
}
