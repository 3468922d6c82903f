package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	tlpmcp "github.com/ppiankov/contexttlp/internal/mcp"
)

var mcpWatch bool

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVar(&mcpWatch, "watch", true, "Log .tlp policy changes of the vault enclosing the working directory")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs contexttlp as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes TLP-aware tools: tlp_classify, tlp_read, tlp_edit, tlp_write, tlp_insert.",
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	srv, err := tlpmcp.New(tlpmcp.Config{
		AuditLogPath:     auditLogPath,
		RedactConfigPath: redactConfigPath,
		SessionID:        os.Getenv(SessionEnv),
		Version:          version,
		WatchPolicy:      mcpWatch,
		Logger:           log,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down MCP server")
		cancel()
	}()

	err = srv.Run(ctx)
	log.Info("MCP server stopped", "session", srv.SessionID())
	return err
}
