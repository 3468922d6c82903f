package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contexttlp/internal/audit"
	"github.com/ppiankov/contexttlp/internal/guard"
)

func init() {
	rootCmd.AddCommand(guardCmd)
}

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "PreToolUse hook: gate agent file access by TLP level",
	Long: "Reads the hook payload ({\"tool_name\":...,\"tool_input\":{\"file_path\":...}}) from stdin.\n" +
		"Exits 0 to allow and 2 to block. RED files are blocked except for creating new files,\n" +
		"direct reads of AMBER files are blocked with a hint to use 'contexttlp read'.",
	Args: cobra.NoArgs,
	RunE: runGuard,
}

func runGuard(cmd *cobra.Command, args []string) error {
	payload, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read hook payload: %w", err)
	}

	d := guard.Evaluate(payload)
	if d.Stdout != "" {
		fmt.Fprintln(cmd.OutOrStdout(), d.Stdout)
	}
	if d.Stderr != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), d.Stderr)
	}
	recordGuard(cmd, d)

	if code := d.ExitCode(); code != guard.ExitAllow {
		return &exitError{code: code}
	}
	return nil
}

// recordGuard audits gated decisions. Audit failures never change the verdict.
func recordGuard(cmd *cobra.Command, d guard.Decision) {
	c := d.Classification
	if c == nil {
		return
	}
	log, err := audit.OpenConfigured(auditLogPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "audit: %v\n", err)
		return
	}
	defer log.Close()

	decision := audit.DecisionAllow
	if d.Verdict == guard.Block {
		decision = audit.DecisionBlock
	}
	err = log.Record(audit.AuditEntry{
		SessionID:  sessionID(),
		Action:     audit.AuditAction{Tool: d.Tool, Resource: c.RelPath},
		Level:      c.Level,
		Decision:   decision,
		Reason:     d.Reason,
		PolicyHash: c.PolicyHash,
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "audit: %v\n", err)
	}
}
