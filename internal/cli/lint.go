package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contexttlp/internal/vault"
	"github.com/ppiankov/contexttlp/internal/watch"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint [vault-dir]",
	Short: "Check a vault's .tlp policy for lines the classifier ignores",
	Long:  "Reports malformed lines, patterns before any level header, unsupported glob shapes\nand rules shadowed by a catch-all. Exits 1 when problems are found.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLint,
}

// findRoot locates the vault from an optional directory argument.
func findRoot(args []string) (string, error) {
	var (
		root string
		ok   bool
	)
	if len(args) == 1 {
		root, ok = vault.FindFromDir(args[0])
	} else {
		root, ok = vault.FindFromCwd()
	}
	if !ok {
		return "", fmt.Errorf("cannot find vault root (no %s file in parent directories)", vault.PolicyFileName)
	}
	return root, nil
}

func runLint(cmd *cobra.Command, args []string) error {
	root, err := findRoot(args)
	if err != nil {
		return err
	}
	r := watch.Check(root)
	if r.Err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "FAILED: %v\nAll files in %s are treated as RED until fixed.\n", r.Err, root)
		return &exitError{code: 1}
	}

	out := cmd.OutOrStdout()
	for _, d := range r.Diagnostics {
		fmt.Fprintf(out, "%s: %s\n", vault.PolicyFileName, d)
	}
	if len(r.Diagnostics) > 0 {
		fmt.Fprintf(out, "%d problem(s), %d rule(s) in effect\n", len(r.Diagnostics), r.Rules)
		return &exitError{code: 1}
	}
	fmt.Fprintf(out, "OK: %d rule(s), %s\n", r.Rules, r.PolicyHash)
	return nil
}
