package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(readCmd)
}

var readCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "Print a file with TLP:RED sections and secrets redacted",
	Long: "Prints the safe view of a file: #tlp/red blocks and inline spans become [REDACTED],\n" +
		"credentials become [SECRET REDACTED]. RED files are refused.",
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func runRead(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Audit.Close()

	r, err := s.Read(args[0])
	if err != nil {
		return err
	}
	if r.SecretsFound {
		fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: secret(s) detected and redacted in %s. Consider rotating the exposed key(s).\n", args[0])
	}
	fmt.Fprint(cmd.OutOrStdout(), r.View)
	return nil
}
