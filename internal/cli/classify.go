package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contexttlp/internal/vault"
)

var classifyFormat string

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&classifyFormat, "format", "f", "text", "Output format (text|json)")
}

var classifyCmd = &cobra.Command{
	Use:   "classify <file>...",
	Short: "Show the effective TLP level of files",
	Long:  "Classifies each file by its vault's .tlp policy and any frontmatter tlp override.\nFile content is never printed.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

type classifyResult struct {
	File string `json:"file"`
	// Classification is nil for files outside any vault.
	Classification *vault.Classification `json:"classification"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	results := make([]classifyResult, 0, len(args))
	for _, path := range args {
		c, _ := vault.ClassifyFile(path)
		results = append(results, classifyResult{File: path, Classification: c})
	}

	out := cmd.OutOrStdout()
	if classifyFormat == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	for _, r := range results {
		c := r.Classification
		switch {
		case c == nil:
			fmt.Fprintf(out, "%-6s %s (outside vault)\n", "-", r.File)
		case c.ConfigError:
			fmt.Fprintf(out, "%-6s %s (malformed .tlp in %s)\n", c.Level, c.RelPath, c.Root)
		case c.Level != c.PathLevel:
			fmt.Fprintf(out, "%-6s %s (path %s, raised by frontmatter) %s\n", c.Level, c.RelPath, c.PathLevel, c.PolicyHash)
		default:
			fmt.Fprintf(out, "%-6s %s %s\n", c.Level, c.RelPath, c.PolicyHash)
		}
	}
	return nil
}
