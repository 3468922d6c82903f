package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contexttlp/internal/edit"
	"github.com/ppiankov/contexttlp/internal/frontmatter"
	"github.com/ppiankov/contexttlp/internal/tlp"
	"github.com/ppiankov/contexttlp/internal/vault"
)

func init() {
	rootCmd.AddCommand(metaCmd)
	metaCmd.AddCommand(metaSetCmd, metaGetCmd, metaHasCmd)
}

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Bulk frontmatter operations without reading note bodies",
	Long: "Sets, gets or checks one frontmatter key across the .md files of a directory.\n" +
		"Relative directories are resolved against the vault root found from the working\n" +
		"directory. RED files are skipped.",
}

var metaSetCmd = &cobra.Command{
	Use:   "set <dir> <key> <value>",
	Short: "Set a frontmatter key on every note in a directory",
	Args:  cobra.ExactArgs(3),
	RunE:  runMetaSet,
}

var metaGetCmd = &cobra.Command{
	Use:   "get <dir> <key>",
	Short: "Print a frontmatter key for every note that has it",
	Args:  cobra.ExactArgs(2),
	RunE:  runMetaGet,
}

var metaHasCmd = &cobra.Command{
	Use:   "has <dir> <key>",
	Short: "List notes missing a frontmatter key",
	Args:  cobra.ExactArgs(2),
	RunE:  runMetaHas,
}

// metaDir resolves dir and lists its notes.
func metaDir(dir string) ([]string, error) {
	target := dir
	if !filepath.IsAbs(dir) {
		root, ok := vault.FindFromCwd()
		if !ok {
			return nil, fmt.Errorf("cannot find vault root (no %s file in parent directories)", vault.PolicyFileName)
		}
		target = filepath.Join(root, dir)
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}
	return frontmatter.ListMarkdown(target)
}

// readNote returns the note content, or false for RED and unreadable notes.
func readNote(path string) (string, bool) {
	if c, ok := vault.ClassifyFile(path); ok && c.Level == tlp.Red {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func runMetaSet(cmd *cobra.Command, args []string) error {
	files, err := metaDir(args[0])
	if err != nil {
		return err
	}
	key, value := args[1], args[2]
	out := cmd.OutOrStdout()

	count := 0
	for _, path := range files {
		name := filepath.Base(path)
		content, ok := readNote(path)
		if !ok {
			fmt.Fprintf(out, "  skipped: %s\n", name)
			continue
		}
		updated, err := frontmatter.SetValue(content, key, value)
		if err != nil {
			fmt.Fprintf(out, "  skipped: %s (%v)\n", name, err)
			continue
		}
		if updated == content {
			fmt.Fprintf(out, "  ok:      %s\n", name)
			count++
			continue
		}
		if err := edit.WriteFile(path, []byte(updated)); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "  error:   %s (%v)\n", name, err)
			continue
		}
		fmt.Fprintf(out, "  updated: %s\n", name)
		count++
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Done: %d/%d files processed with %s: %s\n", count, len(files), key, value)
	return nil
}

func runMetaGet(cmd *cobra.Command, args []string) error {
	files, err := metaDir(args[0])
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	key := args[1]
	out := cmd.OutOrStdout()

	count := 0
	for _, path := range files {
		content, ok := readNote(path)
		if !ok {
			continue
		}
		if v, ok := frontmatter.GetValue(content, key); ok {
			v, _ = e.RedactSecrets(v)
			fmt.Fprintf(out, "  %s: %s\n", strings.TrimSuffix(filepath.Base(path), ".md"), v)
			count++
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d/%d files have %s set\n", count, len(files), key)
	return nil
}

func runMetaHas(cmd *cobra.Command, args []string) error {
	files, err := metaDir(args[0])
	if err != nil {
		return err
	}
	key := args[1]
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Files missing %s:\n", key)
	missing := 0
	for _, path := range files {
		content, ok := readNote(path)
		if !ok {
			continue
		}
		if _, ok := frontmatter.GetValue(content, key); !ok {
			fmt.Fprintf(out, "  %s\n", filepath.Base(path))
			missing++
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d/%d files missing %s\n", missing, len(files), key)
	return nil
}
