package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contexttlp/internal/diffview"
	"github.com/ppiankov/contexttlp/internal/edit"
	"github.com/ppiankov/contexttlp/internal/redact"
)

const rereadHint = "Hint: if the file was modified externally, re-read it with 'contexttlp read' and retry."

var (
	diffHuman bool
	diffQuiet bool

	editOld string
	editNew string

	insertBefore  string
	insertAfter   string
	insertContent string
)

func init() {
	rootCmd.AddCommand(writeCmd, editCmd, insertCmd)
	for _, c := range []*cobra.Command{writeCmd, editCmd, insertCmd} {
		c.Flags().BoolVar(&diffHuman, "human", false, "Show a line-numbered diff instead of unified format")
		c.Flags().BoolVarP(&diffQuiet, "quiet", "q", false, "Do not print a diff")
	}

	editCmd.Flags().StringVar(&editOld, "old", "", "Exact text to replace, must occur once (required)")
	editCmd.Flags().StringVar(&editNew, "new", "", "Replacement text (required)")
	editCmd.MarkFlagRequired("old")
	editCmd.MarkFlagRequired("new")

	insertCmd.Flags().StringVar(&insertBefore, "before", "", "Insert before the line matching this text")
	insertCmd.Flags().StringVar(&insertAfter, "after", "", "Insert after the line matching this text")
	insertCmd.Flags().StringVar(&insertContent, "content", "", "Text to insert (required)")
	insertCmd.MarkFlagsMutuallyExclusive("before", "after")
	insertCmd.MarkFlagsOneRequired("before", "after")
	insertCmd.MarkFlagRequired("content")
}

var writeCmd = &cobra.Command{
	Use:   "write <file>",
	Short: "Overwrite a file from stdin, restoring hidden content",
	Long: "Reads the new content from stdin. The content is expected to be based on the\n" +
		"'contexttlp read' view: every [REDACTED] and [SECRET REDACTED] placeholder is\n" +
		"replaced with the hidden content it stood for. If the placeholders do not line up\n" +
		"with the hidden content the file is left untouched.",
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

var editCmd = &cobra.Command{
	Use:   "edit <file> --old <text> --new <text>",
	Short: "Replace one unique occurrence of text in a file",
	Long: "Replaces exactly one visible occurrence of --old with --new in the file.\n" +
		"Hidden content can not be matched and is untouched; --old may not contain\n" +
		"redaction placeholders.",
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var insertCmd = &cobra.Command{
	Use:   "insert <file> --before|--after <line> --content <text>",
	Short: "Insert text before or after a unique line",
	Long:  "Finds the one line whose trimmed text equals the marker and inserts --content next to it.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInsert,
}

func runWrite(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("cannot read stdin: %w", err)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Audit.Close()

	ch, err := s.Write(path, string(data))
	if err != nil {
		var mm *redact.MismatchError
		switch {
		case errors.As(err, &mm):
			fmt.Fprintf(cmd.ErrOrStderr(), "Restoration failed: %v\n", mm)
			fmt.Fprintln(cmd.ErrOrStderr(), "The original file was NOT modified.")
			return &exitError{code: 1}
		case errors.Is(err, edit.ErrEmptyContent):
			return fmt.Errorf("%w to %s", err, path)
		}
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Restored %s\n", ch.Hidden.Summary())
	return finishChange(cmd, ch)
}

func runEdit(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Audit.Close()

	ch, err := s.Edit(args[0], edit.UnescapeShell(editOld), edit.UnescapeShell(editNew))
	if err != nil {
		return mutationError(cmd, args[0], err)
	}
	return finishChange(cmd, ch)
}

func runInsert(cmd *cobra.Command, args []string) error {
	anchor, pos := insertAfter, edit.After
	if cmd.Flags().Changed("before") {
		anchor, pos = insertBefore, edit.Before
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Audit.Close()

	ch, err := s.Insert(args[0], edit.UnescapeShell(anchor), edit.UnescapeShell(insertContent), pos)
	if err != nil {
		return mutationError(cmd, args[0], err)
	}
	return finishChange(cmd, ch)
}

func mutationError(cmd *cobra.Command, path string, err error) error {
	switch {
	case errors.Is(err, edit.ErrNotFound):
		fmt.Fprintf(cmd.ErrOrStderr(), "%v in %s\n", err, path)
		fmt.Fprintln(cmd.ErrOrStderr(), rereadHint)
		return &exitError{code: 1}
	case errors.Is(err, edit.ErrMarkerInjection), errors.Is(err, edit.ErrHiddenChanged):
		fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
		fmt.Fprintln(cmd.ErrOrStderr(), "Use 'contexttlp read' to view what's visible, then change only visible text.")
		return &exitError{code: 1}
	}
	var amb *edit.AmbiguousError
	if errors.As(err, &amb) {
		return fmt.Errorf("%w in %s", err, path)
	}
	return err
}

// finishChange prints the diff of the safe views to stderr and the path to stdout.
func finishChange(cmd *cobra.Command, ch edit.Change) error {
	if !diffQuiet {
		name := filepath.Base(ch.Path)
		if ch.Class != nil {
			name = ch.Class.RelPath
		}
		opts := diffview.Options{Format: diffview.Unified, Context: diffview.DefaultContext, Name: name}
		if diffHuman {
			opts.Format = diffview.Human
		}
		if f, ok := cmd.ErrOrStderr().(*os.File); ok {
			opts.Color = diffview.ColorEnabled(f)
		}
		out, err := diffview.Render(ch.Before, ch.After, opts)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "diff: %v\n", err)
		} else if out != "" {
			fmt.Fprint(cmd.ErrOrStderr(), out)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), ch.Path)
	return nil
}
