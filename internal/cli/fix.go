package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/lens/internal/config"
	"github.com/dshills/lens/internal/guard"
	"github.com/dshills/lens/internal/output"
	"github.com/dshills/lens/internal/review"
)

var (
	flagFixLine  int
	flagFixIndex int
	flagFixText  string
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Check or apply suggested fixes",
}

var fixCheckCmd = &cobra.Command{
	Use:   "check <text>",
	Short: "Run the fix safety gate on a replacement text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		policy := guard.Policy{MaxLength: cfg.Fix.MaxLength}
		if err := policy.Validate(args[0]); err != nil {
			fail(err)
			return nil
		}
		fmt.Fprintln(os.Stdout, "Fix accepted.")
		return nil
	},
}

var fixApplyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Review a file and apply the suggested fix of one diagnostic",
	Long: "Apply reviews the file, picks the diagnostics on --line that carry a fix, " +
		"and applies the one at --index to the file on disk. The remaining diagnostics " +
		"are printed afterwards.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagFixLine < 1 {
			return fmt.Errorf("--line must be at least 1")
		}
		e, err := setup(cmd.Flags(), "")
		if err != nil {
			return err
		}
		start := time.Now()

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		doc, err := review.ReadDocument(path)
		if err != nil {
			fail(err)
			return nil
		}
		outcome := e.session.Review(cmd.Context(), path, doc)
		if outcome.Err != nil {
			fail(outcome.Err)
			return nil
		}

		target, ok := pickFix(outcome.Diagnostics, flagFixLine, flagFixIndex)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: no fixable diagnostic #%d on line %d\n", flagFixIndex, flagFixLine)
			exitCode = ExitRuntimeError
			return nil
		}
		text := target.Text
		if cmd.Flags().Changed("text") {
			text = flagFixText
		}

		remaining, err := e.session.ApplyFix(cmd.Context(), path, target.Range, text, review.FileEditor{})
		if err != nil {
			fail(err)
			return nil
		}
		// The edit rewrote the file on disk, which counts as a save.
		e.session.OnSave(path)
		fmt.Fprintf(os.Stderr, "Applied fix at %s:%s\n", path, target.Range)

		outcome.Diagnostics = remaining
		report := review.NewReport(version, newRunID(), outcome, time.Since(start))
		if err := output.WriteReport(report, e.cfg.Format, ""); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

// pickFix returns the index-th quick fix among the diagnostics on the given
// 1-based line.
func pickFix(diags []review.Diagnostic, line, index int) (review.QuickFix, bool) {
	n := 0
	for _, d := range diags {
		if d.Range.Start.Line != line-1 {
			continue
		}
		qf, ok := d.QuickFix()
		if !ok {
			continue
		}
		if n == index {
			return qf, true
		}
		n++
	}
	return review.QuickFix{}, false
}

func init() {
	fixCmd.AddCommand(fixCheckCmd)
	fixCmd.AddCommand(fixApplyCmd)

	fixApplyCmd.Flags().IntVar(&flagFixLine, "line", 0, "1-based line of the diagnostic")
	fixApplyCmd.Flags().IntVar(&flagFixIndex, "index", 0, "Which fixable diagnostic on the line (0-based)")
	fixApplyCmd.Flags().StringVar(&flagFixText, "text", "", "Replacement text to apply instead of the suggested fix")
	fixApplyCmd.Flags().String("format", "", "Output format for the remaining diagnostics")
	addAnalyzerFlags(fixApplyCmd.Flags())
}
