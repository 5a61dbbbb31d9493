package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/lens/internal/gitctx"
	"github.com/dshills/lens/internal/output"
	"github.com/dshills/lens/internal/review"
)

// Review flags
var (
	flagOut      string
	flagRules    string
	flagWatch    bool
	flagStaged   bool
	flagUnstaged bool
	flagExclude  string
)

const watchDebounce = 300 * time.Millisecond

var reviewCmd = &cobra.Command{
	Use:   "review [file...]",
	Short: "Review files with the analyzer and report diagnostics",
	Long: "Review runs the analyzer over each file, resolves its findings to ranged " +
		"diagnostics, and writes a report. With --staged or --unstaged the files come " +
		"from git. With --watch a single file is reviewed again every time it is written.",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := reviewTargets(args)
		if err != nil {
			return err
		}
		if flagWatch && len(files) != 1 {
			return errors.New("--watch needs exactly one file")
		}

		e, err := setup(cmd.Flags(), flagRules)
		if err != nil {
			return err
		}
		if !review.ValidThreshold(e.cfg.FailOn) {
			return fmt.Errorf("invalid --fail-on %q (want none, hint, warning or error)", e.cfg.FailOn)
		}
		if _, err := output.GetWriter(e.cfg.Format); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if flagWatch {
			return watchReview(ctx, e, files[0])
		}
		runReviews(ctx, e, files)
		return nil
	},
}

// reviewTargets resolves the files named on the command line or by the git
// selection flags.
func reviewTargets(args []string) ([]string, error) {
	if flagStaged && flagUnstaged {
		return nil, errors.New("--staged and --unstaged are mutually exclusive")
	}
	if !flagStaged && !flagUnstaged {
		if len(args) == 0 {
			return nil, errors.New("no files to review")
		}
		return args, nil
	}
	if len(args) > 0 {
		return nil, errors.New("file arguments cannot be combined with --staged or --unstaged")
	}
	mode := gitctx.Unstaged
	if flagStaged {
		mode = gitctx.Staged
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return gitctx.ChangedFiles(cwd, mode, splitComma(flagExclude))
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// runReviews reviews each file, writes one report per file, and sets the
// exit code. An analyzer failure on one file does not stop the others.
func runReviews(ctx context.Context, e *env, files []string) {
	var reports []*review.Report
	var firstErr error
	for _, file := range files {
		report, err := reviewFile(ctx, e, file)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		reports = append(reports, report)
	}

	if len(reports) > 0 {
		if err := output.WriteReports(reports, e.cfg.Format, flagOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
	}
	if firstErr != nil {
		setErrorExit(firstErr)
		return
	}
	if failsThreshold(reports, e.cfg.FailOn) {
		exitCode = ExitFindings
	}
}

func reviewFile(ctx context.Context, e *env, file string) (*review.Report, error) {
	start := time.Now()
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	doc, err := review.ReadDocument(path)
	if err != nil {
		return nil, err
	}
	outcome := e.session.Review(ctx, path, doc)
	if outcome.Err != nil {
		return nil, outcome.Err
	}
	e.logger.Info("reviewed",
		zap.String("file", path),
		zap.Bool("cached", outcome.Cached),
		zap.Int("diagnostics", len(outcome.Diagnostics)),
		zap.Int64("analyzerRuns", e.invoker.Invocations()),
	)
	return review.NewReport(version, newRunID(), outcome, time.Since(start)), nil
}

func failsThreshold(reports []*review.Report, failOn string) bool {
	if failOn == "none" || failOn == "" {
		return false
	}
	for _, r := range reports {
		for _, d := range r.Diagnostics {
			if review.MeetsThreshold(d.Tier, failOn) {
				return true
			}
		}
	}
	return false
}

func newRunID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}

// watchReview reviews path now and again after every write to it, until ctx
// is done.
func watchReview(ctx context.Context, e *env, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	runReviews(ctx, e, []string{abs})
	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", abs)

	err = watchFile(ctx, abs, watchDebounce, func() {
		// A write is a save: the cached findings are stale.
		e.session.OnSave(abs)
		exitCode = ExitSuccess
		runReviews(ctx, e, []string{abs})
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
	}
	return nil
}

func init() {
	reviewCmd.Flags().String("format", "", "Output format (text, json, markdown, sarif)")
	reviewCmd.Flags().String("fail-on", "", "Fail on tier threshold (none, hint, warning, error)")
	reviewCmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	reviewCmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path")
	reviewCmd.Flags().BoolVar(&flagWatch, "watch", false, "Review again whenever the file is written")
	reviewCmd.Flags().BoolVar(&flagStaged, "staged", false, "Review files with staged changes")
	reviewCmd.Flags().BoolVar(&flagUnstaged, "unstaged", false, "Review files with unstaged changes")
	reviewCmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude path globs for --staged/--unstaged (comma-separated)")
	addAnalyzerFlags(reviewCmd.Flags())
}
