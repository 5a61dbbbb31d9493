package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/lens/internal/gitctx"
)

const (
	hookMarkerStart = "# >>> lens pre-commit hook >>>"
	hookMarkerEnd   = "# <<< lens pre-commit hook <<<"
)

var (
	hookFailOn  string
	hookFormat  string
	hookExclude string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install lens as a git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := currentHookPath()
		if err != nil {
			fail(err)
			return nil
		}
		if err := installHook(hookPath, generateHookScript(hookFailOn, hookFormat, hookExclude)); err != nil {
			fail(err)
			return nil
		}
		fmt.Fprintf(os.Stdout, "Installed lens pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove lens pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := currentHookPath()
		if err != nil {
			fail(err)
			return nil
		}
		msg, err := uninstallHook(hookPath)
		if err != nil {
			fail(err)
			return nil
		}
		fmt.Fprintln(os.Stdout, msg)
		return nil
	},
}

func currentHookPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return gitctx.HookPath(cwd)
}

// installHook writes section into the hook at hookPath, replacing an earlier
// lens section and keeping everything else.
func installHook(hookPath, section string) error {
	existing, err := os.ReadFile(hookPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading hook file: %w", err)
	}

	var content string
	if len(existing) == 0 {
		content = "#!/bin/sh\n" + section
	} else {
		content = replaceLensSection(string(existing), section)
	}

	if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}
	if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
		return fmt.Errorf("writing hook file: %w", err)
	}
	return nil
}

// uninstallHook removes the lens section, and the whole file when nothing but
// a shebang would remain.
func uninstallHook(hookPath string) (string, error) {
	existing, err := os.ReadFile(hookPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "No pre-commit hook found.", nil
		}
		return "", fmt.Errorf("reading hook file: %w", err)
	}

	content := removeLensSection(string(existing))

	trimmed := strings.TrimSpace(content)
	if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
		if err := os.Remove(hookPath); err != nil {
			return "", fmt.Errorf("removing hook file: %w", err)
		}
		return fmt.Sprintf("Removed lens pre-commit hook at %s", hookPath), nil
	}

	if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
		return "", fmt.Errorf("writing hook file: %w", err)
	}
	return fmt.Sprintf("Removed lens section from %s", hookPath), nil
}

func generateHookScript(failOn, format, exclude string) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	fmt.Fprintf(&b, "lens review --staged --fail-on %s --format %s", failOn, format)
	if exclude != "" {
		fmt.Fprintf(&b, " --exclude '%s'", exclude)
	}
	b.WriteString("\n")
	b.WriteString("LENS_EXIT=$?\n")
	b.WriteString("if [ $LENS_EXIT -eq 1 ]; then\n")
	b.WriteString("  echo \"lens: diagnostics at or above threshold, commit blocked\"\n")
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $LENS_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"lens: review could not finish (exit $LENS_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceLensSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	// Trim leading newline from after to avoid double newlines
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

func removeLensSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")

	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "error", "Fail on tier threshold (none, hint, warning, error)")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format (text, json, markdown, sarif)")
	hookInstallCmd.Flags().StringVar(&hookExclude, "exclude", "", "Exclude path globs (comma-separated)")
}
