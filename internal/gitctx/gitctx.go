package gitctx

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Mode selects which set of changes ChangedFiles reports.
type Mode string

const (
	// Staged is the index compared with HEAD.
	Staged Mode = "staged"
	// Unstaged is the working tree compared with the index.
	Unstaged Mode = "unstaged"
)

// Root returns the top-level directory of the repository containing dir.
func Root(dir string) (string, error) {
	out, err := gitOutput(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// HookPath returns the path of the pre-commit hook for the repository
// containing dir.
func HookPath(dir string) (string, error) {
	out, err := gitOutput(dir, "rev-parse", "--git-dir")
	if err != nil {
		return "", errors.New("not a git repository (git rev-parse --git-dir failed)")
	}
	gitDir := strings.TrimSpace(out)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}
	return filepath.Join(gitDir, "hooks", "pre-commit"), nil
}

// ChangedFiles lists the added, copied, modified and renamed files of the
// repository containing dir, as absolute sorted paths. Deleted files are left
// out since there is nothing to review. Paths matching any exclude pattern
// (relative to the repository root) are dropped.
func ChangedFiles(dir string, mode Mode, exclude []string) ([]string, error) {
	args := []string{"diff", "--name-only", "--diff-filter=ACMR"}
	switch mode {
	case Staged:
		args = append(args, "--cached")
	case Unstaged:
	default:
		return nil, fmt.Errorf("unknown change mode: %q", mode)
	}

	root, err := Root(dir)
	if err != nil {
		return nil, err
	}
	out, err := gitOutput(root, args...)
	if err != nil {
		return nil, fmt.Errorf("git diff: %w", err)
	}

	files := []string{}
	for _, line := range strings.Split(out, "\n") {
		rel := strings.TrimSpace(line)
		if rel == "" || MatchesAny(rel, exclude) {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(rel)))
	}
	sort.Strings(files)
	return files, nil
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if path == dir || strings.HasPrefix(path, dir+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
