package analyzer

import (
	"errors"
	"fmt"
	"strings"
)

// InvocationError reports that the analyzer could not be launched or exited
// with a nonzero status.
type InvocationError struct {
	Path     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *InvocationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "analyzer failed on %s", e.Path)
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, " (exit status %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *InvocationError) Unwrap() error { return e.Err }

// MissingOutputError reports that the analyzer exited cleanly but its output
// file was absent or could not be decoded.
type MissingOutputError struct {
	OutputPath string
	Err        error
}

func (e *MissingOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analyzer produced no usable output at %s: %v", e.OutputPath, e.Err)
	}
	return fmt.Sprintf("analyzer produced no output at %s", e.OutputPath)
}

func (e *MissingOutputError) Unwrap() error { return e.Err }

// IsAnalyzerError checks if an error came from the analyzer run itself.
func IsAnalyzerError(err error) bool {
	var invErr *InvocationError
	var outErr *MissingOutputError
	return errors.As(err, &invErr) || errors.As(err, &outErr)
}
