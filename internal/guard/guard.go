package guard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the longest fix, in characters, accepted by default.
const DefaultMaxLength = 100

// Rejection reasons, in the order they are checked.
const (
	ReasonEmpty     = "empty"
	ReasonMultiLine = "multi-line edits forbidden"
	ReasonTooLarge  = "too large"
	ReasonImport    = "contains import"
)

var importWord = regexp.MustCompile(`\bimport\b`)

// RejectedError reports a fix that failed the safety policy.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("fix rejected: %s", e.Reason)
}

// IsRejected checks if an error is a safety-gate rejection.
func IsRejected(err error) bool {
	var rejErr *RejectedError
	return errors.As(err, &rejErr)
}

// Policy validates proposed replacement text.
type Policy struct {
	MaxLength int
}

// Default returns the standard policy.
func Default() Policy {
	return Policy{MaxLength: DefaultMaxLength}
}

// Validate returns nil when fix may be applied, or a *RejectedError naming
// the first rule it breaks.
func (p Policy) Validate(fix string) error {
	limit := p.MaxLength
	if limit <= 0 {
		limit = DefaultMaxLength
	}
	switch {
	case fix == "":
		return &RejectedError{Reason: ReasonEmpty}
	case strings.ContainsAny(fix, "\n\r"):
		return &RejectedError{Reason: ReasonMultiLine}
	case utf8.RuneCountInString(fix) > limit:
		return &RejectedError{Reason: ReasonTooLarge}
	case importWord.MatchString(fix):
		return &RejectedError{Reason: ReasonImport}
	}
	return nil
}
