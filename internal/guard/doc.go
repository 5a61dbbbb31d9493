// Package guard is the policy boundary in front of every automatic text edit.
//
// A suggested fix is accepted only when it is non-empty, a single line, no
// longer than the configured limit (100 characters by default) and free of
// the whole word "import". The checks run in that order and the first
// failure decides the reason. Acceptance says nothing about whether the fix
// is correct; it only bounds what an applied fix can change.
package guard
