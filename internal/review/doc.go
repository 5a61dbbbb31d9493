// Package review is the review session manager: it turns analyzer findings
// into editor diagnostics and keeps them consistent as fixes are applied.
//
// A [Session] owns all state for one host. [Session.RunReview] checks the
// findings cache (valid only while the file's modification time is unchanged),
// runs the analyzer on a miss, and synthesizes one [Diagnostic] per usable
// finding. Each diagnostic's range comes from [Resolve], which prefers the
// finding's code snippet, then the first identifier on the line, then the line
// itself. Numeric severities map onto hint, warning and error tiers.
//
// [Session.ApplyFix] passes a suggested fix through the guard package's safety
// policy, asks the host's [Editor] to apply it, and then removes only the
// diagnostics whose ranges intersect the edit. Saving a file invalidates its
// cache entry but leaves its diagnostics in place until the next review.
//
// Rules packs (rules.go) let callers hide rules or categories and override the
// tier a rule is shown with.
package review
