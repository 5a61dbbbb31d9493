// Package lsp hosts a review session as a language server.
//
// The server keeps open documents in memory, publishes diagnostics after a
// review, offers a quick fix for each diagnostic that carries one, and applies
// fixes through the client's workspace/applyEdit request. Two commands are
// exposed: lens.runReview with [uri] and lens.applyFix with [uri, range, fix].
package lsp
