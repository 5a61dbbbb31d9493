// Package cache holds analyzer findings per file, keyed by modification time.
//
// A cached entry is reused only while its recorded modification time exactly
// equals the file's current one; there is no tolerance window and no content
// hashing, so touching a file forces a fresh analysis even when its bytes are
// unchanged. Every lookup stats the file. Entries are never evicted, only
// replaced or invalidated (the host invalidates on save).
//
// A Store can optionally persist entries as JSON files under a directory
// (default $XDG_CACHE_HOME/lens) so that short-lived CLI runs share results.
package cache
