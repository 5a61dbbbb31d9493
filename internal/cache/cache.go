package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/dshills/lens/internal/analyzer"
)

// Entry is the cached analysis of one file.
type Entry struct {
	Path     string             `json:"path"`
	ModTime  time.Time          `json:"modTime"`
	Findings []analyzer.Finding `json:"findings"`
	StoredAt time.Time          `json:"storedAt"`
}

// Lookup is the result of checking the cache for a file.
type Lookup struct {
	// ModTime is the file's modification time as read by this lookup. Callers
	// store fresh results under it.
	ModTime  time.Time
	Findings []analyzer.Finding
	Hit      bool
}

// StatFunc returns the modification time of path.
type StatFunc func(path string) (time.Time, error)

// Store caches analyzer findings keyed by file path. An entry is valid only
// while its modification time equals the file's current one.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	dir     string
	stat    StatFunc
}

// Option configures a Store.
type Option func(*Store)

// WithStat replaces the file system stat used by Lookup.
func WithStat(fn StatFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.stat = fn
		}
	}
}

// New creates a Store. When dir is non-empty, entries are also persisted there
// so that later processes can reuse them.
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		entries: make(map[string]Entry),
		dir:     dir,
		stat:    osStat,
	}
	for _, opt := range opts {
		opt(s)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	return s, nil
}

// Lookup stats path and reports whether a still-valid entry exists. The stat
// happens on every call, hit or miss.
func (s *Store) Lookup(path string) (Lookup, error) {
	modTime, err := s.stat(path)
	if err != nil {
		return Lookup{}, fmt.Errorf("reading modification time: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[path]
	if !ok {
		entry, ok = s.load(path)
		if ok {
			s.entries[path] = entry
		}
	}
	if !ok || !entry.ModTime.Equal(modTime) {
		return Lookup{ModTime: modTime}, nil
	}
	return Lookup{ModTime: modTime, Findings: entry.Findings, Hit: true}, nil
}

// Put replaces any entry for path.
func (s *Store) Put(path string, modTime time.Time, findings []analyzer.Finding) error {
	entry := Entry{
		Path:     path,
		ModTime:  modTime,
		Findings: findings,
		StoredAt: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[path] = entry
	if s.dir == "" {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return os.WriteFile(s.entryPath(path), data, 0o644)
}

// Invalidate removes the entry for path, whether or not it is still valid.
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, path)
	if s.dir != "" {
		os.Remove(s.entryPath(path))
	}
}

// Len returns the number of entries held in memory.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear removes all entries, including persisted ones.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	if s.dir == "" {
		return nil
	}
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, f := range files {
		if filepath.Ext(f.Name()) == ".json" {
			os.Remove(filepath.Join(s.dir, f.Name()))
		}
	}
	return nil
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir,omitempty"`
	Memory     int    `json:"memory"`
	Persisted  int    `json:"persisted"`
	TotalBytes int64  `json:"totalBytes"`
	Stale      int    `json:"stale"`
}

// GetStats reports what the store holds. A persisted entry is stale when its
// file is gone or has been modified since it was analyzed.
func (s *Store) GetStats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Stats{Dir: s.dir, Memory: len(s.entries)}
	if s.dir == "" {
		return stats, nil
	}
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".json" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		stats.Persisted++
		stats.TotalBytes += info.Size()

		entry, ok := readEntry(filepath.Join(s.dir, f.Name()))
		if !ok {
			stats.Stale++
			continue
		}
		if modTime, err := s.stat(entry.Path); err != nil || !modTime.Equal(entry.ModTime) {
			stats.Stale++
		}
	}
	return stats, nil
}

// Dir returns the persistence directory, or "" for a memory-only store.
func (s *Store) Dir() string {
	return s.dir
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

func (s *Store) load(path string) (Entry, bool) {
	if s.dir == "" {
		return Entry{}, false
	}
	entry, ok := readEntry(s.entryPath(path))
	if !ok || entry.Path != path {
		return Entry{}, false
	}
	return entry, true
}

func readEntry(file string) (Entry, bool) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false
	}
	return entry, true
}

func (s *Store) entryPath(path string) string {
	return filepath.Join(s.dir, HashKey(path)+".json")
}

func osStat(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// DefaultDir returns the OS-appropriate persistent cache directory.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "lens"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "lens"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "lens", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "lens", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "lens"), nil
	}
}
