package review

import (
	"slices"
	"sync"
)

// Registry records the diagnostics currently shown for each file. It must
// mirror what the host renders.
type Registry struct {
	mu    sync.Mutex
	files map[string][]Diagnostic
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{files: make(map[string][]Diagnostic)}
}

// Set replaces the diagnostics for path.
func (r *Registry) Set(path string, diags []Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[path] = slices.Clone(diags)
}

// Get returns a copy of the diagnostics for path and whether path has an
// entry. An entry may be present and empty.
func (r *Registry) Get(path string) ([]Diagnostic, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	diags, ok := r.files[path]
	if !ok {
		return nil, false
	}
	return slices.Clone(diags), true
}

// Paths returns the files with an entry, sorted.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, 0, len(r.files))
	for p := range r.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// ApplyAndPrune drops every diagnostic for path whose range intersects
// edited and returns what remains, in order. An entry left with nothing stays
// as an empty list so the host knows to clear it. A path without an entry is
// left absent.
func (r *Registry) ApplyAndPrune(path string, edited Range) []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.files[path]
	if !ok {
		return nil
	}
	remaining := make([]Diagnostic, 0, len(existing))
	for _, d := range existing {
		if !d.Range.Intersects(edited) {
			remaining = append(remaining, d)
		}
	}
	r.files[path] = remaining
	return slices.Clone(remaining)
}
