package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchFile calls fn once per burst of writes to path, after the writes have
// been quiet for debounce. It returns when ctx is done. The parent directory
// is watched because many editors save by replacing the file.
func watchFile(ctx context.Context, path string, debounce time.Duration, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init failed: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	var (
		mu      sync.Mutex
		timer   *time.Timer
		running sync.WaitGroup
	)
	// fnMu keeps a slow fn from overlapping the next burst's call.
	var fnMu sync.Mutex
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			running.Done()
		}
		mu.Unlock()
		running.Wait()
	}()

	trigger := func() {
		defer running.Done()
		fnMu.Lock()
		defer fnMu.Unlock()
		if ctx.Err() != nil {
			return
		}
		fn()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			mu.Lock()
			if timer != nil && timer.Stop() {
				running.Done()
			}
			running.Add(1)
			timer = time.AfterFunc(debounce, trigger)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}
