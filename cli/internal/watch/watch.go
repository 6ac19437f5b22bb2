// Package watch re-runs a callback when a watched file changes.
package watch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 500 * time.Millisecond

// Watcher watches a single file and invokes a callback on change, debounced
// so editors that write in bursts trigger one run.
type Watcher struct {
	file     string
	callback func() error
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher creates a watcher over file.
func NewWatcher(file string, callback func() error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Watch the containing directory: editors often replace the file rather
	// than writing it in place.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		callback: callback,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the callback once, then again after every change until Stop.
func (w *Watcher) Start() error {
	if err := w.callback(); err != nil {
		return fmt.Errorf("initial run failed: %w", err)
	}

	debounceTimer := time.NewTimer(debounceInterval)
	debounceTimer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			eventPath, err := filepath.Abs(event.Name)
			if err == nil && eventPath == w.file {
				debounceTimer.Reset(debounceInterval)
				debounceCh = debounceTimer.C
			}

		case <-debounceCh:
			debounceCh = nil
			if err := w.callback(); err != nil {
				return err
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)

		case <-w.done:
			return nil
		}
	}
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}
