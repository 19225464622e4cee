// Package watch monitors an open document file for external changes.
package watch

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Change describes what happened to the watched document.
type Change int

const (
	// Modified means the file contents changed on disk.
	Modified Change = iota
	// Removed means the file was deleted or renamed away.
	Removed
)

func (c Change) String() string {
	switch c {
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Watcher watches a single document file and reports changes. Changes to an
// open document invalidate any cached extraction, so the owner typically
// stops playback and reloads.
type Watcher struct {
	mu      sync.Mutex
	fw      *fsnotify.Watcher
	path    string
	onEvent func(Change)
	done    chan struct{}
	log     *slog.Logger
}

// New creates a watcher that invokes onEvent for each change to path.
// onEvent is called from the watcher goroutine; it must not block.
func New(path string, onEvent func(Change), log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	w := &Watcher{
		fw:      fw,
		path:    path,
		onEvent: onEvent,
		done:    make(chan struct{}),
		log:     log,
	}
	go w.loop(fw)
	return w, nil
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fw == nil {
		return nil
	}
	err := w.fw.Close()
	w.fw = nil
	<-w.done
	return err
}

func (w *Watcher) loop(fw *fsnotify.Watcher) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			switch {
			case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
				w.log.Warn("watched document removed", "path", w.path, "op", event.Op.String())
				w.onEvent(Removed)
			case event.Op.Has(fsnotify.Write):
				w.log.Info("watched document modified", "path", w.path)
				w.onEvent(Modified)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", "path", w.path, "error", err)
		}
	}
}
