package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/patchc/pkg/logging"
)

// ChangeEvent represents a batch of changes to watched files
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches a set of files for writes. Directories are watched
// rather than the files themselves, so editors that replace a file on save
// are still noticed.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for the given files.
func NewFileWatcher(paths ...string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: w,
		files:   make(map[string]bool),
		events:  make(chan ChangeEvent, 16),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		fw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return fw, nil
}

// Start begins forwarding changes until ctx is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) {
	logging.Info("watching for changes", "files", len(fw.files))
	go fw.processEvents(ctx)
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !fw.files[abs] {
				continue
			}
			logging.Trace("file changed", "path", abs, "op", event.Op.String())
			select {
			case fw.events <- ChangeEvent{Paths: []string{abs}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Watch calls onChange with every debounced batch of changed paths until
// ctx is cancelled.
func Watch(ctx context.Context, quietPeriod time.Duration, onChange func(paths []string), paths ...string) error {
	fw, err := NewFileWatcher(paths...)
	if err != nil {
		return err
	}
	fw.Start(ctx)

	d := NewDebouncer(fw.Events(), quietPeriod, 10*quietPeriod)
	d.Start(ctx)
	for event := range d.Output() {
		onChange(event.Paths)
	}
	return ctx.Err()
}
