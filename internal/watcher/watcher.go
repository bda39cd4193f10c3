// Package watcher reports files that appear in a directory once they stop
// changing.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Config contains configuration for the file watcher.
type Config struct {
	// Dir is the directory to watch. Subdirectories are not watched.
	Dir string

	// Debounce is how long a file must be quiet before it is reported
	// (default: 500ms).
	Debounce time.Duration

	// Extensions limits the files reported (e.g. ".csv", ".xlsx"). Empty
	// reports every file.
	Extensions []string
}

// FileWatcher watches a directory and reports settled files.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	config   Config
	debounce *Debouncer

	mu      sync.Mutex
	running bool
}

// New creates a watcher. Call Watch to start it.
func New(config Config, logger zerolog.Logger) (*FileWatcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}

	info, err := os.Stat(config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", config.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", config.Dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  w,
		logger:   logger.With().Str("component", "watcher").Logger(),
		config:   config,
		debounce: NewDebouncer(config.Debounce),
	}, nil
}

// Watch blocks until ctx is cancelled, calling onFile with the path of each
// created or modified file after it has been quiet for the debounce
// interval. Callbacks for different files may run concurrently.
func (fw *FileWatcher) Watch(ctx context.Context, onFile func(path string)) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return errors.New("watcher already running")
	}
	fw.running = true
	fw.mu.Unlock()

	defer func() {
		fw.debounce.Stop()
		fw.watcher.Close()
	}()

	if err := fw.watcher.Add(fw.config.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", fw.config.Dir, err)
	}

	fw.logger.Info().
		Str("dir", fw.config.Dir).
		Dur("debounce", fw.config.Debounce).
		Msg("file watcher started")

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info().Msg("file watcher stopped")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !fw.shouldProcessEvent(event) {
				continue
			}

			fw.logger.Debug().
				Str("path", event.Name).
				Str("op", event.Op.String()).
				Msg("file event detected")

			path := event.Name
			fw.debounce.Trigger(path, func() {
				if _, err := os.Stat(path); err != nil {
					// Removed or renamed before it settled.
					return
				}
				onFile(path)
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			fw.logger.Error().Err(err).Msg("file watcher error")
		}
	}
}

// shouldProcessEvent reports whether an event concerns a file to report.
func (fw *FileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}

	return fw.hasValidExtension(strings.ToLower(filepath.Ext(base)))
}

// hasValidExtension checks if a file extension should be watched.
func (fw *FileWatcher) hasValidExtension(ext string) bool {
	if len(fw.config.Extensions) == 0 {
		return true
	}
	for _, valid := range fw.config.Extensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}

// =============================================================================
// DEBOUNCER
// =============================================================================

// Debouncer delays a callback per key until no new trigger for that key
// arrived during the interval.
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		timers:   make(map[string]*time.Timer),
	}
}

// Trigger (re)starts the quiet period for key. Only the callback of the
// latest trigger runs.
func (d *Debouncer) Trigger(key string, callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		current := d.timers[key] == timer
		if current {
			delete(d.timers, key)
		}
		stopped := d.stopped
		d.mu.Unlock()

		if current && !stopped {
			callback()
		}
	})
	d.timers[key] = timer
}

// Pending returns the number of keys waiting for their quiet period.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels all pending callbacks. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
