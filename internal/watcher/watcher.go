// Package watcher re-runs generation when source files under a root change.
// Events are filtered by the extensions the extractor registry claims and
// coalesced over a quiet period, so an editor saving several files produces
// one callback.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period before a burst of events fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors source files for changes with debouncing and pause/resume support.
type Watcher interface {
	// Start begins watching, calling callback with each debounced batch of
	// changed paths (sorted, deduplicated).
	Start(ctx context.Context, callback func(changed []string)) error

	// Stop stops the watcher and waits for its goroutine to exit.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// Options configures a source watcher.
type Options struct {
	// Extensions to monitor, with the leading dot (".py", ".java").
	Extensions []string

	// SkipDir reports whether a directory should not be watched. The name
	// is the base name, the path is absolute.
	SkipDir func(name, path string) bool

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	Logger logrus.FieldLogger
}

type sourceWatcher struct {
	fsw        *fsnotify.Watcher
	root       string
	extensions map[string]bool
	skipDir    func(name, path string) bool
	debounce   time.Duration
	log        logrus.FieldLogger

	callback func(changed []string)
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex // guards paused, pending and timer
	paused  bool
	pending map[string]bool
	timer   *time.Timer

	stopOnce sync.Once
	doneCh   chan struct{}
}

// New creates a watcher over root and every directory below it.
func New(root string, opts Options) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &sourceWatcher{
		fsw:        fsw,
		root:       root,
		extensions: make(map[string]bool, len(opts.Extensions)),
		skipDir:    opts.SkipDir,
		debounce:   opts.Debounce,
		log:        opts.Logger,
		pending:    make(map[string]bool),
		doneCh:     make(chan struct{}),
	}
	for _, ext := range opts.Extensions {
		w.extensions[ext] = true
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = logrus.StandardLogger()
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *sourceWatcher) Start(ctx context.Context, callback func(changed []string)) error {
	if callback == nil {
		return nil
	}

	w.callback = callback
	w.ctx, w.cancel = context.WithCancel(ctx)

	go w.loop()
	return nil
}

func (w *sourceWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.fsw.Close()
	})
	return err
}

func (w *sourceWatcher) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = true
}

func (w *sourceWatcher) Resume() {
	w.mu.Lock()
	wasPaused := w.paused
	w.paused = false
	w.mu.Unlock()

	if wasPaused {
		w.flush()
	}
}

func (w *sourceWatcher) loop() {
	defer close(w.doneCh)

	fire := make(chan struct{}, 1)

	for {
		select {
		case <-w.ctx.Done():
			w.stopTimer()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.WithError(err).WithField("dir", event.Name).Warn("failed to watch new directory")
					}
				}
			}

			if !w.relevant(event) {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = true
			w.mu.Unlock()
			w.resetTimer(fire)

		case <-fire:
			w.mu.Lock()
			paused := w.paused
			w.mu.Unlock()
			if !paused {
				w.flush()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("file watcher error")
		}
	}
}

// flush hands the accumulated paths to the callback.
func (w *sourceWatcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(changed)
	w.log.WithField("files", len(changed)).Debug("source change detected")
	if w.callback != nil {
		w.callback(changed)
	}
}

func (w *sourceWatcher) resetTimer(fire chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *sourceWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// relevant keeps writes, creates, removes and renames of monitored extensions.
func (w *sourceWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.extensions[filepath.Ext(event.Name)]
}

// addTree adds dir and every non-skipped directory below it.
func (w *sourceWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.log.WithError(err).WithField("path", path).Warn("error accessing path")
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != w.root && w.skipDir != nil && w.skipDir(entry.Name(), path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.WithError(err).WithField("dir", path).Warn("failed to watch directory")
		}
		return nil
	})
}
