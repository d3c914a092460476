// Package watch follows the XML inbox and hands new or rewritten filings to
// a handler once their writes have settled.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last write before a filing
// is handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler processes one filing. Errors are logged and do not stop the
// watcher.
type Handler func(ctx context.Context, path string) error

// Watcher watches one directory for XML filings.
type Watcher struct {
	dir      string
	handler  Handler
	debounce time.Duration
	scan     bool
	logger   *slog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	running bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithInitialScan makes Run handle the filings already present first.
func WithInitialScan() Option {
	return func(w *Watcher) { w.scan = true }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a watcher for dir.
func New(dir string, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		handler:  handler,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches until ctx is cancelled. Filings are handled one at a time in
// the order their debounce expires.
func (w *Watcher) Run(ctx context.Context) error {
	if w.handler == nil {
		return errors.New("watch: handler is required")
	}
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch: inbox error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch: inbox is not a directory: %s", w.dir)
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watch: already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: cannot create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: cannot watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching XML inbox", "dir", w.dir, "debounce", w.debounce)

	ready := make(chan string, 64)
	defer w.stopTimers()

	if w.scan {
		existing, err := Scan(w.dir)
		if err != nil {
			return err
		}
		for _, path := range existing {
			w.handle(ctx, path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("inbox watch stopped", "dir", w.dir)
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.filing(event); ok {
				w.schedule(ctx, path, ready)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watch error", "dir", w.dir, "error", err)

		case path := <-ready:
			w.handle(ctx, path)
		}
	}
}

// filing reports whether event concerns an XML filing worth handling.
func (w *Watcher) filing(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || !IsFiling(name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

// schedule (re)starts the debounce timer of path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.handler(ctx, path); err != nil {
		w.logger.Error("filing not handled", "path", path, "error", err)
		return
	}
	w.logger.Debug("filing handled", "path", path, "duration", time.Since(start))
}

// IsFiling reports whether name has the .xml extension.
func IsFiling(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xml")
}

// Scan lists the XML filings of dir, sorted by name.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: cannot read inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") && IsFiling(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
