// Package watch re-probes the theme when the variable stylesheets change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/lesstheme/pkg/theme"
	"github.com/gnana997/lesstheme/pkg/util"
)

// DefaultDebounceMs groups the burst of events an editor save produces.
const DefaultDebounceMs = 200

// Source reads and prepares the theme. *theme.Builder implements it.
type Source interface {
	Inline() (varText, framework string, files []string, err error)
	PrepareText(ctx context.Context, varText, framework string, files []string) (*theme.Prepared, error)
}

// Options configures a Watcher.
type Options struct {
	// DebounceMs is the quiet period before a rebuild. Zero uses
	// DefaultDebounceMs.
	DebounceMs int

	// Cache is invalidated for every changed file when set.
	Cache util.FileCache
}

// Watcher watches the variable file and everything it imports.
//
// **Features:**
//   - Debouncing - a burst of saves triggers one rebuild
//   - Short-circuit - no rebuild when the inlined text did not change
//   - Import tracking - files added by a new @import are picked up
//
// **Usage:**
//
//	w, err := watch.New(builder, onChange, watch.Options{}, logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
//	defer w.Stop()
type Watcher struct {
	watcher  *fsnotify.Watcher
	source   Source
	onChange func(*theme.Prepared)
	logger   *slog.Logger
	options  Options

	// Watched state
	stateMu  sync.Mutex
	files    map[string]bool
	dirs     map[string]bool
	lastText string

	// Debouncing
	debounceMu sync.Mutex
	timer      *time.Timer
	rebuildMu  sync.Mutex

	// Lifecycle
	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex

	rebuilds atomic.Int64
	skipped  atomic.Int64
	failures atomic.Int64
}

// New creates a watcher that calls onChange after every rebuild.
func New(source Source, onChange func(*theme.Prepared), options Options, logger *slog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if options.DebounceMs == 0 {
		options.DebounceMs = DefaultDebounceMs
	}
	if onChange == nil {
		onChange = func(*theme.Prepared) {}
	}

	return &Watcher{
		watcher:  watcher,
		source:   source,
		onChange: onChange,
		logger:   logger,
		options:  options,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		stopChan: make(chan struct{}),
	}, nil
}

// Start reads the current variable text and begins watching. Rebuilds
// run with ctx until Stop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("watcher already stopped")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	varText, framework, files, err := w.source.Inline()
	if err != nil {
		return err
	}

	w.stateMu.Lock()
	w.lastText = fingerprint(varText, framework)
	w.stateMu.Unlock()

	if err := w.track(files); err != nil {
		return err
	}

	w.logger.Info("variable watcher started", "files", len(files))

	go w.eventLoop()
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	if w.cancel != nil {
		w.cancel()
	}

	w.debounceMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.debounceMu.Unlock()

	err := w.watcher.Close()
	w.logger.Info("variable watcher stopped")
	return err
}

func fingerprint(varText, framework string) string {
	return varText + "\x00" + framework
}

// track watches the directory of every file. Editors replace files by
// rename, so directories are watched rather than the files themselves.
func (w *Watcher) track(files []string) error {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	return nil
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	w.stateMu.Lock()
	watched := w.files[path]
	w.stateMu.Unlock()
	if !watched {
		return
	}

	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
		return
	}

	w.logger.Debug("file event", "op", event.Op.String(), "file", path)

	if w.options.Cache != nil {
		w.options.Cache.Invalidate(path)
	}
	w.debounceRebuild()
}

// debounceRebuild schedules a rebuild after the quiet period, replacing
// any rebuild already scheduled.
func (w *Watcher) debounceRebuild() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(time.Duration(w.options.DebounceMs)*time.Millisecond, w.rebuild)
}

func (w *Watcher) rebuild() {
	w.rebuildMu.Lock()
	defer w.rebuildMu.Unlock()

	if w.ctx.Err() != nil {
		return
	}

	varText, framework, files, err := w.source.Inline()
	if err != nil {
		// A save in progress can leave an import dangling; the next
		// event retries.
		w.failures.Add(1)
		w.logger.Warn("failed to read variables", "error", err)
		return
	}

	text := fingerprint(varText, framework)
	w.stateMu.Lock()
	unchanged := text == w.lastText
	w.stateMu.Unlock()
	if unchanged {
		w.skipped.Add(1)
		w.logger.Debug("variables unchanged, skipping rebuild")
		return
	}

	if err := w.track(files); err != nil {
		w.logger.Warn("failed to watch imported files", "error", err)
	}

	start := time.Now()
	prepared, err := w.source.PrepareText(w.ctx, varText, framework, files)
	if err != nil {
		w.failures.Add(1)
		w.logger.Error("theme rebuild failed", "error", err)
		return
	}

	w.stateMu.Lock()
	w.lastText = text
	w.stateMu.Unlock()

	w.rebuilds.Add(1)
	w.logger.Info("theme rebuilt",
		"names", len(prepared.Probe.Mapping),
		"ms", time.Since(start).Milliseconds())
	w.onChange(prepared)
}

// GetStats returns watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.stateMu.Lock()
	files := len(w.files)
	w.stateMu.Unlock()

	w.mu.Lock()
	running := w.ctx != nil && !w.stopped
	w.mu.Unlock()

	return Stats{
		Files:     files,
		Rebuilds:  w.rebuilds.Load(),
		Skipped:   w.skipped.Load(),
		Failures:  w.failures.Load(),
		IsRunning: running,
	}
}

// Stats contains watcher statistics.
type Stats struct {
	Files     int
	Rebuilds  int64
	Skipped   int64
	Failures  int64
	IsRunning bool
}
