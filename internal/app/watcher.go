package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/keyframer/internal/ports"
)

// DefaultDebounce is the quiet period after the last write before a video is processed.
const DefaultDebounce = 500 * time.Millisecond

// VideoExtensions lists the file extensions the watcher processes.
var VideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".m4v"}

// IsVideo reports whether path has a watched video extension.
func IsVideo(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range VideoExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Dir is the directory watched for new videos
	Dir string

	// Debounce is the quiet period per file; 0 uses DefaultDebounce
	Debounce time.Duration

	// Process is the template config; Source is set per video
	Process ProcessConfig

	// OnProcessed, if set, is called after each video
	OnProcessed func(ProcessResult, error)
}

// Watcher processes videos as they appear in a directory, one at a time.
type Watcher struct {
	cfg       WatcherConfig
	proc      *Processor
	logger    ports.Logger
	lifecycle *Lifecycle

	mu      sync.Mutex
	pending map[string]*time.Timer
	queue   chan string
}

// NewWatcher creates a watcher feeding proc.
func NewWatcher(cfg WatcherConfig, proc *Processor, logger ports.Logger) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{
		cfg:       cfg,
		proc:      proc,
		logger:    logger,
		lifecycle: NewLifecycle("watcher", logger),
		pending:   make(map[string]*time.Timer),
		queue:     make(chan string, 64),
	}
}

// State returns the watcher's lifecycle state.
func (w *Watcher) State() State { return w.lifecycle.State() }

// Run watches until ctx is cancelled. Processing errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	ctx, err := w.lifecycle.Start(ctx)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = w.lifecycle.TransitionTo(StateCrashed, "create watcher")
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.cfg.Dir); err != nil {
		_ = w.lifecycle.TransitionTo(StateCrashed, "watch dir")
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}

	w.lifecycle.Go(func() { w.processLoop(ctx) })
	_ = w.lifecycle.TransitionTo(StateRunning, "watching")
	w.logger.Info("watching for videos", ports.String("dir", w.cfg.Dir))

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return w.lifecycle.Stop(ShutdownTimeout)

		case event, ok := <-watcher.Events:
			if !ok {
				return w.lifecycle.Stop(ShutdownTimeout)
			}
			if !IsVideo(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounce(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return w.lifecycle.Stop(ShutdownTimeout)
			}
			w.logger.Warn("watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.queue <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			cfg := w.cfg.Process
			cfg.Source = path
			res, err := w.proc.Process(ctx, cfg)
			if err != nil {
				w.logger.Error("processing failed", ports.String("source", path), ports.Err(err))
			}
			if w.cfg.OnProcessed != nil {
				w.cfg.OnProcessed(res, err)
			}
		}
	}
}
