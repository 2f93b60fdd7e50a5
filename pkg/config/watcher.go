package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the configuration file for changes and republishes a
// freshly loaded, validated *Config as an atomically-swapped snapshot. It
// never mutates a *Config already handed out — each reload produces a new
// value, so a request that has already resolved a candidate keeps using
// the Config it started with.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	current atomic.Pointer[Config]

	mu      sync.Mutex
	fw      *fsnotify.Watcher
	running bool
}

// NewWatcher loads path once (failing fast if it is invalid) and returns a
// Watcher seeded with that snapshot.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: path, debounce: 150 * time.Millisecond, logger: logger}
	w.current.Store(cfg)
	return w, nil
}

// Current returns the most recently loaded valid snapshot.
func (w *Watcher) Current() *Config {
	return w.current.Load()
}

// Watch blocks, reloading the config file on every write/create event until
// ctx is cancelled. A reload that fails validation is logged and discarded;
// the previous snapshot remains current.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("config: watcher already running")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("config: creating watcher: %w", err)
	}
	if err := fw.Add(w.path); err != nil {
		fw.Close()
		w.mu.Unlock()
		return fmt.Errorf("config: watching %q: %w", w.path, err)
	}
	w.fw = fw
	w.running = true
	w.mu.Unlock()

	defer func() {
		fw.Close()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	var timer *time.Timer
	reload := func() {
		cfg, err := LoadConfig(w.path)
		if err != nil {
			w.logger.Error("config reload failed, keeping previous snapshot", "path", w.path, "error", err)
			return
		}
		w.current.Store(cfg)
		w.logger.Info("config reloaded", "path", w.path)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("config: watcher events channel closed")
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("config: watcher errors channel closed")
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}
