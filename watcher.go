// watcher.go: Registry file watching powered by Argus
//
// A RegistryWatcher polls the registry files of a set of extension points
// and reloads a point when one of its files is created, modified or removed.
// Only registries rooted in a directory on disk can be watched.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
	"github.com/agilira/go-timecache"
)

// maxWatchedRegistryFiles bounds the number of files handed to Argus.
const maxWatchedRegistryFiles = 1024

// WatcherStats reports watcher activity.
type WatcherStats struct {
	WatchedFiles int       `json:"watched_files"`
	Reloads      int64     `json:"reloads"`
	LastReload   time.Time `json:"last_reload"`
}

// RegistryWatcher reloads extension points when their registry files change.
type RegistryWatcher struct {
	registry *Registry
	watcher  *argus.Watcher
	logger   Logger
	config   WatchConfig

	mu      sync.Mutex
	targets map[string][]string // file path -> points

	running    atomic.Bool
	stopped    atomic.Bool
	stopOnce   sync.Once
	reloads    atomic.Int64
	lastReload atomic.Int64
}

// NewRegistryWatcher creates a watcher for r. Zero durations in cfg take
// the DefaultWatchConfig values.
func NewRegistryWatcher(r *Registry, cfg WatchConfig) (*RegistryWatcher, error) {
	if r == nil {
		return nil, NewWatcherError("registry cannot be nil", nil)
	}
	if r.rootDir == "" {
		return nil, NewWatcherError("registry has no root directory to watch", nil)
	}

	defaults := DefaultWatchConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.CacheTTL <= 0 || cfg.CacheTTL > cfg.PollInterval {
		cfg.CacheTTL = min(defaults.CacheTTL, cfg.PollInterval)
	}

	logger := r.logger.With("component", "registry_watcher")
	watcher := argus.New(argus.Config{
		PollInterval:         cfg.PollInterval,
		CacheTTL:             cfg.CacheTTL,
		MaxWatchedFiles:      maxWatchedRegistryFiles,
		Audit:                cfg.Audit,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, filepath string) {
			logger.Error("Argus file watching error", "error", err, "file", filepath)
		},
	})

	return &RegistryWatcher{
		registry: r,
		watcher:  watcher,
		logger:   logger,
		config:   cfg,
		targets:  make(map[string][]string),
	}, nil
}

// Start watches the registry files of the given points, or of every point
// created so far when none is given, and starts polling. A stopped watcher
// cannot be restarted.
func (w *RegistryWatcher) Start(points ...string) error {
	if w.stopped.Load() {
		return NewWatcherError("registry watcher has been stopped and cannot be restarted", nil)
	}
	if !w.running.CompareAndSwap(false, true) {
		return NewWatcherError("registry watcher is already running", nil)
	}

	targets := w.collectTargets(points)
	if len(targets) > maxWatchedRegistryFiles {
		w.running.Store(false)
		return NewWatcherError(fmt.Sprintf("%d registry files exceed the watch limit of %d",
			len(targets), maxWatchedRegistryFiles), nil)
	}

	w.mu.Lock()
	w.targets = targets
	w.mu.Unlock()

	for path := range targets {
		if err := w.watcher.Watch(path, w.handleChange); err != nil {
			w.running.Store(false)
			return NewWatcherError("failed to watch registry file", err).
				WithContext("path", path)
		}
	}

	if err := w.watcher.Start(); err != nil {
		w.running.Store(false)
		return NewWatcherError("failed to start Argus watcher", err)
	}

	w.logger.Info("Registry watcher started",
		"watched_files", len(targets),
		"poll_interval", w.config.PollInterval)
	return nil
}

// Stop stops polling. It is safe to call more than once; only the first
// call stops Argus.
func (w *RegistryWatcher) Stop() error {
	var stopErr error
	w.stopOnce.Do(func() {
		w.stopped.Store(true)
		if !w.running.CompareAndSwap(true, false) {
			return
		}
		if err := w.watcher.Stop(); err != nil {
			stopErr = NewWatcherError("failed to stop Argus watcher", err)
			return
		}
		w.logger.Info("Registry watcher stopped")
	})
	return stopErr
}

// IsRunning reports whether the watcher is polling.
func (w *RegistryWatcher) IsRunning() bool { return w.running.Load() }

// WatchedFiles returns the watched paths, sorted.
func (w *RegistryWatcher) WatchedFiles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.targets))
	for p := range w.targets {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Stats returns watcher statistics.
func (w *RegistryWatcher) Stats() WatcherStats {
	w.mu.Lock()
	watched := len(w.targets)
	w.mu.Unlock()

	stats := WatcherStats{
		WatchedFiles: watched,
		Reloads:      w.reloads.Load(),
	}
	if ns := w.lastReload.Load(); ns > 0 {
		stats.LastReload = time.Unix(0, ns)
	}
	return stats
}

func (w *RegistryWatcher) collectTargets(points []string) map[string][]string {
	targets := make(map[string][]string)
	for _, l := range w.registry.snapshot(points) {
		for _, p := range l.watchPaths() {
			if abs, err := filepath.Abs(p); err == nil {
				p = abs
			}
			if !slices.Contains(targets[p], l.Point()) {
				targets[p] = append(targets[p], l.Point())
			}
		}
	}
	return targets
}

// handleChange reloads the points that read the changed file.
func (w *RegistryWatcher) handleChange(event argus.ChangeEvent) {
	defer withStackRecover(w.logger)()

	path := filepath.Clean(event.Path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	w.mu.Lock()
	points := slices.Clone(w.targets[path])
	w.mu.Unlock()

	if len(points) == 0 {
		w.logger.Debug("Change on unwatched file ignored", "path", path)
		return
	}

	w.logger.Info("Registry file change detected",
		"path", path,
		"points", points,
		"is_create", event.IsCreate,
		"is_delete", event.IsDelete,
		"is_modify", event.IsModify)

	w.registry.Reload(points...)
	w.reloads.Add(1)
	w.lastReload.Store(timecache.CachedTimeNano())
}
