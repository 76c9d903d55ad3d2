// registry.go: Process-wide extension registry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

// pointLoader is the type-erased view of an ExtensionLoader.
type pointLoader interface {
	Point() string
	Reload()
	Stats() LoaderStats
	watchPaths() []string
}

// Registry owns the discovery strategies, the factory catalog and one
// loader per extension point. Hosts normally create one per process and
// pass it to the code that needs extensions.
type Registry struct {
	strategies *StrategySet
	factories  *FactoryCatalog
	root       fs.FS
	rootDir    string
	logger     Logger
	metrics    MetricsCollector
	enumerate  StrategyEnumerator

	mu      sync.Mutex
	loaders map[string]pointLoader
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRootFS reads registry files from fsys.
func WithRootFS(fsys fs.FS) RegistryOption {
	return func(r *Registry) {
		r.root = fsys
		r.rootDir = ""
	}
}

// WithRootDir reads registry files from a directory on disk. Only a
// directory root can be watched for changes.
func WithRootDir(dir string) RegistryOption {
	return func(r *Registry) {
		r.root = os.DirFS(dir)
		r.rootDir = dir
	}
}

// WithStrategySet installs a prepared strategy set.
func WithStrategySet(set *StrategySet) RegistryOption {
	return func(r *Registry) { r.strategies = set }
}

// WithStrategyEnumerator discovers strategies through hook instead of the
// default catalog.
func WithStrategyEnumerator(hook StrategyEnumerator) RegistryOption {
	return func(r *Registry) { r.enumerate = hook }
}

// WithFactoryCatalog shares an existing factory catalog.
func WithFactoryCatalog(catalog *FactoryCatalog) RegistryOption {
	return func(r *Registry) { r.factories = catalog }
}

// WithLogger sets the logger; see NewLogger for accepted values.
func WithLogger(logger any) RegistryOption {
	return func(r *Registry) { r.logger = NewLogger(logger) }
}

// WithMetricsCollector reports registry activity to collector.
func WithMetricsCollector(collector MetricsCollector) RegistryOption {
	return func(r *Registry) { r.metrics = collector }
}

// NewRegistry creates a registry. Without options it uses the default
// strategy catalog, an empty factory catalog, no registry file root, a
// no-op logger and no metrics.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:  NewLogger(nil),
		loaders: make(map[string]pointLoader),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.strategies == nil {
		r.strategies = NewStrategySet(r.enumerate, r.logger)
	}
	if r.factories == nil {
		r.factories = NewFactoryCatalog()
	}
	if r.metrics == nil {
		r.metrics = NoOpMetricsCollector{}
	}
	return r
}

// Strategies returns the strategy set.
func (r *Registry) Strategies() *StrategySet { return r.strategies }

// Factories returns the factory catalog.
func (r *Registry) Factories() *FactoryCatalog { return r.factories }

// Logger returns the registry logger.
func (r *Registry) Logger() Logger { return r.logger }

// Metrics returns the metrics collector.
func (r *Registry) Metrics() MetricsCollector { return r.metrics }

// RegisterFactory is shorthand for Factories().Register.
func (r *Registry) RegisterFactory(ref string, factory Factory) error {
	return r.factories.Register(ref, factory)
}

// LoaderFor returns the loader of point, creating it on first use. Options
// only apply on creation. Asking for a point already bound to another type
// is an error.
func LoaderFor[T any](r *Registry, point string, opts ...LoaderOption) (*ExtensionLoader[T], error) {
	if err := validatePointName(point); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.loaders[point]; ok {
		loader, ok := existing.(*ExtensionLoader[T])
		if !ok {
			return nil, NewInvalidExtensionPointError(point).
				WithContext("bound_type", fmt.Sprintf("%T", existing))
		}
		return loader, nil
	}

	var o loaderOptions
	for _, opt := range opts {
		opt(&o)
	}
	loader := newExtensionLoader[T](r, point, o)
	r.loaders[point] = loader
	r.logger.Debug("Extension point created", "extension_point", point)
	return loader, nil
}

// MustLoaderFor is LoaderFor for wiring code; it panics on error.
func MustLoaderFor[T any](r *Registry, point string, opts ...LoaderOption) *ExtensionLoader[T] {
	loader, err := LoaderFor[T](r, point, opts...)
	if err != nil {
		panic(err)
	}
	return loader
}

// Points returns the names of the created extension points, sorted.
func (r *Registry) Points() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	points := make([]string, 0, len(r.loaders))
	for p := range r.loaders {
		points = append(points, p)
	}
	slices.Sort(points)
	return points
}

// Reload reloads the named points, or every point when none is given.
func (r *Registry) Reload(points ...string) {
	for _, l := range r.snapshot(points) {
		l.Reload()
	}
}

// ReplaceStrategies installs strategies and reloads every point, so points
// that already scanned pick up the new strategy list. An empty list is
// ignored and nothing is reloaded.
func (r *Registry) ReplaceStrategies(strategies []DiscoveryStrategy) {
	if r.strategies.Replace(strategies) {
		r.Reload()
	}
}

// Stats returns the stats of every point, sorted by point name.
func (r *Registry) Stats() []LoaderStats {
	loaders := r.snapshot(nil)
	stats := make([]LoaderStats, 0, len(loaders))
	for _, l := range loaders {
		stats = append(stats, l.Stats())
	}
	return stats
}

func (r *Registry) snapshot(points []string) []pointLoader {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []pointLoader
	if len(points) == 0 {
		for _, l := range r.loaders {
			out = append(out, l)
		}
	} else {
		for _, p := range points {
			if l, ok := r.loaders[p]; ok {
				out = append(out, l)
			}
		}
	}
	slices.SortFunc(out, func(a, b pointLoader) int {
		return strings.Compare(a.Point(), b.Point())
	})
	return out
}

// validatePointName accepts names usable as a registry file base name.
func validatePointName(point string) error {
	if point == "" || point == "." || point == ".." {
		return NewInvalidExtensionPointError(point)
	}
	if !fs.ValidPath(point) || strings.ContainsAny(point, "/\\") {
		return NewInvalidExtensionPointError(point)
	}
	return nil
}
