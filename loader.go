// loader.go: Per-extension-point class and instance caches
//
// An ExtensionLoader resolves the names an extension point supports, the
// class (factory plus activation metadata) behind each name and a singleton
// instance per name. Classes come from programmatic registrations and from
// the registry files of every discovery strategy, scanned lazily on first
// use and cached until Reload.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

// ProgrammaticSource is the Source of classes registered in code.
const ProgrammaticSource = "programmatic"

// ExtensionClass describes one named implementation of an extension point.
// Classes are immutable.
type ExtensionClass[T any] struct {
	name         string
	factoryRef   string
	source       string
	strategy     string
	activation   *ActivationMetadata
	build        func() (T, error)
	discoveredAt time.Time
}

// Name returns the extension name.
func (c *ExtensionClass[T]) Name() string { return c.name }

// FactoryRef returns the factory reference, empty for anonymous registrations.
func (c *ExtensionClass[T]) FactoryRef() string { return c.factoryRef }

// Source returns the registry file path or ProgrammaticSource.
func (c *ExtensionClass[T]) Source() string { return c.source }

// Strategy returns the name of the strategy that contributed the class.
func (c *ExtensionClass[T]) Strategy() string { return c.strategy }

// Activation implements ActivationCarrier.
func (c *ExtensionClass[T]) Activation() *ActivationMetadata { return c.activation }

// DiscoveredAt returns when the class entered the class table.
func (c *ExtensionClass[T]) DiscoveredAt() time.Time { return c.discoveredAt }

// IsProgrammatic reports whether the class was registered in code.
func (c *ExtensionClass[T]) IsProgrammatic() bool { return c.source == ProgrammaticSource }

func (c *ExtensionClass[T]) newInstance() (instance T, err error) {
	defer recoverInto(&err, "factory for extension "+c.name)
	return c.build()
}

// ClassOption configures a programmatic registration.
type ClassOption func(*classOptions)

type classOptions struct {
	activation *ActivationMetadata
	factoryRef string
}

// WithActivation attaches activation metadata to the registration.
func WithActivation(spec ActivationSpec) ClassOption {
	return func(o *classOptions) { o.activation = spec.Metadata() }
}

// WithActivationMetadata attaches pre-built activation metadata.
func WithActivationMetadata(m *ActivationMetadata) ClassOption {
	return func(o *classOptions) { o.activation = m }
}

// WithFactoryRef records the factory reference for diagnostics.
func WithFactoryRef(ref string) ClassOption {
	return func(o *classOptions) { o.factoryRef = ref }
}

// classTable is an immutable snapshot of the classes of one point.
type classTable[T any] struct {
	order       []string
	classes     map[string]*ExtensionClass[T]
	activations map[string]*ActivationMetadata
	failures    map[string]error
	loadedAt    time.Time
}

func newClassTable[T any]() *classTable[T] {
	return &classTable[T]{
		classes:     make(map[string]*ExtensionClass[T]),
		activations: make(map[string]*ActivationMetadata),
		failures:    make(map[string]error),
	}
}

func (t *classTable[T]) put(c *ExtensionClass[T]) {
	if _, exists := t.classes[c.name]; !exists {
		t.order = append(t.order, c.name)
	}
	t.classes[c.name] = c
	delete(t.failures, c.name)
	if c.activation != nil {
		t.activations[c.name] = c.activation
	} else {
		delete(t.activations, c.name)
	}
}

// LoaderStats summarizes the caches of one loader.
type LoaderStats struct {
	Point       string    `json:"point"`
	Classes     int       `json:"classes"`
	Activations int       `json:"activations"`
	Instances   int       `json:"instances"`
	Failures    int       `json:"failures"`
	Loaded      bool      `json:"loaded"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// ExtensionLoader resolves and caches the extensions of one point. Obtain
// one with LoaderFor; it is safe for concurrent use.
type ExtensionLoader[T any] struct {
	point    string
	registry *Registry
	pointFS  fs.FS
	logger   Logger

	mu           sync.Mutex
	programmatic []*ExtensionClass[T]

	table      atomic.Pointer[classTable[T]]
	generation atomic.Uint64
	tableLoads singleflight.Group

	instances     sync.Map
	instanceLoads singleflight.Group
}

// LoaderOption configures a loader when it is first created.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	pointFS fs.FS
}

// WithPointFS gives the point its own filesystem. Strategies that prefer an
// isolated loader read registry files from it instead of the registry root.
func WithPointFS(fsys fs.FS) LoaderOption {
	return func(o *loaderOptions) { o.pointFS = fsys }
}

func newExtensionLoader[T any](r *Registry, point string, opts loaderOptions) *ExtensionLoader[T] {
	return &ExtensionLoader[T]{
		point:    point,
		registry: r,
		pointFS:  opts.pointFS,
		logger:   r.logger.With("extension_point", point),
	}
}

// Point returns the extension point name.
func (l *ExtensionLoader[T]) Point() string { return l.point }

// Registry returns the registry the loader belongs to.
func (l *ExtensionLoader[T]) Registry() *Registry { return l.registry }

// Register adds a programmatic extension. Programmatic classes take
// precedence over registry files and keep registration order ahead of them.
func (l *ExtensionLoader[T]) Register(name string, factory func() (T, error), opts ...ClassOption) error {
	if err := ValidateExtensionName(name); err != nil {
		return err
	}
	if factory == nil {
		return NewInvalidFactoryError(name, "factory function cannot be nil")
	}

	var o classOptions
	for _, opt := range opts {
		opt(&o)
	}

	l.mu.Lock()
	for _, c := range l.programmatic {
		if c.name == name {
			l.mu.Unlock()
			return NewDuplicateRegistrationError(l.point, name)
		}
	}
	l.programmatic = append(l.programmatic, &ExtensionClass[T]{
		name:         name,
		factoryRef:   o.factoryRef,
		source:       ProgrammaticSource,
		activation:   o.activation,
		build:        factory,
		discoveredAt: timecache.CachedTime(),
	})
	l.mu.Unlock()

	l.invalidate()
	l.instances.Delete(name)

	l.logger.Debug("Extension registered", "extension_name", name)
	return nil
}

// RegisterInstance registers a ready-made singleton.
func (l *ExtensionLoader[T]) RegisterInstance(name string, instance T, opts ...ClassOption) error {
	return l.Register(name, func() (T, error) { return instance, nil }, opts...)
}

// Reload drops the class table, the activation cache and every instance.
// The next access rescans programmatic registrations and registry files.
func (l *ExtensionLoader[T]) Reload() {
	l.invalidate()
	l.instances.Clear()
	l.logger.Info("Extension loader reloaded")
}

func (l *ExtensionLoader[T]) invalidate() {
	l.generation.Add(1)
	l.table.Store(nil)
}

// classes returns the class table, scanning it on first use. Concurrent
// first calls share one scan; a scan that races with Reload is returned to
// its callers but not installed.
func (l *ExtensionLoader[T]) classes() (*classTable[T], error) {
	if t := l.table.Load(); t != nil {
		return t, nil
	}

	v, err, _ := l.tableLoads.Do("classes", func() (any, error) {
		if t := l.table.Load(); t != nil {
			return t, nil
		}
		gen := l.generation.Load()
		t, err := l.scan()
		if err != nil {
			return nil, err
		}
		if l.generation.Load() == gen {
			l.table.CompareAndSwap(nil, t)
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*classTable[T]), nil
}

// scan builds a class table. Programmatic classes come first, then every
// strategy in priority order. The first definition of a name wins unless a
// later strategy is marked overridden; programmatic classes are never
// replaced by files.
func (l *ExtensionLoader[T]) scan() (*classTable[T], error) {
	started := time.Now()
	t := newClassTable[T]()

	l.mu.Lock()
	programmatic := slices.Clone(l.programmatic)
	l.mu.Unlock()
	for _, c := range programmatic {
		t.put(c)
	}

	strategies, err := l.registry.strategies.Strategies()
	if err != nil {
		return nil, NewDiscoveryError(fmt.Sprintf("discovery strategies unavailable for point %s", l.point), err)
	}

	var errs error
	files := 0
	for _, strategy := range strategies {
		sources, err := readRegistryFiles(l.fsFor(strategy), strategy.Directory(), l.point)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		for _, src := range sources {
			files++
			for _, def := range src.file.Extensions {
				l.mergeDefinition(t, strategy, src.path, def)
			}
		}
	}

	if errs != nil {
		l.registry.metrics.IncrementCounter(MetricRegistryFilesRejected, l.labels(),
			int64(len(multierr.Errors(errs))))
		if files == 0 && len(t.classes) == 0 {
			return nil, NewDiscoveryError(fmt.Sprintf("no registry file could be loaded for point %s", l.point), errs)
		}
		l.logger.Warn("Some registry files were skipped",
			"failed", len(multierr.Errors(errs)),
			"error", errs)
	}

	t.loadedAt = timecache.CachedTime()
	l.registry.metrics.IncrementCounter(MetricClassScans, l.labels(), 1)
	l.registry.metrics.RecordHistogram(MetricClassScanSeconds, l.labels(), time.Since(started).Seconds())
	l.registry.metrics.SetGauge(MetricClassesLoaded, l.labels(), float64(len(t.classes)))
	l.logger.Debug("Extension classes loaded",
		"classes", len(t.classes),
		"activations", len(t.activations),
		"registry_files", files)
	return t, nil
}

func (l *ExtensionLoader[T]) mergeDefinition(t *classTable[T], strategy DiscoveryStrategy, source string, def ExtensionDef) {
	if strategy.Excludes(def.Factory) {
		l.logger.Debug("Extension excluded by strategy",
			"extension_name", def.Name,
			"factory_ref", def.Factory,
			"strategy", strategy.Name())
		return
	}

	existing, exists := t.classes[def.Name]
	switch {
	case exists && existing.IsProgrammatic():
		l.logger.Debug("Registry definition shadowed by programmatic registration",
			"extension_name", def.Name, "registry_path", source)
		return
	case exists && !strategy.Overridden():
		if existing.factoryRef != def.Factory {
			l.logger.Warn("Duplicate extension name ignored",
				"extension_name", def.Name,
				"kept", existing.source,
				"ignored", source)
		}
		return
	}

	factory, ok := l.registry.factories.Lookup(def.Factory)
	if !ok {
		if !exists {
			t.failures[def.Name] = NewFactoryNotFoundError(def.Factory).
				WithContext("extension_name", def.Name).
				WithContext("registry_path", source)
		}
		l.logger.Warn("Extension factory not registered",
			"extension_name", def.Name,
			"factory_ref", def.Factory,
			"registry_path", source)
		return
	}

	if exists {
		l.logger.Info("Extension overridden by strategy",
			"extension_name", def.Name,
			"strategy", strategy.Name(),
			"replaced", existing.source)
	}
	t.put(&ExtensionClass[T]{
		name:         def.Name,
		factoryRef:   def.Factory,
		source:       source,
		strategy:     strategy.Name(),
		activation:   def.Metadata(),
		build:        l.typedFactory(def.Name, factory),
		discoveredAt: timecache.CachedTime(),
	})
}

// typedFactory asserts the factory result against the point type.
func (l *ExtensionLoader[T]) typedFactory(name string, factory Factory) func() (T, error) {
	return func() (T, error) {
		var zero T
		v, err := factory()
		if err != nil {
			return zero, err
		}
		typed, ok := v.(T)
		if !ok {
			return zero, NewExtensionTypeMismatchError(l.point, name, fmt.Sprintf("%T", v))
		}
		return typed, nil
	}
}

func (l *ExtensionLoader[T]) fsFor(strategy DiscoveryStrategy) fs.FS {
	if strategy.PreferIsolatedLoader() && l.pointFS != nil {
		return l.pointFS
	}
	return l.registry.root
}

// labels returns the metric labels of the point plus extra key/value pairs.
func (l *ExtensionLoader[T]) labels(kv ...string) map[string]string {
	labels := map[string]string{"point": l.point}
	for i := 0; i+1 < len(kv); i += 2 {
		labels[kv[i]] = kv[i+1]
	}
	return labels
}

// SupportedNames returns every known name in registry order.
func (l *ExtensionLoader[T]) SupportedNames() ([]string, error) {
	t, err := l.classes()
	if err != nil {
		return nil, err
	}
	return slices.Clone(t.order), nil
}

// HasExtension reports whether name is known.
func (l *ExtensionLoader[T]) HasExtension(name string) bool {
	t, err := l.classes()
	if err != nil {
		return false
	}
	_, ok := t.classes[name]
	return ok
}

// Class returns the class registered under name.
func (l *ExtensionLoader[T]) Class(name string) (*ExtensionClass[T], error) {
	t, err := l.classes()
	if err != nil {
		return nil, err
	}
	if c, ok := t.classes[name]; ok {
		return c, nil
	}
	if cause, ok := t.failures[name]; ok {
		return nil, cause
	}
	return nil, NewExtensionNotFoundError(l.point, name)
}

// ActivationMetadata returns the cached activation metadata of name.
func (l *ExtensionLoader[T]) ActivationMetadata(name string) (*ActivationMetadata, bool) {
	t, err := l.classes()
	if err != nil {
		return nil, false
	}
	m, ok := t.activations[name]
	return m, ok
}

// Extension returns the singleton instance for name, creating it on first
// use. Concurrent first calls for the same name construct it once. An
// instance built while Reload runs is returned but not cached.
func (l *ExtensionLoader[T]) Extension(name string) (T, error) {
	var zero T
	if v, ok := l.instances.Load(name); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	gen := l.generation.Load()
	class, err := l.Class(name)
	if err != nil {
		return zero, err
	}

	v, err, _ := l.instanceLoads.Do(name, func() (any, error) {
		if v, ok := l.instances.Load(name); ok {
			return v, nil
		}
		instance, err := class.newInstance()
		if err == nil && any(instance) == nil {
			err = NewExtensionTypeMismatchError(l.point, name, "<nil>")
		}
		if err != nil {
			l.registry.metrics.IncrementCounter(MetricInstantiationFailures, l.labels("extension", name), 1)
			l.logger.Error("Extension instantiation failed", "extension_name", name, "error", err)
			return nil, NewInstantiationFailedError(l.point, name, err)
		}
		l.registry.metrics.IncrementCounter(MetricInstancesCreated, l.labels("extension", name), 1)
		if l.generation.Load() != gen {
			return instance, nil
		}
		actual, _ := l.instances.LoadOrStore(name, instance)
		return actual, nil
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, NewExtensionTypeMismatchError(l.point, name, fmt.Sprintf("%T", v))
	}
	return typed, nil
}

// LoadedExtensions returns the names with a constructed instance, sorted.
func (l *ExtensionLoader[T]) LoadedExtensions() []string {
	var names []string
	l.instances.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	slices.Sort(names)
	return names
}

// Stats reports cache sizes without triggering a scan.
func (l *ExtensionLoader[T]) Stats() LoaderStats {
	stats := LoaderStats{
		Point:     l.point,
		Instances: len(l.LoadedExtensions()),
	}
	if t := l.table.Load(); t != nil {
		stats.Loaded = true
		stats.Classes = len(t.classes)
		stats.Activations = len(t.activations)
		stats.Failures = len(t.failures)
		stats.LoadedAt = t.loadedAt
	}
	return stats
}

// watchPaths returns the on-disk registry file candidates of the point for
// every strategy that reads from the registry root directory.
func (l *ExtensionLoader[T]) watchPaths() []string {
	if l.registry.rootDir == "" {
		return nil
	}
	var paths []string
	for _, strategy := range l.registry.strategies.Current() {
		if strategy.PreferIsolatedLoader() && l.pointFS != nil {
			continue
		}
		for _, p := range registryFilePaths(strategy.Directory(), l.point) {
			paths = append(paths, filepath.Join(l.registry.rootDir, filepath.FromSlash(p)))
		}
	}
	return paths
}
