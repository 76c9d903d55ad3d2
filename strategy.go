// strategy.go: Discovery strategies and the process-wide strategy set
//
// A discovery strategy names a directory (namespace) holding extension
// registry files together with a priority. Strategies are enumerated once
// through a host-provided hook, sorted ascending by priority and installed
// as an immutable snapshot that can later be swapped atomically.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

// Built-in strategy directories.
const (
	InternalDirectory   = "META-INF/extensions/internal/"
	ExtensionsDirectory = "META-INF/extensions/"
	ServicesDirectory   = "META-INF/services/"
)

// DiscoveryStrategy describes one source of extension registry files.
// Values are immutable once constructed; use NewDiscoveryStrategy.
type DiscoveryStrategy struct {
	name                 string
	directory            string
	priority             int
	preferIsolatedLoader bool
	overridden           bool
	excludedPackages     []string
}

// StrategyOption configures a DiscoveryStrategy at construction time.
type StrategyOption func(*DiscoveryStrategy)

// WithStrategyPriority sets the strategy priority (lower is applied first).
func WithStrategyPriority(priority int) StrategyOption {
	return func(s *DiscoveryStrategy) { s.priority = priority }
}

// WithPreferIsolatedLoader makes the strategy read registry files from the
// extension point's own filesystem when one is configured.
func WithPreferIsolatedLoader(prefer bool) StrategyOption {
	return func(s *DiscoveryStrategy) { s.preferIsolatedLoader = prefer }
}

// WithOverridden lets definitions from this strategy replace names already
// defined by a higher-precedence strategy.
func WithOverridden(overridden bool) StrategyOption {
	return func(s *DiscoveryStrategy) { s.overridden = overridden }
}

// WithExcludedPackages skips factory references starting with any prefix.
func WithExcludedPackages(prefixes ...string) StrategyOption {
	return func(s *DiscoveryStrategy) {
		s.excludedPackages = append(s.excludedPackages, prefixes...)
	}
}

// NewDiscoveryStrategy builds an immutable strategy.
func NewDiscoveryStrategy(name, directory string, opts ...StrategyOption) DiscoveryStrategy {
	s := DiscoveryStrategy{
		name:      name,
		directory: directory,
		priority:  NormalPriority,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.excludedPackages = slices.Clone(s.excludedPackages)
	return s
}

// Name returns the strategy name.
func (s DiscoveryStrategy) Name() string { return s.name }

// Directory returns the lookup directory.
func (s DiscoveryStrategy) Directory() string { return s.directory }

// Priority implements Prioritized.
func (s DiscoveryStrategy) Priority() int { return s.priority }

// PreferIsolatedLoader reports whether the point's own filesystem is preferred.
func (s DiscoveryStrategy) PreferIsolatedLoader() bool { return s.preferIsolatedLoader }

// Overridden reports whether this strategy may replace already-defined names.
func (s DiscoveryStrategy) Overridden() bool { return s.overridden }

// ExcludedPackages returns a copy of the excluded factory prefixes.
func (s DiscoveryStrategy) ExcludedPackages() []string {
	return slices.Clone(s.excludedPackages)
}

// Excludes reports whether ref falls under an excluded prefix.
func (s DiscoveryStrategy) Excludes(ref string) bool {
	for _, prefix := range s.excludedPackages {
		if prefix != "" && strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return false
}

func (s DiscoveryStrategy) String() string {
	return fmt.Sprintf("%s(%s, priority=%d)", s.name, s.directory, s.priority)
}

// StrategyProvider produces one discovery strategy. Providers are what the
// enumeration hook returns; building a strategy may fail independently.
type StrategyProvider interface {
	Name() string
	Strategy() (DiscoveryStrategy, error)
}

// StrategyEnumerator is the host hook that lists every registered provider.
type StrategyEnumerator func() ([]StrategyProvider, error)

type staticProvider struct {
	strategy DiscoveryStrategy
}

func (p staticProvider) Name() string                         { return p.strategy.name }
func (p staticProvider) Strategy() (DiscoveryStrategy, error) { return p.strategy, nil }

// StaticStrategy wraps an already-built strategy as a provider.
func StaticStrategy(strategy DiscoveryStrategy) StrategyProvider {
	return staticProvider{strategy: strategy}
}

// StrategyProviderFunc adapts a function to StrategyProvider.
type StrategyProviderFunc struct {
	ProviderName string
	Build        func() (DiscoveryStrategy, error)
}

// Name implements StrategyProvider
func (f StrategyProviderFunc) Name() string { return f.ProviderName }

// Strategy implements StrategyProvider
func (f StrategyProviderFunc) Strategy() (DiscoveryStrategy, error) { return f.Build() }

// StrategyCatalog is an explicit registration point for strategy providers.
// Hosts register providers at startup and hand Enumerate to a StrategySet.
type StrategyCatalog struct {
	mu        sync.RWMutex
	providers []StrategyProvider
}

// NewStrategyCatalog creates an empty catalog.
func NewStrategyCatalog() *StrategyCatalog {
	return &StrategyCatalog{}
}

// DefaultStrategyCatalog returns a catalog holding the built-in strategies:
// internal, extensions and services.
func DefaultStrategyCatalog() *StrategyCatalog {
	c := NewStrategyCatalog()
	for _, s := range BuiltinStrategies() {
		_ = c.Register(StaticStrategy(s))
	}
	return c
}

// BuiltinStrategies returns the three built-in strategies in priority order.
func BuiltinStrategies() []DiscoveryStrategy {
	return []DiscoveryStrategy{
		NewDiscoveryStrategy("internal", InternalDirectory, WithStrategyPriority(MaxPriority)),
		NewDiscoveryStrategy("extensions", ExtensionsDirectory,
			WithStrategyPriority(NormalPriority), WithOverridden(true)),
		NewDiscoveryStrategy("services", ServicesDirectory, WithStrategyPriority(MinPriority)),
	}
}

// Register adds a provider. Provider names must be unique.
func (c *StrategyCatalog) Register(provider StrategyProvider) error {
	if provider == nil || provider.Name() == "" {
		return NewConfigValidationError("strategy provider must have a name", nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.providers {
		if p.Name() == provider.Name() {
			return NewConfigValidationError("strategy provider already registered: "+provider.Name(), nil)
		}
	}
	c.providers = append(c.providers, provider)
	return nil
}

// Enumerate implements StrategyEnumerator.
func (c *StrategyCatalog) Enumerate() ([]StrategyProvider, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.providers), nil
}

// StrategySet holds the active, priority-ordered discovery strategies.
//
// Reads never block writers: the active list is an immutable snapshot behind
// an atomic pointer and Replace swaps the pointer.
type StrategySet struct {
	enumerate StrategyEnumerator
	logger    Logger

	current atomic.Pointer[[]DiscoveryStrategy]
	loads   singleflight.Group
}

// NewStrategySet creates a set backed by the enumeration hook. Nothing is
// enumerated until LoadAll or the first Current call.
func NewStrategySet(enumerate StrategyEnumerator, logger any) *StrategySet {
	if enumerate == nil {
		enumerate = DefaultStrategyCatalog().Enumerate
	}
	return &StrategySet{
		enumerate: enumerate,
		logger:    NewLogger(logger),
	}
}

// LoadAll enumerates every provider, builds its strategy, sorts ascending by
// priority and installs the result.
//
// A provider that fails (error or panic) is skipped and reported in a single
// warning; the remaining strategies still load. A failing hook is returned
// to the caller and leaves the current list untouched.
func (s *StrategySet) LoadAll() ([]DiscoveryStrategy, error) {
	providers, err := s.enumerate()
	if err != nil {
		return nil, NewDiscoveryError("strategy enumeration failed", err)
	}

	strategies := make([]DiscoveryStrategy, 0, len(providers))
	var failures error
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		strategy, err := buildStrategy(provider)
		if err != nil {
			failures = multierr.Append(failures, NewStrategyError(provider.Name(), err))
			continue
		}
		strategies = append(strategies, strategy)
	}

	if failures != nil {
		s.logger.Warn("Some discovery strategies failed to load",
			"failed", len(multierr.Errors(failures)),
			"loaded", len(strategies),
			"error", failures)
	}

	SortByPriority(strategies)
	s.current.Store(&strategies)

	s.logger.Info("Discovery strategies loaded", "count", len(strategies))
	return slices.Clone(strategies), nil
}

// buildStrategy calls the provider, turning a panic into an error.
func buildStrategy(provider StrategyProvider) (strategy DiscoveryStrategy, err error) {
	defer recoverInto(&err, "strategy provider "+provider.Name())
	return provider.Strategy()
}

// Strategies returns a copy of the active strategies, loading them on first
// use. A hook failure is returned and nothing is installed, so the next call
// runs the hook again.
func (s *StrategySet) Strategies() ([]DiscoveryStrategy, error) {
	if list := s.current.Load(); list != nil {
		return slices.Clone(*list), nil
	}

	_, err, _ := s.loads.Do("load", func() (any, error) {
		if s.current.Load() != nil {
			return nil, nil
		}
		return s.LoadAll()
	})
	if err != nil {
		return nil, err
	}
	if list := s.current.Load(); list != nil {
		return slices.Clone(*list), nil
	}
	return nil, nil
}

// Current is Strategies for callers that cannot act on a failure: the error
// is logged and nil returned.
func (s *StrategySet) Current() []DiscoveryStrategy {
	list, err := s.Strategies()
	if err != nil {
		s.logger.Error("Failed to load discovery strategies", "error", err)
		return nil
	}
	return list
}

// Replace atomically installs strategies, sorted by priority. An empty list
// is ignored. Loaders that already scanned keep their class tables; use
// Registry.ReplaceStrategies to rescan them as well.
func (s *StrategySet) Replace(strategies []DiscoveryStrategy) bool {
	if len(strategies) == 0 {
		s.logger.Warn("Ignoring replacement with an empty strategy list")
		return false
	}

	next := slices.Clone(strategies)
	SortByPriority(next)
	s.current.Store(&next)

	s.logger.Info("Discovery strategies replaced", "count", len(next))
	return true
}

// Loaded reports whether a strategy list is installed.
func (s *StrategySet) Loaded() bool {
	return s.current.Load() != nil
}
