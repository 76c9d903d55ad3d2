// testing_helpers_test.go: Shared fixtures for extension registry tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

// Filter is the extension point used throughout the tests.
type Filter interface {
	Name() string
}

type testFilter struct {
	name string
}

func (f *testFilter) Name() string { return f.name }

// filterFactory returns a factory producing a *testFilter named name and a
// counter of how many times it ran.
func filterFactory(name string) (Factory, *atomic.Int32) {
	var calls atomic.Int32
	return func() (any, error) {
		calls.Add(1)
		return &testFilter{name: name}, nil
	}, &calls
}

// newFilterFunc is a typed constructor for programmatic registrations.
func newFilterFunc(name string) func() (Filter, error) {
	return func() (Filter, error) {
		return &testFilter{name: name}, nil
	}
}

// TestRegistryFixture bundles a registry backed by an in-memory filesystem
// with a capturing logger.
type TestRegistryFixture struct {
	t        *testing.T
	FS       fstest.MapFS
	Logger   *TestLogger
	Metrics  *DefaultMetricsCollector
	Registry *Registry
}

// NewTestRegistryFixture creates a fixture. files maps paths to registry
// file contents.
func NewTestRegistryFixture(t *testing.T, files map[string]string, opts ...RegistryOption) *TestRegistryFixture {
	t.Helper()

	fsys := fstest.MapFS{}
	for path, content := range files {
		fsys[path] = &fstest.MapFile{Data: []byte(content)}
	}

	logger := NewTestLogger()
	metrics := NewDefaultMetricsCollector()
	base := []RegistryOption{
		WithRootFS(fsys),
		WithLogger(logger),
		WithMetricsCollector(metrics),
	}

	return &TestRegistryFixture{
		t:        t,
		FS:       fsys,
		Logger:   logger,
		Metrics:  metrics,
		Registry: NewRegistry(append(base, opts...)...),
	}
}

// RegisterFilterFactories registers "filters.<name>" for every name.
func (f *TestRegistryFixture) RegisterFilterFactories(names ...string) {
	f.t.Helper()
	for _, name := range names {
		factory, _ := filterFactory(name)
		require.NoError(f.t, f.Registry.RegisterFactory("filters."+name, factory))
	}
}

// Filters returns the filter loader.
func (f *TestRegistryFixture) Filters() *ExtensionLoader[Filter] {
	f.t.Helper()
	loader, err := LoaderFor[Filter](f.Registry, "filter")
	require.NoError(f.t, err)
	return loader
}

// filterNames maps filters to their names.
func filterNames(filters []Filter) []string {
	names := make([]string, len(filters))
	for i, f := range filters {
		names[i] = f.Name()
	}
	return names
}

// registerActivated registers a programmatic filter with activation metadata.
func registerActivated(t *testing.T, loader *ExtensionLoader[Filter], name string, spec ActivationSpec) {
	t.Helper()
	require.NoError(t, loader.Register(name, newFilterFunc(name), WithActivation(spec)))
}

// registerPlain registers a programmatic filter without activation metadata.
func registerPlain(t *testing.T, loader *ExtensionLoader[Filter], name string) {
	t.Helper()
	require.NoError(t, loader.Register(name, newFilterFunc(name)))
}
