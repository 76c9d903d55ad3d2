// builder.go: Fluent API for wiring an extension point
//
// This module provides a builder that covers the common case of one
// extension point backed by a fresh or shared registry:
//
//	filters, err := goextensions.Simple[Filter]("filter").
//	    WithRootDir("/etc/myapp").
//	    WithFactory("filters.log", goextensions.Typed(NewLogFilter)).
//	    WithExtension("auth", NewAuthFilter, goextensions.WithActivation(
//	        goextensions.ActivationSpec{Groups: []string{"provider"}, Order: -10})).
//	    Build()
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"fmt"
	"io/fs"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// PointBuilder accumulates the configuration of one extension point.
// Mistakes are collected and reported together by Build.
type PointBuilder[T any] struct {
	point      string
	registry   *Registry
	opts       []RegistryOption
	strategies []DiscoveryStrategy
	factories  []factoryBinding
	extensions []extensionBinding[T]
	loaderOpts []LoaderOption
	errs       error
}

type factoryBinding struct {
	ref     string
	factory Factory
}

type extensionBinding[T any] struct {
	name    string
	factory func() (T, error)
	opts    []ClassOption
}

// Simple creates a builder with no logging and no metrics.
//
// Example:
//
//	filters, err := Simple[Filter]("filter").WithRootDir(".").Build()
func Simple[T any](point string) *PointBuilder[T] {
	return &PointBuilder[T]{point: point}
}

// Development creates a builder with a zap development logger and the
// in-memory metrics collector.
//
// Features enabled:
//   - Debug level console logging
//   - DefaultMetricsCollector, readable through Registry().Metrics()
func Development[T any](point string) *PointBuilder[T] {
	b := Simple[T](point)
	logger, err := zap.NewDevelopment()
	if err != nil {
		b.errs = multierr.Append(b.errs, fmt.Errorf("failed to create development logger: %w", err))
	} else {
		b.opts = append(b.opts, WithLogger(logger))
	}
	b.opts = append(b.opts, WithMetricsCollector(NewDefaultMetricsCollector()))
	return b
}

// Production creates a builder with a zap production logger and the
// in-memory metrics collector.
func Production[T any](point string) *PointBuilder[T] {
	b := Simple[T](point)
	logger, err := zap.NewProduction()
	if err != nil {
		b.errs = multierr.Append(b.errs, fmt.Errorf("failed to create production logger: %w", err))
	} else {
		b.opts = append(b.opts, WithLogger(logger))
	}
	b.opts = append(b.opts, WithMetricsCollector(NewDefaultMetricsCollector()))
	return b
}

// WithRegistry builds the point on an existing registry. Registry options
// set on the builder are then ignored.
func (b *PointBuilder[T]) WithRegistry(r *Registry) *PointBuilder[T] {
	if r == nil {
		b.errs = multierr.Append(b.errs, fmt.Errorf("registry cannot be nil"))
		return b
	}
	b.registry = r
	return b
}

// WithRootDir reads registry files from dir.
func (b *PointBuilder[T]) WithRootDir(dir string) *PointBuilder[T] {
	b.opts = append(b.opts, WithRootDir(dir))
	return b
}

// WithRootFS reads registry files from fsys.
func (b *PointBuilder[T]) WithRootFS(fsys fs.FS) *PointBuilder[T] {
	b.opts = append(b.opts, WithRootFS(fsys))
	return b
}

// WithLogger sets the logger; see NewLogger for accepted values.
func (b *PointBuilder[T]) WithLogger(logger any) *PointBuilder[T] {
	b.opts = append(b.opts, WithLogger(logger))
	return b
}

// WithMetrics reports registry activity to collector.
func (b *PointBuilder[T]) WithMetrics(collector MetricsCollector) *PointBuilder[T] {
	b.opts = append(b.opts, WithMetricsCollector(collector))
	return b
}

// WithStrategy adds a discovery strategy. Once any strategy is added the
// built-in ones are no longer used.
func (b *PointBuilder[T]) WithStrategy(strategy DiscoveryStrategy) *PointBuilder[T] {
	if strategy.Name() == "" || strategy.Directory() == "" {
		b.errs = multierr.Append(b.errs, fmt.Errorf("strategy %q must have a name and a directory", strategy.Name()))
		return b
	}
	b.strategies = append(b.strategies, strategy)
	return b
}

// WithFactory registers a factory reference for registry files to use.
func (b *PointBuilder[T]) WithFactory(ref string, factory Factory) *PointBuilder[T] {
	b.factories = append(b.factories, factoryBinding{ref: ref, factory: factory})
	return b
}

// WithExtension registers a programmatic extension.
func (b *PointBuilder[T]) WithExtension(name string, factory func() (T, error), opts ...ClassOption) *PointBuilder[T] {
	for _, e := range b.extensions {
		if e.name == name {
			b.errs = multierr.Append(b.errs, fmt.Errorf("extension '%s' already added", name))
			return b
		}
	}
	b.extensions = append(b.extensions, extensionBinding[T]{name: name, factory: factory, opts: opts})
	return b
}

// WithPointFS gives the point its own filesystem for isolated strategies.
func (b *PointBuilder[T]) WithPointFS(fsys fs.FS) *PointBuilder[T] {
	b.loaderOpts = append(b.loaderOpts, WithPointFS(fsys))
	return b
}

// Build creates the registry if needed and returns the point's loader.
//
// The build process:
//  1. Reports every error accumulated by the With methods
//  2. Creates the registry, or reuses the one given to WithRegistry
//  3. Installs the configured strategies
//  4. Registers factories, then the point and its programmatic extensions
//
// Nothing is scanned until the loader is first used.
func (b *PointBuilder[T]) Build() (*ExtensionLoader[T], error) {
	if b.errs != nil {
		return nil, b.errs
	}

	r := b.registry
	if r == nil {
		r = NewRegistry(b.opts...)
	}
	if len(b.strategies) > 0 {
		r.ReplaceStrategies(b.strategies)
	}

	var errs error
	for _, f := range b.factories {
		errs = multierr.Append(errs, r.RegisterFactory(f.ref, f.factory))
	}
	if errs != nil {
		return nil, errs
	}

	loader, err := LoaderFor[T](r, b.point, b.loaderOpts...)
	if err != nil {
		return nil, err
	}
	for _, e := range b.extensions {
		errs = multierr.Append(errs, loader.Register(e.name, e.factory, e.opts...))
	}
	if errs != nil {
		return nil, errs
	}

	r.Logger().Debug("Extension point built",
		"extension_point", b.point,
		"extensions", len(b.extensions),
		"factories", len(b.factories))
	return loader, nil
}
