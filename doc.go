// Package goextensions provides a type-safe extension registry for Go
// applications. For a declared extension point (a capability interface) it
// discovers named implementations from registry files and programmatic
// registrations, instantiates and caches them, and computes the ordered
// subset that is active for one invocation.
//
// Key Features:
//   - Type-safe extension points using Go generics
//   - Prioritized discovery strategies with override and exclusion rules
//   - Registry files in YAML, JSON or TOML
//   - Group and condition based activation with declared ordering
//   - Lazy, concurrency-safe class and instance caches
//   - Hot-reloading of registry files
//   - Pluggable structured logging
//
// Basic Usage:
//
//	type Filter interface {
//		Invoke(req Request) error
//	}
//
//	registry := goextensions.NewRegistry(goextensions.WithRootDir("/etc/myapp"))
//	registry.Factories().MustRegister("filters.log", goextensions.Typed(NewLogFilter))
//
//	filters := goextensions.MustLoaderFor[Filter](registry, "filter")
//	_ = filters.Register("auth", NewAuthFilter,
//		goextensions.WithActivation(goextensions.ActivationSpec{Groups: []string{"provider"}, Order: -10}))
//
//	// <root>/META-INF/extensions/filter.yaml
//	//   extensions:
//	//     - name: log
//	//       factory: filters.log
//	//       activate: {groups: [provider], conditions: [trace], order: 10}
//
//	ctx := goextensions.NewRequestContext(map[string]string{"trace": "on"})
//	active, err := filters.GetActivateExtensions(ctx, []string{"-auth", "default", "metrics"}, "provider")
//
// Requested names may exclude an extension ("-name"), disable auto-discovery
// ("-default") or place the auto-discovered extensions ("default").
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package goextensions
