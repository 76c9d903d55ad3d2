// factory.go: Factory catalog resolving registry-file references to constructors
//
// Registry files cannot name Go types, so each file entry points at a
// factory reference registered here by the host, typically from an init
// function or the program's wiring code.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"slices"
	"strings"
	"sync"
)

// Factory constructs one extension instance.
type Factory func() (any, error)

// FactoryCatalog maps factory references to constructors. It is safe for
// concurrent use.
type FactoryCatalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewFactoryCatalog creates an empty catalog.
func NewFactoryCatalog() *FactoryCatalog {
	return &FactoryCatalog{factories: make(map[string]Factory)}
}

// Register binds ref to factory. References must be unique.
func (c *FactoryCatalog) Register(ref string, factory Factory) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return NewInvalidFactoryError(ref, "factory reference cannot be empty")
	}
	if factory == nil {
		return NewInvalidFactoryError(ref, "factory function cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.factories[ref]; exists {
		return NewInvalidFactoryError(ref, "factory reference already registered")
	}
	c.factories[ref] = factory
	return nil
}

// MustRegister is Register for init-time wiring; it panics on error.
func (c *FactoryCatalog) MustRegister(ref string, factory Factory) {
	if err := c.Register(ref, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the factory bound to ref.
func (c *FactoryCatalog) Lookup(ref string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[ref]
	return f, ok
}

// Refs returns every registered reference, sorted.
func (c *FactoryCatalog) Refs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	refs := make([]string, 0, len(c.factories))
	for ref := range c.factories {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	return refs
}

// Typed adapts a typed constructor to a Factory.
func Typed[T any](build func() (T, error)) Factory {
	return func() (any, error) {
		return build()
	}
}

// Singleton adapts a ready-made value to a Factory.
func Singleton(v any) Factory {
	return func() (any, error) {
		return v, nil
	}
}
