// selector_property_test.go: Property-based tests for the activation selector
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"fmt"
	"slices"
	"testing"
	"testing/fstest"

	"pgregory.net/rapid"
)

type generatedRegistry struct {
	loader    *ExtensionLoader[Filter]
	names     []string
	activated map[string]bool
}

func drawRegistry(rt *rapid.T) generatedRegistry {
	r := NewRegistry(WithRootFS(fstest.MapFS{}))
	loader := MustLoaderFor[Filter](r, "filter")

	count := rapid.IntRange(1, 6).Draw(rt, "count")
	g := generatedRegistry{loader: loader, activated: make(map[string]bool)}
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("e%d", i)
		g.names = append(g.names, name)

		var opts []ClassOption
		if rapid.Bool().Draw(rt, name+"_activated") {
			spec := ActivationSpec{Order: rapid.IntRange(-3, 3).Draw(rt, name+"_order")}
			switch rapid.IntRange(0, 2).Draw(rt, name+"_groups") {
			case 1:
				spec.Groups = []string{"g1"}
			case 2:
				spec.Groups = []string{"g1", "g2"}
			}
			if rapid.Bool().Draw(rt, name+"_conditional") {
				spec.Conditions = []string{"k"}
			}
			opts = append(opts, WithActivation(spec))
			g.activated[name] = true
		}
		if err := loader.Register(name, newFilterFunc(name), opts...); err != nil {
			rt.Fatalf("register %s: %v", name, err)
		}
	}
	return g
}

func drawRequest(rt *rapid.T, names []string) ([]string, string, *RequestContext) {
	tokens := []string{DefaultKey, ExcludeDefaults}
	for _, n := range names {
		tokens = append(tokens, n, RemoveValuePrefix+n)
	}
	requested := rapid.SliceOfN(rapid.SampledFrom(tokens), 0, 8).Draw(rt, "requested")
	group := rapid.SampledFrom([]string{"", "g1", "g2", "other"}).Draw(rt, "group")

	var ctx *RequestContext
	if rapid.Bool().Draw(rt, "with_k") {
		ctx = NewRequestContext(map[string]string{"k": "v"})
	}
	return requested, group, ctx
}

func TestSelectorPropertyNoDuplicates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := drawRegistry(rt)
		requested, group, ctx := drawRequest(rt, g.names)

		result, err := g.loader.GetActivateExtensionNames(ctx, requested, group)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}

		seen := make(map[string]bool)
		for _, name := range result {
			if seen[name] {
				rt.Fatalf("duplicate %q in %v", name, result)
			}
			seen[name] = true
		}
	})
}

func TestSelectorPropertyDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := drawRegistry(rt)
		requested, group, ctx := drawRequest(rt, g.names)

		first, err := g.loader.GetActivateExtensionNames(ctx, requested, group)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		for i := 0; i < 3; i++ {
			again, err := g.loader.GetActivateExtensionNames(ctx, requested, group)
			if err != nil {
				rt.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(first, again) {
				rt.Fatalf("selection changed: %v then %v", first, again)
			}
		}
	})
}

func TestSelectorPropertyExcludeDefaults(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := drawRegistry(rt)
		requested, group, ctx := drawRequest(rt, g.names)
		requested = append(requested, ExcludeDefaults)

		result, err := g.loader.GetActivateExtensionNames(ctx, requested, group)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		for _, name := range result {
			if !slices.Contains(requested, name) {
				rt.Fatalf("%q was not requested but selected with %q: %v", name, ExcludeDefaults, result)
			}
		}
	})
}

func TestSelectorPropertyOnlyKnownSources(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := drawRegistry(rt)
		requested, group, ctx := drawRequest(rt, g.names)

		result, err := g.loader.GetActivateExtensionNames(ctx, requested, group)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		for _, name := range result {
			if !slices.Contains(requested, name) && !g.activated[name] {
				rt.Fatalf("%q is neither requested nor activated: %v", name, result)
			}
		}
	})
}
