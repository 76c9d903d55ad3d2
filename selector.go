// selector.go: Activation selector
//
// The selector computes the ordered list of extensions active for one
// invocation. Requested names may contain:
//
//	"-name"     exclude name from auto-discovery
//	"-default"  disable auto-discovery entirely
//	"default"   splice the auto-discovered extensions at this position
//
// Auto-discovered extensions are those whose activation metadata matches
// the group and whose conditions are satisfied by the request context. They
// are ordered by activation order; explicit names keep the order given.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"strings"

	goset "github.com/deckarep/golang-set/v2"
)

type activeExtension[T any] struct {
	name     string
	instance T
}

// GetActivateExtensions returns the instances active for ctx, names and
// group. A nil ctx is an empty context; an empty group matches every group.
// An unknown explicit name is an error.
func (l *ExtensionLoader[T]) GetActivateExtensions(ctx *RequestContext, names []string, group string) ([]T, error) {
	active, err := l.selectActive(ctx, names, group)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(active))
	for i, a := range active {
		out[i] = a.instance
	}
	return out, nil
}

// GetActivateExtensionsByKey reads the requested names from the
// comma-separated context parameter key.
func (l *ExtensionLoader[T]) GetActivateExtensionsByKey(ctx *RequestContext, key, group string) ([]T, error) {
	return l.GetActivateExtensions(ctx, ctx.Names(key), group)
}

// GetActivateExtensionNames runs the same selection and returns the names.
func (l *ExtensionLoader[T]) GetActivateExtensionNames(ctx *RequestContext, names []string, group string) ([]string, error) {
	active, err := l.selectActive(ctx, names, group)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(active))
	for i, a := range active {
		out[i] = a.name
	}
	return out, nil
}

func (l *ExtensionLoader[T]) selectActive(ctx *RequestContext, names []string, group string) ([]activeExtension[T], error) {
	names = cleanNames(names)
	requested := goset.NewThreadUnsafeSet[string](names...)
	selected := goset.NewThreadUnsafeSet[string]()

	var result []activeExtension[T]
	if !requested.Contains(ExcludeDefaults) {
		discovered, err := l.discoverActive(ctx, requested, selected, group)
		if err != nil {
			return nil, err
		}
		result = discovered
	}

	var pending []activeExtension[T]
	for _, name := range names {
		if strings.HasPrefix(name, RemoveValuePrefix) {
			continue
		}
		if name == DefaultKey {
			result = append(pending, result...)
			pending = nil
			continue
		}
		if !selected.Add(name) {
			l.registry.metrics.IncrementCounter(MetricDuplicateNamesIgnored, l.labels(), 1)
			l.logger.Warn("Repeated extension name ignored",
				"extension_name", name,
				"reason", "requested more than once",
				"group", group)
			continue
		}
		instance, err := l.Extension(name)
		if err != nil {
			return nil, err
		}
		pending = append(pending, activeExtension[T]{name: name, instance: instance})
	}

	result = append(result, pending...)
	l.registry.metrics.IncrementCounter(MetricSelections, l.labels("group", group), 1)
	l.registry.metrics.RecordHistogram(MetricSelectedExtensions, l.labels("group", group), float64(len(result)))
	return result, nil
}

// discoverActive walks the classes with activation metadata in registry
// order and returns those matching group and ctx, sorted by activation order.
// Every selected name is added to selected.
func (l *ExtensionLoader[T]) discoverActive(ctx *RequestContext, requested, selected goset.Set[string], group string) ([]activeExtension[T], error) {
	t, err := l.classes()
	if err != nil {
		return nil, err
	}

	ordered := newActivationOrderedMap[*ExtensionClass[T], activeExtension[T]](NewActivationComparator(nil))
	for _, name := range t.order {
		meta, ok := t.activations[name]
		if !ok {
			continue
		}
		if !meta.MatchesGroup(group) {
			continue
		}
		if requested.Contains(name) || requested.Contains(RemoveValuePrefix+name) {
			continue
		}
		if !meta.IsActive(ctx) {
			continue
		}
		if selected.Contains(name) {
			continue
		}

		instance, err := l.Extension(name)
		if err != nil {
			return nil, err
		}
		ordered.Put(t.classes[name], activeExtension[T]{name: name, instance: instance})
		selected.Add(name)
	}
	return ordered.Values(), nil
}

// cleanNames trims every name and drops blanks.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
