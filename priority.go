// priority.go: total ordering over values that may expose a priority
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"cmp"
	"math"
	"reflect"
	"slices"
)

// Priority bounds. Lower values sort first.
const (
	MaxPriority    = math.MinInt
	NormalPriority = 0
	MinPriority    = math.MaxInt
)

// Prioritized is implemented by values that carry an explicit priority.
type Prioritized interface {
	Priority() int
}

// ComparePriority orders two arbitrary values:
//   - both Prioritized: ascending by Priority()
//   - only one Prioritized: that one sorts first
//   - neither: equal
//
// A nil value sorts before a non-nil one and two nils are equal. Equal
// priority says nothing about identity.
func ComparePriority(a, b any) int {
	aNil, bNil := isNilValue(a), isNilValue(b)
	if aNil || bNil {
		switch {
		case aNil && bNil:
			return 0
		case aNil:
			return -1
		default:
			return 1
		}
	}

	pa, aok := a.(Prioritized)
	pb, bok := b.(Prioritized)
	switch {
	case aok && bok:
		return cmp.Compare(pa.Priority(), pb.Priority())
	case aok:
		return -1
	case bok:
		return 1
	default:
		return 0
	}
}

// SortByPriority sorts items in place with ComparePriority. The sort is
// stable, so ties keep declaration order.
func SortByPriority[E any](items []E) {
	slices.SortStableFunc(items, func(a, b E) int {
		return ComparePriority(a, b)
	})
}

// isNilValue reports whether v is nil or a typed nil (pointer, map, ...).
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
