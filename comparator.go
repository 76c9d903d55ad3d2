// comparator.go: Activation order comparator and the ordered candidate map
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"reflect"
	"sort"
)

// ActivationCarrier is implemented by values that declare activation
// metadata. ExtensionClass implements it; extension instances may too.
type ActivationCarrier interface {
	Activation() *ActivationMetadata
}

// ActivationLookup resolves the activation metadata of a value.
type ActivationLookup func(v any) (*ActivationMetadata, bool)

// carrierLookup is the default ActivationLookup.
func carrierLookup(v any) (*ActivationMetadata, bool) {
	if c, ok := v.(ActivationCarrier); ok && !isNilValue(v) {
		if m := c.Activation(); m != nil {
			return m, true
		}
	}
	return nil, false
}

// ActivationComparator orders extension values by their declared activation
// order.
//
// Identical values compare equal. Otherwise orders are compared ascending
// (missing metadata counts as 0) and a tie returns 1, so two distinct values
// never compare equal. The comparator is therefore not symmetric on ties:
// a newly inserted key lands after every existing key of the same order.
type ActivationComparator struct {
	Lookup ActivationLookup
}

// NewActivationComparator returns a comparator using lookup, or the
// ActivationCarrier lookup when lookup is nil.
func NewActivationComparator(lookup ActivationLookup) ActivationComparator {
	if lookup == nil {
		lookup = carrierLookup
	}
	return ActivationComparator{Lookup: lookup}
}

// Compare returns -1, 0 or 1.
func (c ActivationComparator) Compare(a, b any) int {
	if sameValue(a, b) {
		return 0
	}
	oa, ob := c.orderOf(a), c.orderOf(b)
	if oa < ob {
		return -1
	}
	return 1
}

func (c ActivationComparator) orderOf(v any) int {
	lookup := c.Lookup
	if lookup == nil {
		lookup = carrierLookup
	}
	if m, ok := lookup(v); ok {
		return m.Order()
	}
	return 0
}

// CompareActivation compares a and b with the default comparator.
func CompareActivation(a, b any) int {
	return NewActivationComparator(nil).Compare(a, b)
}

// sameValue reports identity: the same pointer, or equal comparable values.
// Non-comparable values are never identical unless both are nil.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// activationOrderedMap keeps keys sorted by an ActivationComparator, mirroring
// a tree map: an insert that compares 0 with an existing key replaces it.
type activationOrderedMap[K any, V any] struct {
	cmp     ActivationComparator
	entries []orderedEntry[K, V]
}

type orderedEntry[K any, V any] struct {
	key   K
	value V
}

func newActivationOrderedMap[K any, V any](cmp ActivationComparator) *activationOrderedMap[K, V] {
	return &activationOrderedMap[K, V]{cmp: cmp}
}

// Put inserts key after every existing key it does not compare below.
func (m *activationOrderedMap[K, V]) Put(key K, value V) {
	for i := range m.entries {
		if m.cmp.Compare(key, m.entries[i].key) == 0 {
			m.entries[i].value = value
			return
		}
	}

	idx := sort.Search(len(m.entries), func(i int) bool {
		return m.cmp.Compare(key, m.entries[i].key) < 0
	})
	m.entries = append(m.entries, orderedEntry[K, V]{})
	copy(m.entries[idx+1:], m.entries[idx:])
	m.entries[idx] = orderedEntry[K, V]{key: key, value: value}
}

// Len returns the number of entries.
func (m *activationOrderedMap[K, V]) Len() int {
	return len(m.entries)
}

// Values returns the values in key order.
func (m *activationOrderedMap[K, V]) Values() []V {
	out := make([]V, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.value
	}
	return out
}

// Keys returns the keys in order.
func (m *activationOrderedMap[K, V]) Keys() []K {
	out := make([]K, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.key
	}
	return out
}
