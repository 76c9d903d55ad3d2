// activation.go: Activation metadata and condition matching
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"slices"
	"strings"

	goset "github.com/deckarep/golang-set/v2"
)

// Reserved names inside a requested-name list.
const (
	// RemoveValuePrefix marks a requested name as an exclusion.
	RemoveValuePrefix = "-"

	// DefaultKey marks where auto-discovered extensions are spliced in.
	DefaultKey = "default"

	// ExcludeDefaults opts out of every auto-discovered extension.
	ExcludeDefaults = RemoveValuePrefix + DefaultKey
)

// ActivationSpec is the declarative form of activation metadata, as written
// in registry files or passed to WithActivation.
type ActivationSpec struct {
	Groups     []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	Conditions []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Order      int      `json:"order,omitempty" yaml:"order,omitempty"`
}

// Metadata compiles the spec into immutable activation metadata.
func (s ActivationSpec) Metadata() *ActivationMetadata {
	return NewActivationMetadata(s.Groups, s.Conditions, s.Order)
}

// ActivationMetadata declares when an extension is automatically activated.
//
//   - groups: groups the extension participates in; empty means all groups
//   - conditions: "key" is satisfied when the request context carries a
//     non-empty value for key; "key:value" is parsed but never satisfied;
//     an empty list is always satisfied
//   - order: ascending activation order, 0 when unset
//
// Metadata is immutable and safe for concurrent use.
type ActivationMetadata struct {
	groups     goset.Set[string]
	groupList  []string
	conditions []activationCondition
	raw        []string
	order      int
}

type activationCondition struct {
	key      string
	value    string
	hasValue bool
}

// NewActivationMetadata builds metadata; blank groups and conditions are dropped.
func NewActivationMetadata(groups []string, conditions []string, order int) *ActivationMetadata {
	m := &ActivationMetadata{
		groups: goset.NewThreadUnsafeSet[string](),
		order:  order,
	}
	for _, g := range groups {
		if g = strings.TrimSpace(g); g != "" && m.groups.Add(g) {
			m.groupList = append(m.groupList, g)
		}
	}
	for _, c := range conditions {
		if c = strings.TrimSpace(c); c == "" {
			continue
		}
		m.raw = append(m.raw, c)
		m.conditions = append(m.conditions, parseCondition(c))
	}
	return m
}

func parseCondition(c string) activationCondition {
	key, value, found := strings.Cut(c, ":")
	return activationCondition{
		key:      strings.TrimSpace(key),
		value:    strings.TrimSpace(value),
		hasValue: found,
	}
}

// Groups returns the declared groups in declaration order.
func (m *ActivationMetadata) Groups() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.groupList)
}

// Conditions returns the declared conditions as written.
func (m *ActivationMetadata) Conditions() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.raw)
}

// Order returns the declared order; nil metadata has order 0.
func (m *ActivationMetadata) Order() int {
	if m == nil {
		return 0
	}
	return m.order
}

// MatchesGroup reports whether the extension participates in group. An empty
// group matches everything, and so does metadata without groups.
func (m *ActivationMetadata) MatchesGroup(group string) bool {
	if group == "" || m == nil || m.groups.Cardinality() == 0 {
		return true
	}
	return m.groups.Contains(group)
}

// IsActive reports whether the conditions are satisfied by ctx. Any single
// satisfied condition activates the extension.
//
// A "key:value" condition never matches, even when the context carries
// exactly that value. Callers that need value matching must not rely on it.
func (m *ActivationMetadata) IsActive(ctx *RequestContext) bool {
	if m == nil || len(m.conditions) == 0 {
		return true
	}
	for _, c := range m.conditions {
		if c.hasValue {
			continue
		}
		if c.key != "" && ctx.HasParameter(c.key) {
			return true
		}
	}
	return false
}

// Spec returns the declarative form of the metadata.
func (m *ActivationMetadata) Spec() ActivationSpec {
	if m == nil {
		return ActivationSpec{}
	}
	return ActivationSpec{
		Groups:     m.Groups(),
		Conditions: m.Conditions(),
		Order:      m.order,
	}
}
