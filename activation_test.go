// activation_test.go: Activation metadata and condition matching tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivationMetadata_Normalization(t *testing.T) {
	m := NewActivationMetadata(
		[]string{"provider", " ", "consumer", "provider"},
		[]string{"trace", "", "  cache "},
		7,
	)

	assert.Equal(t, []string{"provider", "consumer"}, m.Groups())
	assert.Equal(t, []string{"trace", "cache"}, m.Conditions())
	assert.Equal(t, 7, m.Order())
	assert.Equal(t, ActivationSpec{
		Groups:     []string{"provider", "consumer"},
		Conditions: []string{"trace", "cache"},
		Order:      7,
	}, m.Spec())
}

func TestActivationMetadata_NilIsPermissive(t *testing.T) {
	var m *ActivationMetadata

	assert.Nil(t, m.Groups())
	assert.Nil(t, m.Conditions())
	assert.Equal(t, 0, m.Order())
	assert.True(t, m.MatchesGroup("anything"))
	assert.True(t, m.IsActive(nil))
	assert.Equal(t, ActivationSpec{}, m.Spec())
}

func TestActivationMetadata_MatchesGroup(t *testing.T) {
	grouped := ActivationSpec{Groups: []string{"provider", "consumer"}}.Metadata()
	ungrouped := ActivationSpec{}.Metadata()

	tests := []struct {
		name     string
		meta     *ActivationMetadata
		group    string
		expected bool
	}{
		{"empty group matches grouped", grouped, "", true},
		{"declared group", grouped, "consumer", true},
		{"undeclared group", grouped, "admin", false},
		{"ungrouped matches any group", ungrouped, "admin", true},
		{"ungrouped matches empty group", ungrouped, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.meta.MatchesGroup(tt.group))
		})
	}
}

func TestActivationMetadata_IsActive(t *testing.T) {
	ctx := NewRequestContext(map[string]string{
		"trace": "on",
		"blank": "",
		"mode":  "fast",
	})

	tests := []struct {
		name       string
		conditions []string
		ctx        *RequestContext
		expected   bool
	}{
		{"no conditions", nil, nil, true},
		{"present key", []string{"trace"}, ctx, true},
		{"missing key", []string{"cache"}, ctx, false},
		{"blank value", []string{"blank"}, ctx, false},
		{"any condition suffices", []string{"cache", "trace"}, ctx, true},
		{"key value never matches", []string{"mode:fast"}, ctx, false},
		{"key value alongside bare key", []string{"mode:fast", "mode"}, ctx, true},
		{"nil context", []string{"trace"}, nil, false},
		{"empty key", []string{":x"}, ctx, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewActivationMetadata(nil, tt.conditions, 0)
			assert.Equal(t, tt.expected, m.IsActive(tt.ctx))
		})
	}
}

func TestActivationMetadata_IsImmutable(t *testing.T) {
	groups := []string{"provider"}
	m := NewActivationMetadata(groups, []string{"trace"}, 1)

	groups[0] = "mutated"
	out := m.Groups()
	out[0] = "changed"

	assert.Equal(t, []string{"provider"}, m.Groups())
	assert.True(t, m.MatchesGroup("provider"))
}
