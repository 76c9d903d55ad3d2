// request_context_test.go: Request context tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestContext_Parameters(t *testing.T) {
	params := map[string]string{"filter": "log,auth", "trace": ""}
	ctx := NewRequestContext(params)
	params["filter"] = "mutated"

	v, ok := ctx.Parameter("filter")
	assert.True(t, ok)
	assert.Equal(t, "log,auth", v)

	v, ok = ctx.Parameter("trace")
	assert.True(t, ok)
	assert.Empty(t, v)
	assert.False(t, ctx.HasParameter("trace"))
	assert.True(t, ctx.HasParameter("filter"))
	assert.Equal(t, 2, ctx.Len())
}

func TestRequestContext_NilAndZero(t *testing.T) {
	var nilCtx *RequestContext
	var zero RequestContext

	for _, ctx := range []*RequestContext{nilCtx, &zero} {
		_, ok := ctx.Parameter("x")
		assert.False(t, ok)
		assert.Empty(t, ctx.GetParameter("x"))
		assert.False(t, ctx.HasParameter("x"))
		assert.Nil(t, ctx.Names("x"))
		assert.Equal(t, 0, ctx.Len())
		assert.Empty(t, ctx.Parameters())
	}
}

func TestRequestContext_WithParameter(t *testing.T) {
	var base *RequestContext
	first := base.WithParameter("a", "1")
	second := first.WithParameter("b", "2")

	assert.Equal(t, map[string]string{"a": "1"}, first.Parameters())
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, second.Parameters())
}

func TestSplitNames(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"   ", nil},
		{"log", []string{"log"}},
		{"log, auth ,,-cache", []string{"log", "auth", "-cache"}},
		{" ,default, ", []string{"default"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitNames(tt.input))
		})
	}
}
