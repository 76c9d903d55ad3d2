// request_context.go: per-invocation condition parameters
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"maps"
	"strings"
)

// RequestContext carries the key/value parameters activation conditions are
// evaluated against. It is created per invocation; the zero value and a nil
// pointer are both valid empty contexts.
type RequestContext struct {
	params map[string]string
}

// NewRequestContext copies params into a new context.
func NewRequestContext(params map[string]string) *RequestContext {
	return &RequestContext{params: maps.Clone(params)}
}

// WithParameter returns a copy of the context with key set to value.
func (c *RequestContext) WithParameter(key, value string) *RequestContext {
	next := make(map[string]string, c.Len()+1)
	if c != nil {
		maps.Copy(next, c.params)
	}
	next[key] = value
	return &RequestContext{params: next}
}

// Parameter returns the value stored for key and whether it was present.
func (c *RequestContext) Parameter(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.params[key]
	return v, ok
}

// GetParameter returns the value stored for key, or "" when unset.
func (c *RequestContext) GetParameter(key string) string {
	v, _ := c.Parameter(key)
	return v
}

// HasParameter reports whether key carries a non-empty value.
func (c *RequestContext) HasParameter(key string) bool {
	return c.GetParameter(key) != ""
}

// Names splits the comma-joined value of key into trimmed, non-empty names.
func (c *RequestContext) Names(key string) []string {
	return SplitNames(c.GetParameter(key))
}

// Len returns the number of parameters.
func (c *RequestContext) Len() int {
	if c == nil {
		return 0
	}
	return len(c.params)
}

// Parameters returns a copy of all parameters.
func (c *RequestContext) Parameters() map[string]string {
	if c == nil {
		return map[string]string{}
	}
	return maps.Clone(c.params)
}

// SplitNames splits a comma-joined name list, trimming blanks and dropping
// empty entries.
func SplitNames(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
