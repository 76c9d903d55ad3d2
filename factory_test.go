// factory_test.go: Factory catalog tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCatalog_Register(t *testing.T) {
	c := NewFactoryCatalog()
	factory, _ := filterFactory("log")

	require.NoError(t, c.Register(" filters.log ", factory))

	got, ok := c.Lookup("filters.log")
	require.True(t, ok)
	v, err := got()
	require.NoError(t, err)
	assert.Equal(t, "log", v.(Filter).Name())

	t.Run("duplicate", func(t *testing.T) {
		err := c.Register("filters.log", factory)
		require.Error(t, err)
		assert.True(t, HasErrorCode(err, ErrCodeInvalidFactory))
	})

	t.Run("empty_ref", func(t *testing.T) {
		err := c.Register("  ", factory)
		require.Error(t, err)
		assert.True(t, HasErrorCode(err, ErrCodeInvalidFactory))
	})

	t.Run("nil_factory", func(t *testing.T) {
		err := c.Register("filters.nil", nil)
		require.Error(t, err)
		assert.True(t, HasErrorCode(err, ErrCodeInvalidFactory))
	})

	_, ok = c.Lookup("filters.unknown")
	assert.False(t, ok)
}

func TestFactoryCatalog_Refs(t *testing.T) {
	c := NewFactoryCatalog()
	c.MustRegister("z.last", Singleton(1))
	c.MustRegister("a.first", Singleton(2))

	assert.Equal(t, []string{"a.first", "z.last"}, c.Refs())
	assert.Panics(t, func() { c.MustRegister("a.first", Singleton(3)) })
}

func TestTypedAndSingleton(t *testing.T) {
	typed := Typed(func() (Filter, error) { return &testFilter{name: "typed"}, nil })
	v, err := typed()
	require.NoError(t, err)
	assert.Equal(t, "typed", v.(Filter).Name())

	failing := Typed(func() (Filter, error) { return nil, errors.New("nope") })
	_, err = failing()
	assert.EqualError(t, err, "nope")

	shared := &testFilter{name: "shared"}
	single := Singleton(shared)
	a, _ := single()
	b, _ := single()
	assert.Same(t, a, b)
}
