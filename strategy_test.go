// strategy_test.go: Discovery strategy and strategy set tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strategyNames(strategies []DiscoveryStrategy) []string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	return names
}

func TestDiscoveryStrategy_Options(t *testing.T) {
	prefixes := []string{"legacy.", "vendor."}
	s := NewDiscoveryStrategy("custom", "plugins/",
		WithStrategyPriority(42),
		WithPreferIsolatedLoader(true),
		WithOverridden(true),
		WithExcludedPackages(prefixes...))
	prefixes[0] = "mutated."

	assert.Equal(t, "custom", s.Name())
	assert.Equal(t, "plugins/", s.Directory())
	assert.Equal(t, 42, s.Priority())
	assert.True(t, s.PreferIsolatedLoader())
	assert.True(t, s.Overridden())
	assert.Equal(t, []string{"legacy.", "vendor."}, s.ExcludedPackages())
	assert.Equal(t, "custom(plugins/, priority=42)", s.String())

	assert.True(t, s.Excludes("legacy.filters.log"))
	assert.True(t, s.Excludes("vendor.x"))
	assert.False(t, s.Excludes("filters.legacy"))
}

func TestDiscoveryStrategy_Defaults(t *testing.T) {
	s := NewDiscoveryStrategy("plain", "dir/")

	assert.Equal(t, NormalPriority, s.Priority())
	assert.False(t, s.PreferIsolatedLoader())
	assert.False(t, s.Overridden())
	assert.Empty(t, s.ExcludedPackages())
	assert.False(t, s.Excludes("anything"))
}

func TestBuiltinStrategies(t *testing.T) {
	builtin := BuiltinStrategies()
	require.Len(t, builtin, 3)

	assert.Equal(t, []string{"internal", "extensions", "services"}, strategyNames(builtin))
	assert.Equal(t, InternalDirectory, builtin[0].Directory())
	assert.Equal(t, MaxPriority, builtin[0].Priority())
	assert.True(t, builtin[1].Overridden())
	assert.Equal(t, MinPriority, builtin[2].Priority())
}

func TestStrategyCatalog_Register(t *testing.T) {
	c := NewStrategyCatalog()
	require.NoError(t, c.Register(StaticStrategy(NewDiscoveryStrategy("a", "a/"))))

	err := c.Register(StaticStrategy(NewDiscoveryStrategy("a", "other/")))
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeConfigValidationError))

	err = c.Register(nil)
	require.Error(t, err)

	providers, err := c.Enumerate()
	require.NoError(t, err)
	assert.Len(t, providers, 1)
}

func TestStrategySet_LoadAllSortsByPriority(t *testing.T) {
	set := NewStrategySet(func() ([]StrategyProvider, error) {
		return []StrategyProvider{
			StaticStrategy(NewDiscoveryStrategy("low", "low/", WithStrategyPriority(10))),
			StaticStrategy(NewDiscoveryStrategy("high", "high/", WithStrategyPriority(-10))),
			StaticStrategy(NewDiscoveryStrategy("tie-1", "t1/")),
			StaticStrategy(NewDiscoveryStrategy("tie-2", "t2/")),
		}, nil
	}, nil)

	assert.False(t, set.Loaded())
	loaded, err := set.LoadAll()
	require.NoError(t, err)
	assert.True(t, set.Loaded())
	assert.Equal(t, []string{"high", "tie-1", "tie-2", "low"}, strategyNames(loaded))
	assert.Equal(t, loaded, set.Current())
}

func TestStrategySet_FailingProvidersAreSkipped(t *testing.T) {
	logger := NewTestLogger()
	set := NewStrategySet(func() ([]StrategyProvider, error) {
		return []StrategyProvider{
			StaticStrategy(NewDiscoveryStrategy("ok", "ok/")),
			StrategyProviderFunc{ProviderName: "broken", Build: func() (DiscoveryStrategy, error) {
				return DiscoveryStrategy{}, errors.New("cannot build")
			}},
			StrategyProviderFunc{ProviderName: "panicky", Build: func() (DiscoveryStrategy, error) {
				panic("boom")
			}},
			nil,
		}, nil
	}, logger)

	loaded, err := set.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, strategyNames(loaded))
	assert.Equal(t, 1, logger.CountMessages("WARN", "Some discovery strategies failed to load"))
}

func TestStrategySet_EnumerationFailure(t *testing.T) {
	logger := NewTestLogger()
	set := NewStrategySet(func() ([]StrategyProvider, error) {
		return nil, errors.New("hook unavailable")
	}, logger)

	_, err := set.LoadAll()
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeDiscoveryError))
	assert.False(t, set.Loaded())

	assert.Nil(t, set.Current())
	assert.True(t, logger.HasMessage("ERROR", "Failed to load discovery strategies"))
}

func TestStrategySet_StrategiesRetriesAfterHookFailure(t *testing.T) {
	var calls atomic.Int32
	set := NewStrategySet(func() ([]StrategyProvider, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("hook unavailable")
		}
		return []StrategyProvider{StaticStrategy(NewDiscoveryStrategy("only", "only/"))}, nil
	}, nil)

	list, err := set.Strategies()
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeDiscoveryError))
	assert.Nil(t, list)
	assert.False(t, set.Loaded())

	list, err = set.Strategies()
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, strategyNames(list))
	assert.True(t, set.Loaded())
	assert.Equal(t, int32(2), calls.Load())
}

func TestStrategySet_DefaultEnumerator(t *testing.T) {
	set := NewStrategySet(nil, nil)
	assert.Equal(t, []string{"internal", "extensions", "services"}, strategyNames(set.Current()))
}

func TestStrategySet_CurrentLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	set := NewStrategySet(func() ([]StrategyProvider, error) {
		calls.Add(1)
		return []StrategyProvider{StaticStrategy(NewDiscoveryStrategy("only", "only/"))}, nil
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"only"}, strategyNames(set.Current()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestStrategySet_Replace(t *testing.T) {
	logger := NewTestLogger()
	set := NewStrategySet(nil, logger)
	before := set.Current()

	input := []DiscoveryStrategy{
		NewDiscoveryStrategy("b", "b/", WithStrategyPriority(2)),
		NewDiscoveryStrategy("a", "a/", WithStrategyPriority(1)),
	}
	assert.True(t, set.Replace(input))

	assert.Equal(t, []string{"a", "b"}, strategyNames(set.Current()))
	assert.Equal(t, "b", input[0].Name(), "caller slice is not reordered")
	assert.Len(t, before, 3, "earlier snapshots are unaffected")

	assert.False(t, set.Replace(nil))
	assert.Equal(t, []string{"a", "b"}, strategyNames(set.Current()))
	assert.True(t, logger.HasMessage("WARN", "Ignoring replacement with an empty strategy list"))
}

func TestStrategySet_CurrentReturnsCopy(t *testing.T) {
	set := NewStrategySet(nil, nil)
	list := set.Current()
	list[0] = NewDiscoveryStrategy("mutated", "x/")

	assert.Equal(t, "internal", set.Current()[0].Name())
}
