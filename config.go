// config.go: Registry configuration with defaults and validation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/agilira/argus"
)

// Priority levels accepted by StrategyConfig.Level.
const (
	PriorityLevelMax    = "max"
	PriorityLevelNormal = "normal"
	PriorityLevelMin    = "min"
)

// StrategyConfig declares one discovery strategy.
//
// Level, when set, takes precedence over Priority:
//
//	strategies:
//	  - name: vendor
//	    directory: vendor/extensions/
//	    level: max
//	  - name: site
//	    directory: site/extensions/
//	    priority: 10
//	    overridden: true
//	    excluded_packages: [legacy.]
type StrategyConfig struct {
	Name                 string   `json:"name" yaml:"name"`
	Directory            string   `json:"directory" yaml:"directory"`
	Priority             int      `json:"priority,omitempty" yaml:"priority,omitempty"`
	Level                string   `json:"level,omitempty" yaml:"level,omitempty"`
	PreferIsolatedLoader bool     `json:"prefer_isolated_loader,omitempty" yaml:"prefer_isolated_loader,omitempty"`
	Overridden           bool     `json:"overridden,omitempty" yaml:"overridden,omitempty"`
	ExcludedPackages     []string `json:"excluded_packages,omitempty" yaml:"excluded_packages,omitempty"`
}

// WatchConfig controls registry file watching.
type WatchConfig struct {
	Enabled      bool              `json:"enabled" yaml:"enabled"`
	PollInterval time.Duration     `json:"poll_interval" yaml:"poll_interval"`
	CacheTTL     time.Duration     `json:"cache_ttl" yaml:"cache_ttl"`
	Audit        argus.AuditConfig `json:"audit_config" yaml:"audit_config"`
}

// RegistryConfig is the file form of a Registry.
//
// Root is the directory registry files are read from. Strategies, when
// present, replace the default strategy catalog.
type RegistryConfig struct {
	Root       string           `json:"root" yaml:"root"`
	Strategies []StrategyConfig `json:"strategies,omitempty" yaml:"strategies,omitempty"`
	Watch      WatchConfig      `json:"watch,omitempty" yaml:"watch,omitempty"`

	// Logger is not read from files; see NewLogger for accepted values.
	Logger any `json:"-" yaml:"-"`
}

// DefaultWatchConfig returns the watching defaults.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		PollInterval: 5 * time.Second,
		CacheTTL:     2 * time.Second, // Should be <= PollInterval
		Audit: argus.AuditConfig{
			Enabled:       false,
			OutputFile:    "go-extensions-audit.jsonl",
			MinLevel:      argus.AuditInfo,
			BufferSize:    1000,
			FlushInterval: 5 * time.Second,
		},
	}
}

// GetDefaultRegistryConfig returns a configuration using the built-in
// strategies and the current directory as root.
func GetDefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Root:  ".",
		Watch: DefaultWatchConfig(),
	}
}

// ApplyDefaults fills unset fields.
func (c *RegistryConfig) ApplyDefaults() {
	defaults := DefaultWatchConfig()
	if c.Watch.PollInterval <= 0 {
		c.Watch.PollInterval = defaults.PollInterval
	}
	if c.Watch.CacheTTL <= 0 {
		c.Watch.CacheTTL = min(defaults.CacheTTL, c.Watch.PollInterval)
	}
	if c.Watch.Audit.Enabled {
		if c.Watch.Audit.OutputFile == "" {
			c.Watch.Audit.OutputFile = defaults.Audit.OutputFile
		}
		if c.Watch.Audit.BufferSize <= 0 {
			c.Watch.Audit.BufferSize = defaults.Audit.BufferSize
		}
		if c.Watch.Audit.FlushInterval <= 0 {
			c.Watch.Audit.FlushInterval = defaults.Audit.FlushInterval
		}
	}
	for i := range c.Strategies {
		s := &c.Strategies[i]
		s.Name = strings.TrimSpace(s.Name)
		if s.Directory != "" && !strings.HasSuffix(s.Directory, "/") {
			s.Directory += "/"
		}
	}
}

// Validate checks the configuration.
func (c *RegistryConfig) Validate() error {
	if c.Watch.Enabled && c.Root == "" {
		return NewConfigValidationError("watching requires a root directory", nil)
	}
	if c.Watch.CacheTTL > c.Watch.PollInterval {
		return NewConfigValidationError(
			fmt.Sprintf("cache_ttl %s exceeds poll_interval %s", c.Watch.CacheTTL, c.Watch.PollInterval), nil)
	}

	names := make(map[string]bool)
	for i, s := range c.Strategies {
		if err := s.Validate(); err != nil {
			return NewConfigValidationError(fmt.Sprintf("strategy #%d is invalid", i), err)
		}
		if names[s.Name] {
			return NewConfigValidationError(fmt.Sprintf("duplicate strategy name %q", s.Name), nil)
		}
		names[s.Name] = true
	}
	return nil
}

// Validate checks one strategy declaration.
func (s StrategyConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("strategy name is required")
	}
	dir := strings.TrimSuffix(s.Directory, "/")
	if dir == "" || !fs.ValidPath(dir) {
		return fmt.Errorf("strategy %q: directory %q is not a valid relative path", s.Name, s.Directory)
	}
	switch s.Level {
	case "", PriorityLevelMax, PriorityLevelNormal, PriorityLevelMin:
	default:
		return fmt.Errorf("strategy %q: unknown priority level %q", s.Name, s.Level)
	}
	return nil
}

// EffectivePriority resolves Level and Priority.
func (s StrategyConfig) EffectivePriority() int {
	switch s.Level {
	case PriorityLevelMax:
		return MaxPriority
	case PriorityLevelMin:
		return MinPriority
	case PriorityLevelNormal:
		return NormalPriority
	}
	return s.Priority
}

// Strategy builds the discovery strategy.
func (s StrategyConfig) Strategy() DiscoveryStrategy {
	return NewDiscoveryStrategy(s.Name, s.Directory,
		WithStrategyPriority(s.EffectivePriority()),
		WithPreferIsolatedLoader(s.PreferIsolatedLoader),
		WithOverridden(s.Overridden),
		WithExcludedPackages(s.ExcludedPackages...))
}

// BuildStrategies returns the configured strategies sorted by priority, or
// nil when none are configured.
func (c *RegistryConfig) BuildStrategies() []DiscoveryStrategy {
	if len(c.Strategies) == 0 {
		return nil
	}
	out := make([]DiscoveryStrategy, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		out = append(out, s.Strategy())
	}
	SortByPriority(out)
	return out
}

// ToJSON converts the configuration to JSON.
func (c *RegistryConfig) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// FromJSON loads and validates configuration from JSON.
func (c *RegistryConfig) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, c); err != nil {
		return NewConfigParseError("<json>", err)
	}
	c.ApplyDefaults()
	return c.Validate()
}
