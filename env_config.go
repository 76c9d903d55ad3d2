// env_config.go: Environment variable expansion for registry configuration
//
// Configuration values may reference the environment with ${VAR} or
// ${VAR:-default}. Each variable is looked up first with the configured
// prefix, then bare, then in the overrides, inline default and defaults.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// maxEnvValueLength bounds one expanded value.
const maxEnvValueLength = 4096

var envVariablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// EnvConfigOptions configures environment variable expansion.
//
// Example usage:
//
//	options := EnvConfigOptions{
//	    Prefix:         "MYAPP_",
//	    FailOnMissing:  true,
//	    ValidateValues: true,
//	}
type EnvConfigOptions struct {
	// Prefix tried before the bare variable name (e.g. "GO_EXTENSIONS_")
	Prefix string `json:"prefix" yaml:"prefix"`

	// FailOnMissing turns an unresolved variable into an error
	FailOnMissing bool `json:"fail_on_missing" yaml:"fail_on_missing"`

	// ValidateValues rejects NUL bytes, control characters and oversized values
	ValidateValues bool `json:"validate_values" yaml:"validate_values"`

	Defaults  map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Overrides map[string]string `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// DefaultEnvConfigOptions returns the expansion defaults.
func DefaultEnvConfigOptions() EnvConfigOptions {
	return EnvConfigOptions{
		Prefix:         "GO_EXTENSIONS_",
		FailOnMissing:  false,
		ValidateValues: true,
		Defaults:       make(map[string]string),
		Overrides:      make(map[string]string),
	}
}

// ExpandEnvironmentVariables replaces every ${VAR} and ${VAR:-default} in
// input. The first failing variable aborts the expansion.
//
// Example:
//
//	root, err := ExpandEnvironmentVariables("${EXTENSIONS_HOME:-/etc/myapp}", options)
func ExpandEnvironmentVariables(input string, options EnvConfigOptions) (string, error) {
	if input == "" || !strings.Contains(input, "${") {
		return input, nil
	}

	var firstErr error
	result := envVariablePattern.ReplaceAllStringFunc(input, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := envVariablePattern.FindStringSubmatch(match)
		expanded, err := expandEnvironmentVariable(sub[1], sub[3], options)
		if err != nil {
			firstErr = err
			return match
		}
		return expanded
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expandEnvironmentVariable resolves one variable in priority order:
// prefixed environment, bare environment, override, inline default, default.
func expandEnvironmentVariable(name, inlineDefault string, options EnvConfigOptions) (string, error) {
	prefixed := options.Prefix + name
	if value := os.Getenv(prefixed); value != "" {
		return validateEnvValue(name, value, options)
	}
	if value := os.Getenv(name); value != "" {
		return validateEnvValue(name, value, options)
	}
	if value, ok := options.Overrides[name]; ok {
		return validateEnvValue(name, value, options)
	}
	if inlineDefault != "" {
		return validateEnvValue(name, inlineDefault, options)
	}
	if value, ok := options.Defaults[name]; ok {
		return validateEnvValue(name, value, options)
	}

	if options.FailOnMissing {
		return "", NewConfigValidationError(
			fmt.Sprintf("required environment variable not found: %s (also tried %s)", name, prefixed), nil)
	}
	return "", nil
}

func validateEnvValue(name, value string, options EnvConfigOptions) (string, error) {
	if !options.ValidateValues {
		return value, nil
	}
	if strings.Contains(value, "\x00") {
		return "", NewConfigValidationError(fmt.Sprintf("environment variable %s contains a null byte", name), nil)
	}
	if len(value) > maxEnvValueLength {
		return "", NewConfigValidationError(
			fmt.Sprintf("environment variable %s too long: %d bytes (max %d)", name, len(value), maxEnvValueLength), nil)
	}
	for i, r := range value {
		if r < 32 && r != '\t' {
			return "", NewConfigValidationError(
				fmt.Sprintf("environment variable %s contains a control character at position %d", name, i), nil)
		}
	}
	return value, nil
}

// ExpandEnv expands environment references in the root directory and in
// every strategy directory and excluded package prefix.
func (c *RegistryConfig) ExpandEnv(options EnvConfigOptions) error {
	var err error
	if c.Root, err = ExpandEnvironmentVariables(c.Root, options); err != nil {
		return err
	}
	if c.Watch.Audit.OutputFile, err = ExpandEnvironmentVariables(c.Watch.Audit.OutputFile, options); err != nil {
		return err
	}
	for i := range c.Strategies {
		s := &c.Strategies[i]
		if s.Directory, err = ExpandEnvironmentVariables(s.Directory, options); err != nil {
			return fmt.Errorf("strategy %q: %w", s.Name, err)
		}
		for j, prefix := range s.ExcludedPackages {
			if s.ExcludedPackages[j], err = ExpandEnvironmentVariables(prefix, options); err != nil {
				return fmt.Errorf("strategy %q: %w", s.Name, err)
			}
		}
	}
	return nil
}
