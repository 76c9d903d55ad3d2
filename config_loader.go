// config_loader.go: Multi-format configuration loading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// maxConfigFileSize bounds a registry configuration file.
const maxConfigFileSize = 1 << 20

// LoadConfigFromFile loads a RegistryConfig from a JSON, YAML or TOML file.
// The format is detected from the file extension. Environment references
// are expanded with DefaultEnvConfigOptions and defaults are applied before
// validation.
//
// Example usage:
//
//	cfg, err := goextensions.LoadConfigFromFile("extensions.yaml")
//	if err != nil {
//	    log.Fatalf("Failed to load config: %v", err)
//	}
//	registry, err := goextensions.NewRegistryFromConfig(cfg)
func LoadConfigFromFile(path string) (RegistryConfig, error) {
	return LoadConfigFromFileWithEnv(path, DefaultEnvConfigOptions())
}

// LoadConfigFromFileWithEnv is LoadConfigFromFile with explicit expansion
// options.
func LoadConfigFromFileWithEnv(path string, env EnvConfigOptions) (RegistryConfig, error) {
	var config RegistryConfig

	securePath, err := secureConfigPath(path)
	if err != nil {
		return config, NewConfigValidationError(fmt.Sprintf("invalid file path %s", path), err)
	}

	data, err := readConfigFile(securePath)
	if err != nil {
		return config, err
	}

	format := argus.DetectFormat(securePath)
	if err := decodeHybrid(data, format, &config); err != nil {
		return config, NewConfigParseError(securePath, err).
			WithContext("format", format.String())
	}

	if err := config.ExpandEnv(env); err != nil {
		return config, err
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// NewRegistryFromConfig builds a Registry from cfg. Extra options are
// applied after the ones derived from cfg.
func NewRegistryFromConfig(cfg RegistryConfig, opts ...RegistryOption) (*Registry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base []RegistryOption
	if cfg.Root != "" {
		base = append(base, WithRootDir(cfg.Root))
	}
	if cfg.Logger != nil {
		base = append(base, WithLogger(cfg.Logger))
	}

	r := NewRegistry(append(base, opts...)...)
	if strategies := cfg.BuildStrategies(); len(strategies) > 0 {
		r.strategies.Replace(strategies)
	}
	return r, nil
}

// secureConfigPath resolves path to a clean absolute path.
func secureConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", errors.New("path contains a NUL byte")
	}
	return filepath.Abs(filepath.Clean(path))
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, NewConfigNotFoundError(path)
	}
	if err != nil {
		return nil, NewConfigParseError(path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, NewConfigParseError(path, fmt.Errorf("%s is not a regular file", path))
	}
	if info.Size() > maxConfigFileSize {
		return nil, NewConfigParseError(path, fmt.Errorf("file exceeds %d bytes", maxConfigFileSize))
	}
	// #nosec G304 -- path is cleaned and checked above
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigParseError(path, err)
	}
	return data, nil
}

// decodeHybrid decodes data into out. YAML goes through gopkg.in/yaml.v3
// for full spec support; every other format is parsed by argus and bound
// through its JSON form.
func decodeHybrid(data []byte, format argus.ConfigFormat, out interface{}) error {
	if format == argus.FormatYAML {
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
		return nil
	}

	configMap, err := argus.ParseConfig(data, format)
	if err != nil {
		return err
	}
	return bindConfigMap(configMap, out)
}

// bindConfigMap binds a generic configuration map onto out via JSON.
func bindConfigMap(configMap map[string]interface{}, out interface{}) error {
	if configMap == nil {
		return errors.New("configuration map is nil")
	}
	jsonBytes, err := json.Marshal(configMap)
	if err != nil {
		return fmt.Errorf("failed to marshal config map to JSON: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, out); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}
