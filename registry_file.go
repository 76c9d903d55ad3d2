// registry_file.go: Extension registry file format and parsing
//
// A registry file lists the extensions one discovery strategy contributes to
// one extension point. It lives at <strategy directory>/<point>.<ext> and
// may be written in YAML, JSON or TOML:
//
//	extensions:
//	  - name: log
//	    factory: filters.log
//	    activate:
//	      groups: [provider]
//	      conditions: [trace]
//	      order: 10
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/agilira/argus"
	"go.uber.org/multierr"
)

// registryFileExtensions lists the probed file extensions in lookup order.
var registryFileExtensions = []string{".yaml", ".yml", ".json", ".toml"}

// maxRegistryFileSize bounds a single registry file.
const maxRegistryFileSize = 1 << 20

// RegistryFile is the root structure of a registry file.
type RegistryFile struct {
	Extensions []ExtensionDef `json:"extensions" yaml:"extensions"`
}

// ExtensionDef declares one named extension.
type ExtensionDef struct {
	Name     string          `json:"name" yaml:"name"`
	Factory  string          `json:"factory" yaml:"factory"`
	Activate *ActivationSpec `json:"activate,omitempty" yaml:"activate,omitempty"`
}

// ParseRegistryFile decodes data according to the format implied by name
// and validates the result.
func ParseRegistryFile(name string, data []byte) (*RegistryFile, error) {
	var file RegistryFile
	if err := decodeHybrid(data, argus.DetectFormat(name), &file); err != nil {
		return nil, NewRegistryParseError(name, err)
	}
	if err := file.Validate(); err != nil {
		return nil, NewRegistryParseError(name, err)
	}
	return &file, nil
}

// Validate checks every definition.
func (f *RegistryFile) Validate() error {
	for i, def := range f.Extensions {
		if err := ValidateExtensionName(def.Name); err != nil {
			return fmt.Errorf("extension #%d: %w", i, err)
		}
		if strings.TrimSpace(def.Factory) == "" {
			return fmt.Errorf("extension %q: factory reference is required", def.Name)
		}
	}
	return nil
}

// Metadata returns the compiled activation metadata, or nil when the
// definition declares none.
func (d ExtensionDef) Metadata() *ActivationMetadata {
	if d.Activate == nil {
		return nil
	}
	return d.Activate.Metadata()
}

// ValidateExtensionName rejects empty names and names that collide with the
// reserved markers.
func ValidateExtensionName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name {
		return NewInvalidExtensionNameError(name)
	}
	if strings.HasPrefix(name, RemoveValuePrefix) || name == DefaultKey || strings.Contains(name, ",") {
		return NewInvalidExtensionNameError(name)
	}
	return nil
}

// registrySource is one registry file found for a point.
type registrySource struct {
	path string
	file *RegistryFile
}

// registryFilePaths returns the candidate registry file paths for point
// under directory, in lookup order.
func registryFilePaths(directory, point string) []string {
	dir := strings.TrimSuffix(directory, "/")
	paths := make([]string, 0, len(registryFileExtensions))
	for _, ext := range registryFileExtensions {
		paths = append(paths, path.Join(dir, point+ext))
	}
	return paths
}

// readRegistryFiles returns every readable registry file for point under
// directory, in lookup order. Missing files are skipped silently; unreadable
// or malformed files are skipped and reported in the returned error.
func readRegistryFiles(fsys fs.FS, directory, point string) ([]registrySource, error) {
	if fsys == nil {
		return nil, nil
	}

	var sources []registrySource
	var errs error
	for _, p := range registryFilePaths(directory, point) {
		data, err := readBounded(fsys, p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = multierr.Append(errs, NewRegistryFileError(p, "failed to read registry file", err))
			continue
		}
		file, err := ParseRegistryFile(p, data)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		sources = append(sources, registrySource{path: p, file: file})
	}
	return sources, errs
}

func readBounded(fsys fs.FS, p string) ([]byte, error) {
	info, err := fs.Stat(fsys, p)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", p)
	}
	if info.Size() > maxRegistryFileSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", p, maxRegistryFileSize)
	}
	return fs.ReadFile(fsys, p)
}
