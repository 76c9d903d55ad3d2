// errors.go: structured error definitions for the go-extensions registry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	stderrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for the go-extensions system
const (
	// Registration errors (1000-1099)
	ErrCodeInvalidExtensionName  = "EXT_1001"
	ErrCodeDuplicateRegistration = "EXT_1002"
	ErrCodeInvalidExtensionPoint = "EXT_1003"

	// Resolution errors (1100-1199)
	ErrCodeExtensionNotFound     = "EXT_1101"
	ErrCodeInstantiationFailed   = "EXT_1102"
	ErrCodeExtensionTypeMismatch = "EXT_1103"

	// Factory errors (1200-1299)
	ErrCodeFactoryNotFound = "EXT_1201"
	ErrCodeInvalidFactory  = "EXT_1202"

	// Discovery errors (1300-1399)
	ErrCodeDiscoveryError = "DISCOVERY_1301"
	ErrCodeStrategyError  = "DISCOVERY_1302"

	// Registry file errors (1400-1499)
	ErrCodeRegistryFileError  = "REGISTRY_1401"
	ErrCodeRegistryParseError = "REGISTRY_1402"

	// Configuration errors (1500-1599)
	ErrCodeConfigNotFound        = "CONFIG_1501"
	ErrCodeConfigParseError      = "CONFIG_1502"
	ErrCodeConfigValidationError = "CONFIG_1503"

	// Watcher errors (1600-1699)
	ErrCodeWatcherError = "WATCHER_1601"
)

// Registration error constructors

func NewInvalidExtensionNameError(name string) *errors.Error {
	return errors.New(ErrCodeInvalidExtensionName, "Invalid extension name").
		WithUserMessage("Extension names must be non-empty and must not start with a reserved marker").
		WithContext("provided_name", name).
		WithSeverity("error")
}

func NewDuplicateRegistrationError(point, name string) *errors.Error {
	return errors.New(ErrCodeDuplicateRegistration, "Duplicate extension registration").
		WithUserMessage("An extension with this name is already registered for the extension point").
		WithContext("extension_point", point).
		WithContext("extension_name", name).
		WithSeverity("error")
}

func NewInvalidExtensionPointError(point string) *errors.Error {
	return errors.New(ErrCodeInvalidExtensionPoint, "Invalid extension point").
		WithUserMessage("Extension point name is required and cannot be empty").
		WithContext("extension_point", point).
		WithSeverity("error")
}

// Resolution error constructors

func NewExtensionNotFoundError(point, name string) *errors.Error {
	return errors.New(ErrCodeExtensionNotFound, "Extension not found").
		WithUserMessage("No extension with the requested name is registered for the extension point").
		WithContext("extension_point", point).
		WithContext("extension_name", name).
		WithSeverity("error")
}

func NewInstantiationFailedError(point, name string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeInstantiationFailed, "Extension instantiation failed").
		WithUserMessage("The extension factory failed to create an instance").
		WithContext("extension_point", point).
		WithContext("extension_name", name).
		WithSeverity("error")
}

func NewExtensionTypeMismatchError(point, name string, got interface{}) *errors.Error {
	return errors.New(ErrCodeExtensionTypeMismatch, "Extension type mismatch").
		WithUserMessage("The factory produced a value that does not implement the extension point").
		WithContext("extension_point", point).
		WithContext("extension_name", name).
		WithContext("produced_type", got).
		WithSeverity("error")
}

// Factory error constructors

func NewFactoryNotFoundError(ref string) *errors.Error {
	return errors.New(ErrCodeFactoryNotFound, "Factory not found").
		WithUserMessage("The registry file references a factory that was never registered").
		WithContext("factory_ref", ref).
		WithSeverity("error")
}

func NewInvalidFactoryError(ref string, message string) *errors.Error {
	return errors.New(ErrCodeInvalidFactory, "Invalid factory: "+message).
		WithUserMessage("Factory registration rejected").
		WithContext("factory_ref", ref).
		WithSeverity("error")
}

// Discovery error constructors

func NewDiscoveryError(message string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeDiscoveryError, "Discovery error: "+message).
		WithUserMessage("Extension discovery failed").
		WithSeverity("error")
}

func NewStrategyError(strategy string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeStrategyError, "Discovery strategy failed").
		WithUserMessage("A discovery strategy could not be loaded").
		WithContext("strategy", strategy).
		WithSeverity("warning")
}

// Registry file error constructors

func NewRegistryFileError(path string, message string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeRegistryFileError, "Registry file error: "+message).
		WithUserMessage("Extension registry file access failed").
		WithContext("registry_path", path).
		WithSeverity("error")
}

func NewRegistryParseError(path string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeRegistryParseError, "Registry file parse error").
		WithUserMessage("Failed to parse extension registry file").
		WithContext("registry_path", path).
		WithSeverity("error")
}

// Configuration error constructors

func NewConfigNotFoundError(path string) *errors.Error {
	return errors.New(ErrCodeConfigNotFound, "Configuration file not found").
		WithUserMessage("The configuration file could not be found").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("Failed to parse configuration file").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigValidationError(message string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeConfigValidationError, "Configuration validation error: "+message).
		WithUserMessage("Configuration validation failed").
		WithSeverity("error")
}

// Watcher error constructors

func NewWatcherError(message string, cause error) *errors.Error {
	return wrapOrNew(cause, ErrCodeWatcherError, "Registry watcher error: "+message).
		WithUserMessage("Registry file monitoring failed").
		WithSeverity("error")
}

// wrapOrNew wraps cause when present, so constructors accept a nil cause.
func wrapOrNew(cause error, code errors.ErrorCode, message string) *errors.Error {
	if cause == nil {
		return errors.New(code, message)
	}
	return errors.Wrap(cause, code, message)
}

// HasErrorCode reports whether err is a go-errors error carrying code.
func HasErrorCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var goErr *errors.Error
	if stderrors.As(err, &goErr) {
		return string(goErr.Code) == code
	}
	return false
}
