// panic_recovery.go: panic recovery for host-provided callbacks
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"fmt"
	"runtime"
)

// recoverInto converts a panic in the deferring function into an error
// stored in *err.
//
//	func build() (v any, err error) {
//	    defer recoverInto(&err, "factory filters.log")
//	    return factory()
//	}
func recoverInto(err *error, what string) {
	if r := recover(); r != nil {
		buf := make([]byte, 16<<10)
		n := runtime.Stack(buf, false)
		*err = &PanicError{Source: what, Value: r, Stack: buf[:n]}
	}
}

// withStackRecover returns a recovery function that logs a panic with its
// stack trace. Use it in callbacks run on goroutines the registry does not own.
func withStackRecover(logger Logger) func() {
	return func() {
		if r := recover(); r != nil {
			buf := make([]byte, 64<<10)
			n := runtime.Stack(buf, false)
			logger.Error("Panic recovered in goroutine",
				"panic", r,
				"stack", string(buf[:n]))
		}
	}
}

// PanicError reports a recovered panic from host code.
type PanicError struct {
	Source string
	Value  interface{}
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Source, e.Value)
}
