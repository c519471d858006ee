// Package errors defines the structured error types used by the build,
// transclusion, and serving layers of autoreveal.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeBuild    ErrorType = "build"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// BuildError is a structured error type carrying the component and file
// involved in a failed build step.
type BuildError struct {
	Type      ErrorType
	Message   string
	Cause     error
	Component string
	FilePath  string
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var parts []string

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type.
func (e *BuildError) Is(target error) bool {
	var t *BuildError
	if errors.As(target, &t) {
		return e.Type == t.Type
	}
	return false
}

// NewIOError creates an error for a filesystem read or write failure.
func NewIOError(component, path, message string, cause error) *BuildError {
	return &BuildError{
		Type:      ErrorTypeIO,
		Message:   message,
		Cause:     cause,
		Component: component,
		FilePath:  path,
	}
}

// NewBuildError creates an error for a failed build step.
func NewBuildError(component, message string, cause error) *BuildError {
	return &BuildError{
		Type:      ErrorTypeBuild,
		Message:   message,
		Cause:     cause,
		Component: component,
	}
}

// NewConfigError creates an error for invalid configuration.
func NewConfigError(message string, cause error) *BuildError {
	return &BuildError{
		Type:    ErrorTypeConfig,
		Message: message,
		Cause:   cause,
	}
}

// CycleError reports a transclusion chain that never reached a fixed point.
// The original behavior on a cyclic include chain was unbounded recursion;
// the resolver caps its pass count and reports the cycle instead.
type CycleError struct {
	BaseDir string
	Passes  int
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("transclusion did not reach a fixed point after %d passes under %s (cyclic include chain?)", e.Passes, e.BaseDir)
}
