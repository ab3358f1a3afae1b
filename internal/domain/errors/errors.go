// Package errors defines the core's typed error taxonomy.
//
// Per the process() contract, the core never lets an error escape as a panic;
// every failure path returns one of these types (or a sentinel from
// [Is]/[errors.Is]) wrapped with context, following the teacher's pattern of
// typed, causal errors (internal/application/executor) adapted to the
// provider/intent/layout domain.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying failures by kind (spec §7).
var (
	// ErrProviderUnavailable covers missing API key, network failure, or quota exhaustion.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrMalformedOutput covers JSON that failed to parse even after the repair loop.
	ErrMalformedOutput = errors.New("malformed structured output")
	// ErrUnresolvableDevice covers a device name that could not be matched with sufficient confidence.
	ErrUnresolvableDevice = errors.New("unresolvable device")
	// ErrBrowserUnavailable covers a sandbox that could not launch or render.
	ErrBrowserUnavailable = errors.New("browser unavailable")
	// ErrGenerationFailed covers HTML that failed the basic structural check.
	ErrGenerationFailed = errors.New("html generation failed")
)

// ProviderError wraps a failure from a specific back-end, tagging it with the
// uniform error taxonomy from spec §4.A: missing_key, network, quota,
// invalid_response, truncated.
type ProviderError struct {
	Provider string
	Kind     string // "missing_key" | "network" | "quota" | "invalid_response" | "truncated"
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrProviderUnavailable
}

// NewProviderError builds a ProviderError.
func NewProviderError(provider, kind, message string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: message, Cause: cause}
}

// ValidationError represents a configuration or payload validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfigurationError represents a process-start configuration problem.
type ConfigurationError struct {
	Component string
	Message   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(component, message string) *ConfigurationError {
	return &ConfigurationError{Component: component, Message: message}
}

// PatchError represents a dropped fixer patch (class or JS), never fatal to
// the overall repair pass (spec §7 item 7).
type PatchError struct {
	Selector string
	Reason   string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch dropped for %s: %s", e.Selector, e.Reason)
}

// NewPatchError creates a new PatchError.
func NewPatchError(selector, reason string) *PatchError {
	return &PatchError{Selector: selector, Reason: reason}
}

// Is reports whether err (or any error in its chain) matches target,
// delegating to the standard library. Kept as a thin re-export so callers
// only need to import this package for both construction and matching.
func Is(err, target error) bool { return errors.Is(err, target) }
