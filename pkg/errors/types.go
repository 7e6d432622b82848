// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines the typed errors used across the world-generation
// engine. Activities classify failures with these types so that the
// orchestrator's retry policies can distinguish transient provider trouble
// from hard precondition failures.
package errors

import (
	"fmt"
	"time"
)

// ValidationError represents input or response validation failures.
// Use this for malformed LLM output, schema mismatches, or bad request
// parameters. Validation failures are retried a bounded number of times
// because model output is non-deterministic.
type ValidationError struct {
	// Field identifies which field failed validation
	Field string

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a missing resource.
// Use this when a task, world-parameter document, or ledger entry does not
// exist. Not retryable.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "task", "world_parameters")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// DuplicateError represents an id collision on insert.
// Use this when a task or ledger document with the same id already exists.
// Not retryable.
type DuplicateError struct {
	// Resource is the type of resource (e.g., "task", "world_generation_status")
	Resource string

	// ID is the identifier that collided
	ID string
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.ID)
}

// ProviderError represents failures from external providers: the LLM API,
// the image API, or a downstream gRPC service.
type ProviderError struct {
	// Provider is the name of the provider (e.g., "openrouter", "runware",
	// "character-service")
	Provider string

	// StatusCode is the HTTP or gRPC status code (if applicable)
	StatusCode int

	// Message is the human-readable error message
	Message string

	// RequestID correlates this error with provider logs
	RequestID string

	// Retryable marks the failure as transient (remote 5xx, timeout,
	// connection reset). Rate-limit and circuit-open failures are not
	// locally retryable.
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s error", e.Provider)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [%d]", msg, e.StatusCode)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Message)
	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request-id: %s)", msg, e.RequestID)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ConfigError represents configuration problems.
// Use this for missing environment variables or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "OPENROUTER_API_KEY")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents operation timeouts.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "llm request", "image upload")
	Operation string

	// Duration is how long the operation ran before timing out
	Duration time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s operation timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// CapacityError represents a deliberately bounded computation hitting its
// cap: recursion depth exhausted or an empty model batch. It is a
// diagnostic, not a failure; workflows return it inside a successful result
// so the rest of the world can complete.
type CapacityError struct {
	// Limit names the cap that was reached (e.g., "recursion_depth")
	Limit string

	// Message carries the diagnostic detail
	Message string
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity limit %s reached: %s", e.Limit, e.Message)
}
