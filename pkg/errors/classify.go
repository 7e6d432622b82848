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

package errors

import (
	"context"
	"errors"
	"net/http"
)

// IsRetryable reports whether a failure should be retried by the caller's
// backoff wrapper. Transient provider failures and timeouts qualify;
// validation failures qualify because model output is non-deterministic;
// precondition failures (not found, duplicate, config) never qualify.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return false
}

// IsNonRetryable reports whether a failure must never be retried: business
// preconditions that will fail identically on every attempt.
func IsNonRetryable(err error) bool {
	var nf *NotFoundError
	var dup *DuplicateError
	var cfg *ConfigError
	return errors.As(err, &nf) || errors.As(err, &dup) || errors.As(err, &cfg)
}

// RetryableStatus reports whether an HTTP status code represents a
// transient remote failure.
func RetryableStatus(status int) bool {
	switch {
	case status >= 500 && status < 600:
		return true
	case status == http.StatusRequestTimeout:
		return true
	case status == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}
