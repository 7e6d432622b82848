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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"transient provider", &ProviderError{Provider: "openrouter", StatusCode: 503, Retryable: true}, true},
		{"rate limited provider", &ProviderError{Provider: "openrouter", StatusCode: 429, Retryable: false}, false},
		{"timeout", &TimeoutError{Operation: "llm request"}, true},
		{"validation", &ValidationError{Message: "schema mismatch"}, true},
		{"not found", &NotFoundError{Resource: "task", ID: "t1"}, false},
		{"wrapped provider", fmt.Errorf("call failed: %w", &ProviderError{Provider: "runware", Retryable: true}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsNonRetryable(t *testing.T) {
	assert.True(t, IsNonRetryable(&NotFoundError{Resource: "world_parameters", ID: "w1"}))
	assert.True(t, IsNonRetryable(&DuplicateError{Resource: "task", ID: "t1"}))
	assert.True(t, IsNonRetryable(&ConfigError{Key: "MONGODB_URI", Reason: "required"}))
	assert.False(t, IsNonRetryable(&TimeoutError{Operation: "upload"}))
	assert.False(t, IsNonRetryable(nil))
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, RetryableStatus(500))
	assert.True(t, RetryableStatus(503))
	assert.True(t, RetryableStatus(408))
	assert.True(t, RetryableStatus(429))
	assert.False(t, RetryableStatus(200))
	assert.False(t, RetryableStatus(400))
	assert.False(t, RetryableStatus(404))
}

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "task not found: t1", (&NotFoundError{Resource: "task", ID: "t1"}).Error())
	assert.Equal(t, "task already exists: t1", (&DuplicateError{Resource: "task", ID: "t1"}).Error())
	assert.Contains(t, (&ProviderError{Provider: "openrouter", StatusCode: 502, Message: "bad gateway", RequestID: "r9"}).Error(), "[502]")
	assert.Contains(t, (&CapacityError{Limit: "recursion_depth", Message: "depth 50"}).Error(), "recursion_depth")
}
