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

package httpclient

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeURLRedactsSensitiveParams(t *testing.T) {
	u, err := url.Parse("https://media.example.com/upload?X-Amz-Signature=abc123&expires=600")
	require.NoError(t, err)

	out := sanitizeURL(u)
	assert.NotContains(t, out, "abc123")
	assert.Contains(t, out, "REDACTED")
	assert.Contains(t, out, "expires=600")
}

func TestSanitizeURLPassesPlainParams(t *testing.T) {
	u, err := url.Parse("http://consul:8500/v1/health/service/character-service?passing=true")
	require.NoError(t, err)

	assert.Equal(t, u.String(), sanitizeURL(u))
}

func TestIsSensitiveParam(t *testing.T) {
	assert.True(t, isSensitiveParam("api_key"))
	assert.True(t, isSensitiveParam("API_KEY"))
	assert.True(t, isSensitiveParam("access_token"))
	assert.True(t, isSensitiveParam("X-Amz-Signature"))
	assert.False(t, isSensitiveParam("passing"))
	assert.False(t, isSensitiveParam("world_id"))
}

func TestSanitizeURLNil(t *testing.T) {
	assert.Equal(t, "", sanitizeURL(nil))
}
