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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/worldforge/pkg/errors"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("RUNWARE_API_KEY", "rw-test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "worldforge", cfg.MongoDatabase)
	assert.Equal(t, DefaultMaxConcurrentLLM, cfg.MaxConcurrentLLM)
	assert.Equal(t, DefaultMaxConcurrentImage, cfg.MaxConcurrentImage)
	assert.Equal(t, "localhost:8500", cfg.ConsulAddress())
	assert.Equal(t, DefaultTemporalHostPort, cfg.TemporalHostPort)
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("RUNWARE_API_KEY", "rw-test")

	_, err := Load()
	require.Error(t, err)

	var ce *errors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "OPENROUTER_API_KEY", ce.Key)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MAX_CONCURRENT_LLM_REQUESTS", "3")
	t.Setenv("CONSUL_HOST", "registry.internal")
	t.Setenv("CONSUL_PORT", "9500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxConcurrentLLM)
	assert.Equal(t, "registry.internal:9500", cfg.ConsulAddress())
}

func TestLoadRejectsBadInt(t *testing.T) {
	setRequired(t)
	t.Setenv("MAX_CONCURRENT_DB_OPERATIONS", "many")

	_, err := Load()
	var ce *errors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "MAX_CONCURRENT_DB_OPERATIONS", ce.Key)
}

func TestValidateRejectsNonPositivePermit(t *testing.T) {
	setRequired(t)
	t.Setenv("MAX_CONCURRENT_IMAGE_REQUESTS", "0")

	_, err := Load()
	var ce *errors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "MAX_CONCURRENT_IMAGE_REQUESTS", ce.Key)
}
