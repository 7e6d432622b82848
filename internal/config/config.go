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

// Package config loads worker configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/tombee/worldforge/pkg/errors"
)

// Default permit sizes and scheduler caps.
const (
	DefaultMaxConcurrentLLM    = 15
	DefaultMaxConcurrentImage  = 10
	DefaultMaxConcurrentGRPC   = 50
	DefaultMaxConcurrentDB     = 50
	DefaultMaxWorkflowTasks    = 100
	DefaultMaxActivities       = 100
	DefaultLLMModel            = "google/gemini-flash-1.5-8b"
	DefaultConsulPort          = 8500
	DefaultTemporalHostPort    = "localhost:7233"
	DefaultTemporalNamespace   = "default"
	DefaultOpenRouterBaseURL   = "https://openrouter.ai"
	DefaultRunwareBaseURL      = "https://api.runware.ai/v1"
	DefaultImageModel          = "runware:100@1"
)

// Config holds all worker configuration. Every field is driven by an
// environment variable; Load validates the required ones.
type Config struct {
	// MongoURI is the document store connection string (MONGODB_URI).
	MongoURI string
	// MongoDatabase is the database name (MONGODB_DATABASE).
	MongoDatabase string

	// OpenRouterAPIKey authenticates LLM calls (OPENROUTER_API_KEY). Required.
	OpenRouterAPIKey string
	// RunwareAPIKey authenticates image calls (RUNWARE_API_KEY). Required.
	RunwareAPIKey string

	// OpenRouterBaseURL overrides the LLM endpoint, used by tests
	// (OPENROUTER_BASE_URL).
	OpenRouterBaseURL string
	// RunwareBaseURL overrides the image endpoint (RUNWARE_BASE_URL).
	RunwareBaseURL string

	// LLMModel is the default model for LLM calls (DEFAULT_LLM_MODEL).
	LLMModel string
	// ImageModel is the default text-to-image model (DEFAULT_IMAGE_MODEL).
	ImageModel string

	// Permit sizes for the resource pool.
	MaxConcurrentLLM   int
	MaxConcurrentImage int
	MaxConcurrentGRPC  int
	MaxConcurrentDB    int

	// Per-process scheduler caps.
	MaxWorkflowTasksPerWorker int
	MaxActivitiesPerWorker    int

	// Service registry location (CONSUL_HOST, CONSUL_PORT).
	ConsulHost string
	ConsulPort int

	// Temporal connection (TEMPORAL_HOSTPORT, TEMPORAL_NAMESPACE).
	TemporalHostPort  string
	TemporalNamespace string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "worldforge"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		RunwareAPIKey:     os.Getenv("RUNWARE_API_KEY"),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", DefaultOpenRouterBaseURL),
		RunwareBaseURL:    getEnv("RUNWARE_BASE_URL", DefaultRunwareBaseURL),
		LLMModel:          getEnv("DEFAULT_LLM_MODEL", DefaultLLMModel),
		ImageModel:        getEnv("DEFAULT_IMAGE_MODEL", DefaultImageModel),
		ConsulHost:        getEnv("CONSUL_HOST", "localhost"),
		TemporalHostPort:  getEnv("TEMPORAL_HOSTPORT", DefaultTemporalHostPort),
		TemporalNamespace: getEnv("TEMPORAL_NAMESPACE", DefaultTemporalNamespace),
	}

	var err error
	if cfg.MaxConcurrentLLM, err = getEnvInt("MAX_CONCURRENT_LLM_REQUESTS", DefaultMaxConcurrentLLM); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentImage, err = getEnvInt("MAX_CONCURRENT_IMAGE_REQUESTS", DefaultMaxConcurrentImage); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentGRPC, err = getEnvInt("MAX_CONCURRENT_GRPC_CALLS", DefaultMaxConcurrentGRPC); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentDB, err = getEnvInt("MAX_CONCURRENT_DB_OPERATIONS", DefaultMaxConcurrentDB); err != nil {
		return nil, err
	}
	if cfg.MaxWorkflowTasksPerWorker, err = getEnvInt("MAX_WORKFLOW_TASKS_PER_WORKER", DefaultMaxWorkflowTasks); err != nil {
		return nil, err
	}
	if cfg.MaxActivitiesPerWorker, err = getEnvInt("MAX_ACTIVITIES_PER_WORKER", DefaultMaxActivities); err != nil {
		return nil, err
	}
	if cfg.ConsulPort, err = getEnvInt("CONSUL_PORT", DefaultConsulPort); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required keys are present and values are sane.
func (c *Config) Validate() error {
	if c.OpenRouterAPIKey == "" {
		return &errors.ConfigError{Key: "OPENROUTER_API_KEY", Reason: "required"}
	}
	if c.RunwareAPIKey == "" {
		return &errors.ConfigError{Key: "RUNWARE_API_KEY", Reason: "required"}
	}
	if c.MongoURI == "" {
		return &errors.ConfigError{Key: "MONGODB_URI", Reason: "required"}
	}
	if c.MongoDatabase == "" {
		return &errors.ConfigError{Key: "MONGODB_DATABASE", Reason: "required"}
	}
	for key, v := range map[string]int{
		"MAX_CONCURRENT_LLM_REQUESTS":   c.MaxConcurrentLLM,
		"MAX_CONCURRENT_IMAGE_REQUESTS": c.MaxConcurrentImage,
		"MAX_CONCURRENT_GRPC_CALLS":     c.MaxConcurrentGRPC,
		"MAX_CONCURRENT_DB_OPERATIONS":  c.MaxConcurrentDB,
		"MAX_WORKFLOW_TASKS_PER_WORKER": c.MaxWorkflowTasksPerWorker,
		"MAX_ACTIVITIES_PER_WORKER":     c.MaxActivitiesPerWorker,
	} {
		if v <= 0 {
			return &errors.ConfigError{Key: key, Reason: fmt.Sprintf("must be > 0, got %d", v)}
		}
	}
	return nil
}

// ConsulAddress returns the registry address in host:port form.
func (c *Config) ConsulAddress() string {
	return fmt.Sprintf("%s:%d", c.ConsulHost, c.ConsulPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &errors.ConfigError{Key: key, Reason: "must be an integer", Cause: err}
	}
	return n, nil
}
