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

// Package metrics exposes Prometheus instrumentation for the generation
// engine: external API calls, task outcomes, permit waits, and spend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APICalls counts outbound calls to external providers by provider
	// ("openrouter", "runware") and outcome ("ok", "error").
	APICalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worldforge_api_calls_total",
		Help: "Outbound external API calls by provider and outcome.",
	}, []string{"provider", "outcome"})

	// APICallDuration observes external call latency by provider.
	APICallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worldforge_api_call_duration_seconds",
		Help:    "Latency of outbound external API calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"provider"})

	// TasksProcessed counts task executions by type and final status.
	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worldforge_tasks_processed_total",
		Help: "Tasks processed by type and status.",
	}, []string{"type", "status"})

	// PermitWait observes time spent waiting on concurrency permits by
	// resource class ("llm", "image", "grpc", "db").
	PermitWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worldforge_permit_wait_seconds",
		Help:    "Time spent waiting for a concurrency permit.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"resource"})

	// GenerationCost accumulates spend by cost type ("llm", "image").
	GenerationCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worldforge_generation_cost_total",
		Help: "Accumulated generation spend in USD by cost type.",
	}, []string{"cost_type"})

	// GRPCCalls counts backend gRPC invocations by service and outcome.
	GRPCCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worldforge_grpc_calls_total",
		Help: "Backend gRPC calls by service and outcome.",
	}, []string{"service", "outcome"})

	// BreakerState reports circuit breaker state by breaker name
	// (0 closed, 1 half-open, 2 open).
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "worldforge_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"breaker"})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
