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

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
	"google.golang.org/grpc"

	"github.com/tombee/worldforge/internal/metrics"
	"github.com/tombee/worldforge/internal/resources"
)

// Gateway is the single entry point for backend gRPC calls. It resolves
// addresses through the pool's Consul resolver, shares the pool's lazy
// connection map, holds the gRPC permit for the duration of each call,
// and trips a per-service circuit breaker on repeated failures.
type Gateway struct {
	pool   *resources.Pool
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New builds a Gateway on top of the shared resource pool.
func New(pool *resources.Pool, logger *slog.Logger) *Gateway {
	return &Gateway{
		pool:     pool,
		logger:   logger.With("component", "gateway"),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (g *Gateway) breaker(service string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[service]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: service,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("breaker state change", "service", name,
				"from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	g.breakers[service] = cb
	return cb
}

// invoke resolves the service, takes a gRPC permit, and calls the method
// through the breaker with bounded exponential-backoff retries. reply must
// be a pointer.
func (g *Gateway) invoke(ctx context.Context, service, method string, req, reply any) error {
	release, err := g.pool.AcquireGRPC(ctx)
	if err != nil {
		return err
	}
	defer release()

	operation := func() (any, error) {
		target, err := g.pool.Resolver.Resolve(ctx, service)
		if err != nil {
			return nil, err
		}
		conn, err := g.pool.Conn(target)
		if err != nil {
			g.pool.Resolver.Invalidate(service)
			return nil, err
		}

		_, err = g.breaker(service).Execute(func() (any, error) {
			callErr := conn.Invoke(ctx, method, req, reply,
				grpc.CallContentSubtype(codecName))
			return nil, callErr
		})
		if err != nil {
			return nil, err
		}
		return nil, nil
	}

	start := time.Now()
	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
		backoff.WithMaxElapsedTime(45*time.Second))

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.GRPCCalls.WithLabelValues(service, outcome).Inc()

	if err != nil {
		return fmt.Errorf("call %s %s: %w", service, method, err)
	}
	g.logger.Debug("grpc call completed", "service", service,
		"method", method, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
