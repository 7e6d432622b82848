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

// Package discovery resolves backend gRPC service addresses through Consul
// health queries, with a TTL cache and a static DNS fallback.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	consul "github.com/hashicorp/consul/api"
)

// DefaultTTL is how long a resolved address is served from cache.
const DefaultTTL = 30 * time.Second

// DefaultGRPCPort is assumed when falling back to plain DNS names.
const DefaultGRPCPort = 50051

type cacheEntry struct {
	address   string
	expiresAt time.Time
}

// Resolver answers "where is service X" using Consul's health endpoint,
// returning only passing instances. When Consul is unreachable or has no
// passing instance, resolution falls back to "{name}:50051" so a
// DNS-addressable deployment keeps working without a catalog.
type Resolver struct {
	health healthAPI
	logger *slog.Logger
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
	now   func() time.Time
}

// healthAPI is the slice of the Consul client the resolver needs.
type healthAPI interface {
	Service(service, tag string, passingOnly bool, q *consul.QueryOptions) ([]*consul.ServiceEntry, *consul.QueryMeta, error)
}

// New builds a Resolver against a Consul agent at address (host:port).
func New(address string, logger *slog.Logger) (*Resolver, error) {
	cfg := consul.DefaultConfig()
	cfg.Address = address

	client, err := consul.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return newResolver(client.Health(), logger), nil
}

func newResolver(health healthAPI, logger *slog.Logger) *Resolver {
	return &Resolver{
		health: health,
		logger: logger.With("component", "discovery"),
		ttl:    DefaultTTL,
		cache:  make(map[string]cacheEntry),
		now:    time.Now,
	}
}

// Resolve returns a dialable host:port for the named service.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	if entry, ok := r.cache[name]; ok && r.now().Before(entry.expiresAt) {
		r.mu.Unlock()
		return entry.address, nil
	}
	r.mu.Unlock()

	address := r.lookup(ctx, name)

	r.mu.Lock()
	r.cache[name] = cacheEntry{address: address, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()

	return address, nil
}

func (r *Resolver) lookup(ctx context.Context, name string) string {
	opts := (&consul.QueryOptions{}).WithContext(ctx)
	entries, _, err := r.health.Service(name, "", true, opts)
	if err != nil {
		r.logger.Warn("consul lookup failed, falling back to dns",
			"service", name, "error", err)
		return fallbackAddress(name)
	}
	if len(entries) == 0 {
		r.logger.Warn("no passing instances, falling back to dns", "service", name)
		return fallbackAddress(name)
	}

	entry := entries[0]
	host := entry.Service.Address
	if host == "" {
		host = entry.Node.Address
	}
	return fmt.Sprintf("%s:%d", host, entry.Service.Port)
}

// Invalidate drops the cached address for a service, forcing the next
// Resolve to re-query Consul. Callers use it after a dial failure.
func (r *Resolver) Invalidate(name string) {
	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()
}

func fallbackAddress(name string) string {
	return fmt.Sprintf("%s:%d", name, DefaultGRPCPort)
}
