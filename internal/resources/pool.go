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

// Package resources owns the process-wide shared state of a worker: the
// concurrency permits, the pooled HTTP client, lazily dialed gRPC
// connections, the MongoDB store, and the Consul resolver. One Pool is
// built at startup and threaded into every activity struct.
package resources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/tombee/worldforge/internal/config"
	"github.com/tombee/worldforge/internal/discovery"
	"github.com/tombee/worldforge/internal/metrics"
	"github.com/tombee/worldforge/internal/store"
	"github.com/tombee/worldforge/pkg/httpclient"
)

// Permit classes, used as metric labels and log fields.
const (
	PermitLLM   = "llm"
	PermitImage = "image"
	PermitGRPC  = "grpc"
	PermitDB    = "db"
)

// Pool is the shared resource set for one worker process.
type Pool struct {
	HTTP     *http.Client
	Store    *store.Store
	Resolver *discovery.Resolver

	llmPermit   *semaphore.Weighted
	imagePermit *semaphore.Weighted
	grpcPermit  *semaphore.Weighted

	logger *slog.Logger

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

// New builds the pool: permits sized from config, a pooled HTTP client,
// the MongoDB store, and the Consul resolver. The DB permit is shared
// with the store so its bound covers every database operation.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pool, error) {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = 120 * time.Second
	httpCfg.UserAgent = "worldforge/1.0"
	httpClient, err := httpclient.New(httpCfg)
	if err != nil {
		return nil, fmt.Errorf("build http client: %w", err)
	}

	dbPermit := semaphore.NewWeighted(int64(cfg.MaxConcurrentDB))
	st, err := store.Connect(ctx, store.Options{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
		DBPermit: int64(cfg.MaxConcurrentDB),
	}, dbPermit, logger)
	if err != nil {
		return nil, err
	}

	resolver, err := discovery.New(cfg.ConsulAddress(), logger)
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}

	return &Pool{
		HTTP:        httpClient,
		Store:       st,
		Resolver:    resolver,
		llmPermit:   semaphore.NewWeighted(int64(cfg.MaxConcurrentLLM)),
		imagePermit: semaphore.NewWeighted(int64(cfg.MaxConcurrentImage)),
		grpcPermit:  semaphore.NewWeighted(int64(cfg.MaxConcurrentGRPC)),
		logger:      logger.With("component", "resources"),
		conns:       make(map[string]*grpc.ClientConn),
	}, nil
}

// NewStatic builds a pool with explicit permits and a caller-supplied HTTP
// client, without a store or resolver. Used by tools and tests that only
// need the permit and client surface.
func NewStatic(httpClient *http.Client, llm, image, grpcPermits int64, logger *slog.Logger) *Pool {
	return &Pool{
		HTTP:        httpClient,
		llmPermit:   semaphore.NewWeighted(llm),
		imagePermit: semaphore.NewWeighted(image),
		grpcPermit:  semaphore.NewWeighted(grpcPermits),
		logger:      logger.With("component", "resources"),
		conns:       make(map[string]*grpc.ClientConn),
	}
}

// AcquireLLM takes one LLM permit, blocking until available or ctx ends.
func (p *Pool) AcquireLLM(ctx context.Context) (func(), error) {
	return p.acquire(ctx, PermitLLM, p.llmPermit)
}

// AcquireImage takes one image generation permit.
func (p *Pool) AcquireImage(ctx context.Context) (func(), error) {
	return p.acquire(ctx, PermitImage, p.imagePermit)
}

// AcquireGRPC takes one backend call permit.
func (p *Pool) AcquireGRPC(ctx context.Context) (func(), error) {
	return p.acquire(ctx, PermitGRPC, p.grpcPermit)
}

func (p *Pool) acquire(ctx context.Context, class string, sem *semaphore.Weighted) (func(), error) {
	start := time.Now()
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire %s permit: %w", class, err)
	}
	metrics.PermitWait.WithLabelValues(class).Observe(time.Since(start).Seconds())
	return func() { sem.Release(1) }, nil
}

// Conn returns a shared gRPC connection to the given host:port, dialing
// on first use. Connections are keyed by address and reused for the
// process lifetime; gRPC reconnects transparently underneath.
func (p *Pool) Conn(target string) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[target]; ok {
		return conn, nil
	}

	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                60 * time.Second,
			Timeout:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	p.conns[target] = conn
	p.logger.Debug("grpc connection opened", "target", target)
	return conn, nil
}

// Close releases everything in dependency order: HTTP connections first,
// then gRPC, then the database last since in-flight work may still be
// flushing state.
func (p *Pool) Close(ctx context.Context) error {
	p.HTTP.CloseIdleConnections()

	p.mu.Lock()
	for target, conn := range p.conns {
		if err := conn.Close(); err != nil {
			p.logger.Warn("grpc close failed", "target", target, "error", err)
		}
	}
	p.conns = make(map[string]*grpc.ClientConn)
	p.mu.Unlock()

	// Static pools carry no store.
	if p.Store != nil {
		if err := p.Store.Close(ctx); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}

	p.logger.Info("resource pool closed")
	return nil
}
