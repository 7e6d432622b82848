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

// worldforged is the generation worker daemon. It connects to Temporal,
// MongoDB, and Consul, then polls all five task queues until signalled.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	sdklog "go.temporal.io/sdk/log"

	"github.com/tombee/worldforge/internal/config"
	"github.com/tombee/worldforge/internal/log"
	"github.com/tombee/worldforge/internal/metrics"
	"github.com/tombee/worldforge/internal/resources"
	"github.com/tombee/worldforge/internal/worker"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		metricsAddr = flag.String("metrics", ":9090", "Address for the /metrics and /healthz endpoints (empty to disable)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("worldforged %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	logger := log.New(log.FromEnv())
	slog.SetDefault(logger)

	if err := run(logger, *metricsAddr); err != nil {
		logger.Error("daemon failed", log.Error(err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, metricsAddr string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	pool, err := resources.New(startCtx, cfg, logger)
	if err != nil {
		return err
	}

	tc, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    sdklog.NewStructuredLogger(logger),
	})
	if err != nil {
		closePool(pool, logger)
		return fmt.Errorf("dial temporal at %s: %w", cfg.TemporalHostPort, err)
	}

	var metricsServer *http.Server
	if metricsAddr != "" {
		metricsServer = serveMetrics(metricsAddr, logger)
	}

	set := worker.New(tc, cfg, pool, logger)
	if err := set.Start(); err != nil {
		shutdownMetrics(metricsServer, logger)
		tc.Close()
		closePool(pool, logger)
		return err
	}

	logger.Info("worldforged started",
		"version", version,
		"temporal", cfg.TemporalHostPort,
		"namespace", cfg.TemporalNamespace,
		"consul", cfg.ConsulAddress())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	// Workers drain first so in-flight activities can still reach the
	// store and the backend services underneath them.
	set.Stop()
	shutdownMetrics(metricsServer, logger)
	tc.Close()
	closePool(pool, logger)
	return nil
}

func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", log.Error(err))
		}
	}()
	return srv
}

func shutdownMetrics(srv *http.Server, logger *slog.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics shutdown failed", log.Error(err))
	}
}

func closePool(pool *resources.Pool, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pool.Close(ctx); err != nil {
		logger.Warn("pool close failed", log.Error(err))
	}
}
