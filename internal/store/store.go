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

package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/semaphore"

	"go.mongodb.org/mongo-driver/bson"
)

// Store wraps the MongoDB database. Every operation acquires the DB permit
// before touching the driver so the process-wide in-flight bound holds no
// matter how many activities run concurrently.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	permit *semaphore.Weighted
	logger *slog.Logger
}

// Options configures the connection pool.
type Options struct {
	URI      string
	Database string

	// DBPermit is the concurrency bound shared with the resource pool. The
	// driver's pool is sized at twice the permit so a full permit never
	// waits on a connection.
	DBPermit int64
}

// Connect dials MongoDB, verifies the connection, and bootstraps indexes.
func Connect(ctx context.Context, opts Options, permit *semaphore.Weighted, logger *slog.Logger) (*Store, error) {
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetMaxPoolSize(uint64(opts.DBPermit * 2)).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &Store{
		client: client,
		db:     client.Database(opts.Database),
		permit: permit,
		logger: logger.With("component", "store"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	s.logger.Info("connected to mongodb", "database", opts.Database)
	return s, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// acquire takes one DB permit, returning a release func.
func (s *Store) acquire(ctx context.Context) (func(), error) {
	if err := s.permit.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.permit.Release(1) }, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	taskIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "world_id", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "world_id", Value: 1}, {Key: "type", Value: 1}}},
	}
	if _, err := s.db.Collection(CollectionTasks).Indexes().CreateMany(ctx, taskIndexes); err != nil {
		return fmt.Errorf("create task indexes: %w", err)
	}

	historyIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "world_id", Value: 1}}},
		{Keys: bson.D{{Key: "task_id", Value: 1}}},
		{Keys: bson.D{{Key: "api_type", Value: 1}}},
	}
	if _, err := s.db.Collection(CollectionAPIHistory).Indexes().CreateMany(ctx, historyIndexes); err != nil {
		return fmt.Errorf("create history indexes: %w", err)
	}

	return nil
}
