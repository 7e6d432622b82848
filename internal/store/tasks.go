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
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tombee/worldforge/pkg/errors"
)

// CreateTask inserts a new task document. Fails with DuplicateError when a
// task with the same id already exists.
func (s *Store) CreateTask(ctx context.Context, task *Task) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = TaskPending
	}

	_, err = s.db.Collection(CollectionTasks).InsertOne(ctx, task)
	if mongo.IsDuplicateKeyError(err) {
		return &errors.DuplicateError{Resource: "task", ID: task.ID}
	}
	if err != nil {
		return fmt.Errorf("insert task %s: %w", task.ID, err)
	}

	s.logger.Debug("task created", "task_id", task.ID, "type", task.Type, "world_id", task.WorldID)
	return nil
}

// GetTask fetches a task by id. Returns NotFoundError when absent.
func (s *Store) GetTask(ctx context.Context, taskID string) (*Task, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var task Task
	err = s.db.Collection(CollectionTasks).FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, &errors.NotFoundError{Resource: "task", ID: taskID}
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return &task, nil
}

// UpdateTask applies a $set patch with an automatic updated_at.
func (s *Store) UpdateTask(ctx context.Context, taskID string, patch map[string]any) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range patch {
		set[k] = v
	}

	res, err := s.db.Collection(CollectionTasks).UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}
	if res.MatchedCount == 0 {
		return &errors.NotFoundError{Resource: "task", ID: taskID}
	}
	return nil
}

// UpdateTaskStatus transitions a task's status and records the result or
// error payload.
func (s *Store) UpdateTaskStatus(ctx context.Context, taskID, status string, result map[string]any, taskErr string) error {
	patch := map[string]any{"status": status}
	if result != nil {
		patch["result"] = result
	}
	if taskErr != "" {
		patch["error"] = taskErr
	}
	return s.UpdateTask(ctx, taskID, patch)
}

// ClaimTask atomically claims a pending, unowned task for a worker. Exactly
// one of any number of concurrent claimants succeeds; the claim increments
// attempt_count once.
func (s *Store) ClaimTask(ctx context.Context, taskID, workerID string) (bool, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	filter := bson.M{
		"_id":       taskID,
		"status":    TaskPending,
		"worker_id": bson.M{"$in": bson.A{nil, ""}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     TaskInProgress,
			"worker_id":  workerID,
			"updated_at": time.Now().UTC(),
		},
		"$inc": bson.M{"attempt_count": 1},
	}

	res, err := s.db.Collection(CollectionTasks).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("claim task %s: %w", taskID, err)
	}

	claimed := res.ModifiedCount == 1
	if claimed {
		s.logger.Debug("task claimed", "task_id", taskID, "worker_id", workerID)
	}
	return claimed, nil
}
