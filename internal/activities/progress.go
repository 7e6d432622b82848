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

package activities

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/tombee/worldforge/internal/store"
	"github.com/tombee/worldforge/pkg/errors"
)

// ProgressActivities covers the task store and the per-world ledger.
// Registered on the progress queue.
type ProgressActivities struct {
	Store    *store.Store
	WorkerID string
	Logger   *slog.Logger
}

// CreateTaskInput describes one task document to persist.
type CreateTaskInput struct {
	TaskID     string         `json:"task_id"`
	Type       string         `json:"type"`
	WorldID    string         `json:"world_id"`
	Parameters map[string]any `json:"parameters"`
}

// CreateTask writes the task document. A duplicate id means a workflow
// retry already wrote it, which counts as success.
func (a *ProgressActivities) CreateTask(ctx context.Context, in CreateTaskInput) error {
	err := a.Store.CreateTask(ctx, &store.Task{
		ID:         in.TaskID,
		Type:       in.Type,
		WorldID:    in.WorldID,
		Parameters: in.Parameters,
	})
	var dup *errors.DuplicateError
	if stderrors.As(err, &dup) {
		a.Logger.Debug("task already exists", "task_id", in.TaskID)
		return nil
	}
	return err
}

// TaskLookupInput identifies one task.
type TaskLookupInput struct {
	TaskID string `json:"task_id"`
}

// GetTask loads the task document.
func (a *ProgressActivities) GetTask(ctx context.Context, in TaskLookupInput) (*store.Task, error) {
	return a.Store.GetTask(ctx, in.TaskID)
}

// ClaimTask claims the task for this worker. Returns whether the claim
// won; a lost claim means another worker is already executing the task.
func (a *ProgressActivities) ClaimTask(ctx context.Context, in TaskLookupInput) (bool, error) {
	return a.Store.ClaimTask(ctx, in.TaskID, a.WorkerID)
}

// UpdateTaskStatusInput transitions a task's lifecycle status.
type UpdateTaskStatusInput struct {
	TaskID string         `json:"task_id"`
	Status string         `json:"status"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// UpdateTaskStatus records the task outcome.
func (a *ProgressActivities) UpdateTaskStatus(ctx context.Context, in UpdateTaskStatusInput) error {
	return a.Store.UpdateTaskStatus(ctx, in.TaskID, in.Status, in.Result, in.Error)
}

// InitializeWorldInput seeds the ledger for a new world.
type InitializeWorldInput struct {
	WorldID        string `json:"world_id"`
	UsersPredicted int    `json:"users_predicted"`
	PostsPredicted int    `json:"posts_predicted"`
	UserPrompt     string `json:"user_prompt"`
	LLMLimit       int    `json:"llm_limit"`
	ImagesLimit    int    `json:"images_limit"`
}

// InitializeWorld creates the ledger. A duplicate means a retry already
// created it; the existing document is returned instead.
func (a *ProgressActivities) InitializeWorld(ctx context.Context, in InitializeWorldInput) (*store.WorldGenerationStatus, error) {
	doc, err := a.Store.InitializeWorld(ctx, in.WorldID,
		in.UsersPredicted, in.PostsPredicted, in.UserPrompt, in.LLMLimit, in.ImagesLimit)
	var dup *errors.DuplicateError
	if stderrors.As(err, &dup) {
		return a.Store.GetWorldStatus(ctx, in.WorldID)
	}
	return doc, err
}

// UpdateStageInput transitions one ledger stage.
type UpdateStageInput struct {
	WorldID string `json:"world_id"`
	Stage   string `json:"stage"`
	Status  string `json:"status"`
}

// UpdateStage transitions the stage and returns the derived overall status.
func (a *ProgressActivities) UpdateStage(ctx context.Context, in UpdateStageInput) (string, error) {
	doc, err := a.Store.UpdateStage(ctx, in.WorldID, in.Stage, in.Status)
	if err != nil {
		return "", err
	}
	return doc.Status, nil
}

// IncrementCounterInput bumps one whitelisted ledger counter.
type IncrementCounterInput struct {
	WorldID string `json:"world_id"`
	Field   string `json:"field"`
	Delta   int    `json:"delta"`
}

// IncrementCounter applies the atomic increment.
func (a *ProgressActivities) IncrementCounter(ctx context.Context, in IncrementCounterInput) error {
	delta := in.Delta
	if delta == 0 {
		delta = 1
	}
	return a.Store.IncrementCounter(ctx, in.WorldID, in.Field, delta)
}

// IncrementCostInput adds spend to one cost field.
type IncrementCostInput struct {
	WorldID  string  `json:"world_id"`
	CostType string  `json:"cost_type"`
	Cost     float64 `json:"cost"`
}

// IncrementCost applies the atomic cost increment.
func (a *ProgressActivities) IncrementCost(ctx context.Context, in IncrementCostInput) error {
	return a.Store.IncrementCost(ctx, in.WorldID, in.CostType, in.Cost)
}

// UpdateProgressInput applies a generic field set on the ledger.
type UpdateProgressInput struct {
	WorldID string         `json:"world_id"`
	Updates map[string]any `json:"updates"`
}

// UpdateProgress writes the field set.
func (a *ProgressActivities) UpdateProgress(ctx context.Context, in UpdateProgressInput) error {
	return a.Store.UpdateProgress(ctx, in.WorldID, in.Updates)
}

// SaveWorldParameters persists the canonical world document.
func (a *ProgressActivities) SaveWorldParameters(ctx context.Context, params *store.WorldParameters) error {
	return a.Store.SaveWorldParameters(ctx, params)
}

// WorldLookupInput identifies one world.
type WorldLookupInput struct {
	WorldID string `json:"world_id"`
}

// CheckWorldCompletion closes out the POSTS and FINISHING stages once the
// world's post production is observably done: either every other stage is
// completed, or the created count reached the prediction. Runs after each
// posts_created increment; concurrent invocations converge on the same
// terminal state.
func (a *ProgressActivities) CheckWorldCompletion(ctx context.Context, in WorldLookupInput) (bool, error) {
	status, err := a.Store.GetWorldStatus(ctx, in.WorldID)
	if err != nil {
		return false, err
	}

	othersDone := true
	for _, st := range status.Stages {
		if st.Name == store.StagePosts || st.Name == store.StageFinishing {
			continue
		}
		if st.Status != store.StatusCompleted {
			othersDone = false
			break
		}
	}

	done := othersDone || status.PostsCreated >= status.PostsPredicted
	if !done {
		return false, nil
	}

	if _, err := a.Store.UpdateStage(ctx, in.WorldID, store.StagePosts, store.StatusCompleted); err != nil {
		return false, err
	}
	if _, err := a.Store.UpdateStage(ctx, in.WorldID, store.StageFinishing, store.StatusCompleted); err != nil {
		return false, err
	}

	a.Logger.Info("world generation finished", "world_id", in.WorldID,
		"posts_created", status.PostsCreated, "posts_predicted", status.PostsPredicted)
	return true, nil
}
