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

// Package workflows holds the deterministic orchestration code: nine
// workflow kinds composing the world generation pipeline out of the
// activities in internal/activities. Workflow functions never touch I/O
// directly; everything external goes through an activity or a child
// workflow.
//
// Large payloads never ride inside workflow arguments. A parent persists
// them as a task document through the CreateTask activity and passes only
// a TaskRef down the tree; the child loads the document back with GetTask.
// This keeps workflow histories small no matter how deep the recursion
// goes.
package workflows

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/workflow"

	"github.com/tombee/worldforge/internal/activities"
	"github.com/tombee/worldforge/internal/store"
)

// Registered workflow names. The publisher and every start_child_workflow
// call refer to these strings, never to the Go function values.
const (
	WorkflowInitWorldCreation        = "InitWorldCreationWorkflow"
	WorkflowGenerateWorldDescription = "GenerateWorldDescriptionWorkflow"
	WorkflowGenerateWorldImage       = "GenerateWorldImageWorkflow"
	WorkflowGenerateCharacterBatch   = "GenerateCharacterBatchWorkflow"
	WorkflowGenerateCharacter        = "GenerateCharacterWorkflow"
	WorkflowGenerateCharacterAvatar  = "GenerateCharacterAvatarWorkflow"
	WorkflowGeneratePostBatch        = "GeneratePostBatchWorkflow"
	WorkflowGeneratePost             = "GeneratePostWorkflow"
	WorkflowGeneratePostImage        = "GeneratePostImageWorkflow"
)

// Task types as stored in the task documents. One per workflow kind.
const (
	TaskInitWorldCreation        = "init_world_creation"
	TaskGenerateWorldDescription = "generate_world_description"
	TaskGenerateWorldImage       = "generate_world_image"
	TaskGenerateCharacterBatch   = "generate_character_batch"
	TaskGenerateCharacter        = "generate_character"
	TaskGenerateCharacterAvatar  = "generate_character_avatar"
	TaskGeneratePostBatch        = "generate_post_batch"
	TaskGeneratePost             = "generate_post"
	TaskGeneratePostImage        = "generate_post_image"
)

// TaskRef is the only payload crossing a parent-child boundary: the id of
// the task document holding the real input.
type TaskRef struct {
	TaskID string `json:"task_id"`
}

// WorkflowResult is the uniform return shape of every workflow. Diagnostic
// terminations (depth cap, empty batch) report Success with an Error
// string so that the run is not retried.
type WorkflowResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// childWorkflowID builds the deterministic id of a child run. The task id
// is already unique, the prefix keeps the Temporal UI navigable.
func childWorkflowID(kind, taskID string) string {
	return fmt.Sprintf("%s-%s", kind, taskID)
}

// saveTaskData persists a workflow input as a task document and returns
// the TaskRef to hand to the child. The task id comes from a side effect
// so replays observe the same id.
func saveTaskData(ctx workflow.Context, taskType, worldID string, input any) (TaskRef, error) {
	var taskID string
	if err := workflow.SideEffect(ctx, func(workflow.Context) any {
		return uuid.NewString()
	}).Get(&taskID); err != nil {
		return TaskRef{}, err
	}

	params, err := toParameters(input)
	if err != nil {
		return TaskRef{}, err
	}

	err = workflow.ExecuteActivity(progressOptions(ctx), activities.NameCreateTask, activities.CreateTaskInput{
		TaskID:     taskID,
		Type:       taskType,
		WorldID:    worldID,
		Parameters: params,
	}).Get(ctx, nil)
	if err != nil {
		return TaskRef{}, err
	}
	if err := incrementCounter(ctx, worldID, counterTasksTotal, 1); err != nil {
		return TaskRef{}, err
	}
	return TaskRef{TaskID: taskID}, nil
}

// loadTask fetches the task document behind a TaskRef and decodes its
// parameters into the workflow's input type.
func loadTask[T any](ctx workflow.Context, ref TaskRef) (*store.Task, T, error) {
	var input T

	var task store.Task
	err := workflow.ExecuteActivity(progressOptions(ctx), activities.NameGetTask,
		activities.TaskLookupInput{TaskID: ref.TaskID}).Get(ctx, &task)
	if err != nil {
		return nil, input, err
	}

	raw, err := json.Marshal(task.Parameters)
	if err != nil {
		return nil, input, fmt.Errorf("encode task %s parameters: %w", ref.TaskID, err)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, input, fmt.Errorf("decode task %s parameters: %w", ref.TaskID, err)
	}
	return &task, input, nil
}

// runTask runs one task-backed workflow body inside the task lifecycle:
// load the document, claim it, execute, then record the outcome on the
// task and the ledger's task counters.
func runTask[T any](ctx workflow.Context, ref TaskRef, body func(workflow.Context, TaskRef, T) (*WorkflowResult, error)) (*WorkflowResult, error) {
	task, input, err := loadTask[T](ctx, ref)
	if err != nil {
		return nil, err
	}

	var claimed bool
	err = workflow.ExecuteActivity(progressOptions(ctx), activities.NameClaimTask,
		activities.TaskLookupInput{TaskID: ref.TaskID}).Get(ctx, &claimed)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// The workflow id is derived from the task id, so a lost claim
		// means an earlier attempt of this same run took it, not a second
		// executor. Stopping here would wedge every retried task.
		workflow.GetLogger(ctx).Warn("task already claimed",
			"task_id", ref.TaskID, "type", task.Type, "attempt_count", task.AttemptCount)
	}

	result, err := body(ctx, ref, input)
	if err != nil {
		failTask(ctx, task.WorldID, ref.TaskID, err)
		return nil, err
	}
	completeTask(ctx, task.WorldID, ref.TaskID, result)
	return result, nil
}

// completeTask records a successful outcome. Bookkeeping is best-effort:
// the work is done and paid for, so a ledger hiccup only gets logged.
func completeTask(ctx workflow.Context, worldID, taskID string, result *WorkflowResult) {
	err := workflow.ExecuteActivity(progressOptions(ctx), activities.NameUpdateTaskStatus,
		activities.UpdateTaskStatusInput{
			TaskID: taskID,
			Status: store.TaskCompleted,
			Result: result.Data,
		}).Get(ctx, nil)
	if err == nil {
		err = incrementCounter(ctx, worldID, counterTasksCompleted, 1)
	}
	if err != nil {
		workflow.GetLogger(ctx).Warn("task completion bookkeeping failed",
			"task_id", taskID, "error", err)
	}
}

// failTask records a failed outcome on a disconnected context so the
// original failure stays the one reported.
func failTask(ctx workflow.Context, worldID, taskID string, taskErr error) {
	dctx, cancel := workflow.NewDisconnectedContext(ctx)
	defer cancel()
	err := workflow.ExecuteActivity(progressOptions(dctx), activities.NameUpdateTaskStatus,
		activities.UpdateTaskStatusInput{
			TaskID: taskID,
			Status: store.TaskFailed,
			Error:  taskErr.Error(),
		}).Get(dctx, nil)
	if err == nil {
		err = incrementCounter(dctx, worldID, counterTasksFailed, 1)
	}
	if err != nil {
		workflow.GetLogger(ctx).Error("task failure bookkeeping failed",
			"task_id", taskID, "error", err)
	}
}

// startDetached launches a child workflow that survives its parent. The
// call blocks only until the child is confirmed started; abandoning the
// future without that confirmation would lose the child when the parent
// returns first.
func startDetached(ctx workflow.Context, name, id string, arg any) error {
	cctx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:        id,
		TaskQueue:         QueueMain,
		ParentClosePolicy: enumspb.PARENT_CLOSE_POLICY_ABANDON,
	})
	var exec workflow.Execution
	return workflow.ExecuteChildWorkflow(cctx, name, arg).
		GetChildWorkflowExecution().Get(ctx, &exec)
}

// toParameters flattens a typed input into the opaque parameter map the
// task store persists.
func toParameters(input any) (map[string]any, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode task parameters: %w", err)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("decode task parameters: %w", err)
	}
	return params, nil
}

// updateStage writes one ledger stage transition.
func updateStage(ctx workflow.Context, worldID, stage, status string) error {
	return workflow.ExecuteActivity(progressOptions(ctx), activities.NameUpdateStage,
		activities.UpdateStageInput{WorldID: worldID, Stage: stage, Status: status}).Get(ctx, nil)
}

// incrementCounter bumps one whitelisted ledger counter.
func incrementCounter(ctx workflow.Context, worldID, field string, delta int) error {
	return workflow.ExecuteActivity(progressOptions(ctx), activities.NameIncrementCounter,
		activities.IncrementCounterInput{WorldID: worldID, Field: field, Delta: delta}).Get(ctx, nil)
}

// bookLLMCost records completion spend on the ledger. Accounting is
// best-effort: a ledger hiccup must not fail a workflow that already paid
// for the tokens.
func bookLLMCost(ctx workflow.Context, worldID string, cost float64) {
	if cost == 0 {
		return
	}
	err := workflow.ExecuteActivity(progressOptions(ctx), activities.NameIncrementCost,
		activities.IncrementCostInput{WorldID: worldID, CostType: "llm", Cost: cost}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Warn("llm cost increment failed", "world_id", worldID, "error", err)
	}
}

// Ledger counter fields the workflows touch.
const (
	counterTasksTotal     = "tasks_total"
	counterTasksCompleted = "tasks_completed"
	counterTasksFailed    = "tasks_failed"
	counterLLMCalls       = "api_calls_made_LLM"
	counterImageCalls     = "api_calls_made_images"
	counterUsersCreated   = "users_created"
	counterPostsCreated   = "posts_created"
)

// Image dimensions per slot.
const (
	headerWidth  = 1024
	headerHeight = 512
	squareSize   = 512
)

// failStage marks a stage FAILED, tolerating ledger errors so the original
// failure stays the one reported.
func failStage(ctx workflow.Context, worldID, stage string) {
	dctx, cancel := workflow.NewDisconnectedContext(ctx)
	defer cancel()
	if err := updateStage(dctx, worldID, stage, store.StatusFailed); err != nil {
		workflow.GetLogger(ctx).Error("failed to record stage failure",
			"world_id", worldID, "stage", stage, "error", err)
	}
}

// failWorld marks the whole ledger FAILED. Used when the pipeline dies
// between stages, where no stage transition would surface the failure.
func failWorld(ctx workflow.Context, worldID string) {
	dctx, cancel := workflow.NewDisconnectedContext(ctx)
	defer cancel()
	err := workflow.ExecuteActivity(progressOptions(dctx), activities.NameUpdateProgress,
		activities.UpdateProgressInput{
			WorldID: worldID,
			Updates: map[string]any{"status": store.StatusFailed},
		}).Get(dctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("failed to record world failure",
			"world_id", worldID, "error", err)
	}
}

