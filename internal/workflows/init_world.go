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

package workflows

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/tombee/worldforge/internal/activities"
	"github.com/tombee/worldforge/internal/store"
)

// InitWorldCreationInput starts the whole pipeline. Unlike every other
// workflow it is invoked with its input inline because the publisher has
// no task document yet.
type InitWorldCreationInput struct {
	WorldID         string `json:"world_id"`
	WorldName       string `json:"world_name"`
	WorldPrompt     string `json:"world_prompt"`
	CharactersCount int    `json:"characters_count"`
	PostsCount      int    `json:"posts_count"`
	LLMCallLimit    int    `json:"api_call_limits_llm,omitempty"`
	ImageCallLimit  int    `json:"api_call_limits_images,omitempty"`
}

// InitWorldCreation seeds the ledger, hands the description step its task
// document, and returns as soon as the detached description child is
// running. Everything after that happens in the background tree.
func InitWorldCreation(ctx workflow.Context, input InitWorldCreationInput) (*WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("initializing world creation", "world_id", input.WorldID)

	if input.WorldPrompt == "" {
		return nil, temporal.NewNonRetryableApplicationError(
			"world prompt is required", "ValidationError", nil)
	}
	if input.CharactersCount <= 0 {
		input.CharactersCount = store.DefaultUsersCount
	}
	if input.PostsCount <= 0 {
		input.PostsCount = store.DefaultPostsCount
	}
	if input.LLMCallLimit <= 0 {
		input.LLMCallLimit = store.DefaultLLMCallLimit
	}
	if input.ImageCallLimit <= 0 {
		input.ImageCallLimit = store.DefaultImageCallLimit
	}

	err := workflow.ExecuteActivity(progressOptions(ctx), activities.NameInitializeWorld,
		activities.InitializeWorldInput{
			WorldID:        input.WorldID,
			UsersPredicted: input.CharactersCount,
			PostsPredicted: input.PostsCount,
			UserPrompt:     input.WorldPrompt,
			LLMLimit:       input.LLMCallLimit,
			ImagesLimit:    input.ImageCallLimit,
		}).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	if err := updateStage(ctx, input.WorldID, store.StageInitializing, store.StatusCompleted); err != nil {
		return nil, err
	}

	// The ledger exists from here on. Dying before the description child
	// is running leaves no stage to carry the failure, so the world itself
	// is marked FAILED on the way out.
	ref, err := saveTaskData(ctx, TaskGenerateWorldDescription, input.WorldID,
		GenerateWorldDescriptionInput{
			WorldID:    input.WorldID,
			UserPrompt: input.WorldPrompt,
			UsersCount: input.CharactersCount,
			PostsCount: input.PostsCount,
		})
	if err != nil {
		failWorld(ctx, input.WorldID)
		return nil, err
	}

	childID := childWorkflowID("generate-world-description", ref.TaskID)
	if err := startDetached(ctx, WorkflowGenerateWorldDescription, childID, ref); err != nil {
		failWorld(ctx, input.WorldID)
		return nil, err
	}

	if err := updateStage(ctx, input.WorldID, store.StageWorldDescription, store.StatusInProgress); err != nil {
		return nil, err
	}

	logger.Info("world creation initialized", "world_id", input.WorldID, "child", childID)
	return &WorkflowResult{
		Success: true,
		Data: map[string]any{
			"message":           "World generation initialized successfully",
			"world_id":          input.WorldID,
			"child_workflow_id": childID,
			"users_count":       input.CharactersCount,
			"posts_count":       input.PostsCount,
		},
	}, nil
}
