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
	"go.temporal.io/sdk/workflow"

	"github.com/tombee/worldforge/internal/activities"
	"github.com/tombee/worldforge/internal/schemas"
	"github.com/tombee/worldforge/internal/store"
)

// GenerateWorldDescriptionInput drives the root content step.
type GenerateWorldDescriptionInput struct {
	WorldID    string `json:"world_id"`
	UserPrompt string `json:"user_prompt"`
	UsersCount int    `json:"users_count"`
	PostsCount int    `json:"posts_count"`
}

// GenerateWorldDescription produces and persists the canonical world
// parameters, then fans out into the image branch and the character
// branch. The two branches advance independently from here on.
func GenerateWorldDescription(ctx workflow.Context, ref TaskRef) (*WorkflowResult, error) {
	return runTask(ctx, ref, generateWorldDescription)
}

func generateWorldDescription(ctx workflow.Context, ref TaskRef, input GenerateWorldDescriptionInput) (*WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting world description generation", "world_id", input.WorldID)

	if err := updateStage(ctx, input.WorldID, store.StageWorldDescription, store.StatusInProgress); err != nil {
		return nil, err
	}
	if err := incrementCounter(ctx, input.WorldID, counterLLMCalls, 1); err != nil {
		return nil, err
	}

	var res activities.LLMResult[schemas.WorldDescriptionResponse]
	err := workflow.ExecuteActivity(worldDescriptionOptions(ctx), activities.NameGenerateWorldDescription,
		activities.WorldDescriptionInput{
			TaskID:     ref.TaskID,
			WorldID:    input.WorldID,
			UserPrompt: input.UserPrompt,
		}).Get(ctx, &res)
	if err != nil {
		failStage(ctx, input.WorldID, store.StageWorldDescription)
		return nil, err
	}
	bookLLMCost(ctx, input.WorldID, res.Cost)

	params := &store.WorldParameters{
		ID:                       input.WorldID,
		WorldDescriptionResponse: res.Response,
		UserPrompt:               input.UserPrompt,
		UsersCount:               input.UsersCount,
		PostsCount:               input.PostsCount,
	}
	err = workflow.ExecuteActivity(progressOptions(ctx), activities.NameSaveWorldParameters, params).Get(ctx, nil)
	if err != nil {
		failStage(ctx, input.WorldID, store.StageWorldDescription)
		return nil, err
	}

	// Push the document downstream so the world page fills in before the
	// rest of the generation lands. Not fatal: the canonical copy is ours.
	err = workflow.ExecuteActivity(serviceOptions(ctx), activities.NameUpdateWorldParams,
		activities.UpdateWorldParamsInput{
			WorldID:     input.WorldID,
			Name:        res.Response.Name,
			Description: res.Response.Description,
			Parameters:  worldServiceParameters(&res.Response),
		}).Get(ctx, nil)
	if err != nil {
		logger.Warn("world service params push failed", "world_id", input.WorldID, "error", err)
	}

	if err := updateStage(ctx, input.WorldID, store.StageWorldDescription, store.StatusCompleted); err != nil {
		return nil, err
	}

	imageID, charsID := startNextBranches(ctx, input)

	return &WorkflowResult{
		Success: true,
		Data: map[string]any{
			"world_id":               input.WorldID,
			"world_name":             res.Response.Name,
			"image_workflow_id":      imageID,
			"characters_workflow_id": charsID,
		},
	}, nil
}

// startNextBranches launches the detached image and character-batch
// children and advances their stages. A branch that fails to start is
// logged and its stage marked FAILED, but the description result stands.
func startNextBranches(ctx workflow.Context, input GenerateWorldDescriptionInput) (imageID, charsID string) {
	logger := workflow.GetLogger(ctx)

	imageRef, err := saveTaskData(ctx, TaskGenerateWorldImage, input.WorldID,
		GenerateWorldImageInput{WorldID: input.WorldID})
	if err == nil {
		imageID = childWorkflowID("generate-world-image", imageRef.TaskID)
		err = startDetached(ctx, WorkflowGenerateWorldImage, imageID, imageRef)
	}
	if err != nil {
		logger.Error("failed to start world image branch", "world_id", input.WorldID, "error", err)
		failStage(ctx, input.WorldID, store.StageWorldImage)
		imageID = ""
	} else if err := updateStage(ctx, input.WorldID, store.StageWorldImage, store.StatusInProgress); err != nil {
		logger.Warn("world image stage update failed", "world_id", input.WorldID, "error", err)
	}

	batchRef, err := saveTaskData(ctx, TaskGenerateCharacterBatch, input.WorldID,
		GenerateCharacterBatchInput{
			WorldID:             input.WorldID,
			UsersCount:          input.UsersCount,
			PostsCount:          input.PostsCount,
			RemainingPostsCount: input.PostsCount,
			TotalUsersCount:     input.UsersCount,
		})
	if err == nil {
		charsID = childWorkflowID("generate-character-batch", batchRef.TaskID)
		err = startDetached(ctx, WorkflowGenerateCharacterBatch, charsID, batchRef)
	}
	if err != nil {
		logger.Error("failed to start character branch", "world_id", input.WorldID, "error", err)
		failStage(ctx, input.WorldID, store.StageCharacters)
		charsID = ""
	} else if err := updateStage(ctx, input.WorldID, store.StageCharacters, store.StatusInProgress); err != nil {
		logger.Warn("characters stage update failed", "world_id", input.WorldID, "error", err)
	}

	return imageID, charsID
}

// worldServiceParameters flattens the generated document into the opaque
// parameter map the world service stores.
func worldServiceParameters(w *schemas.WorldDescriptionResponse) map[string]any {
	return map[string]any{
		"theme":             w.Theme,
		"technology_level":  w.TechnologyLevel,
		"social_structure":  w.SocialStructure,
		"culture":           w.Culture,
		"geography":         w.Geography,
		"visual_style":      w.VisualStyle,
		"history":           w.History,
		"common_activities": w.CommonActivities,
	}
}
