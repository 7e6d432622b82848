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
)

// GenerateCharacterInput expands one sketch from a batch.
type GenerateCharacterInput struct {
	WorldID           string                   `json:"world_id"`
	Character         schemas.CharacterConcept `json:"character_data"`
	PostsPerCharacter int                      `json:"posts_per_character,omitempty"`
}

// GenerateCharacter turns a concept into a full profile, registers it with
// the character service, and fans out into the avatar and post branches.
// Avatar and posts run detached so a slow diffusion queue never blocks
// post production.
func GenerateCharacter(ctx workflow.Context, ref TaskRef) (*WorkflowResult, error) {
	return runTask(ctx, ref, generateCharacter)
}

func generateCharacter(ctx workflow.Context, ref TaskRef, input GenerateCharacterInput) (*WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting character generation", "world_id", input.WorldID,
		"concept", input.Character.ID)

	if err := incrementCounter(ctx, input.WorldID, counterLLMCalls, 1); err != nil {
		return nil, err
	}

	var res activities.LLMResult[schemas.CharacterDetailResponse]
	err := workflow.ExecuteActivity(characterDetailOptions(ctx), activities.NameGenerateCharacterDetail,
		activities.CharacterDetailInput{
			TaskID:  ref.TaskID,
			WorldID: input.WorldID,
			Concept: input.Character,
		}).Get(ctx, &res)
	if err != nil {
		return nil, err
	}
	bookLLMCost(ctx, input.WorldID, res.Cost)
	detail := res.Response

	var characterID string
	err = workflow.ExecuteActivity(serviceOptions(ctx), activities.NameCreateCharacter,
		activities.CreateCharacterInput{
			WorldID: input.WorldID,
			Detail:  detail,
		}).Get(ctx, &characterID)
	if err != nil {
		return nil, err
	}
	logger.Info("character registered", "world_id", input.WorldID,
		"character_id", characterID, "username", detail.Username)

	if err := incrementCounter(ctx, input.WorldID, counterUsersCreated, 1); err != nil {
		return nil, err
	}

	avatarRef, err := saveTaskData(ctx, TaskGenerateCharacterAvatar, input.WorldID,
		GenerateCharacterAvatarInput{
			WorldID:     input.WorldID,
			CharacterID: characterID,
			Detail:      detail,
		})
	if err != nil {
		return nil, err
	}
	avatarID := childWorkflowID("generate-character-avatar", avatarRef.TaskID)
	if err := startDetached(ctx, WorkflowGenerateCharacterAvatar, avatarID, avatarRef); err != nil {
		return nil, err
	}

	postsCount := input.Character.PostsCount
	if postsCount == 0 {
		postsCount = input.PostsPerCharacter
	}
	postsRef, err := saveTaskData(ctx, TaskGeneratePostBatch, input.WorldID,
		GeneratePostBatchInput{
			WorldID:     input.WorldID,
			CharacterID: characterID,
			PostsCount:  postsCount,
			Detail:      detail,
		})
	if err != nil {
		return nil, err
	}
	postsID := childWorkflowID("generate-post-batch", postsRef.TaskID)
	if err := startDetached(ctx, WorkflowGeneratePostBatch, postsID, postsRef); err != nil {
		return nil, err
	}

	return &WorkflowResult{
		Success: true,
		Data: map[string]any{
			"character_id":        characterID,
			"username":            detail.Username,
			"display_name":        detail.DisplayName,
			"avatar_workflow_id":  avatarID,
			"posts_workflow_id":   postsID,
			"posts_per_character": postsCount,
		},
	}, nil
}
