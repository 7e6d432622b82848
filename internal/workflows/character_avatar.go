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
	"github.com/tombee/worldforge/internal/gateway"
	"github.com/tombee/worldforge/internal/schemas"
)

// GenerateCharacterAvatarInput drives one avatar render.
type GenerateCharacterAvatarInput struct {
	WorldID     string                          `json:"world_id"`
	CharacterID string                          `json:"character_id"`
	Detail      schemas.CharacterDetailResponse `json:"character_detail"`
}

// GenerateCharacterAvatar optimizes the avatar description into a
// text-to-image prompt, renders it, and attaches the media to the
// character. Profiles without an avatar description short-circuit.
func GenerateCharacterAvatar(ctx workflow.Context, ref TaskRef) (*WorkflowResult, error) {
	return runTask(ctx, ref, generateCharacterAvatar)
}

func generateCharacterAvatar(ctx workflow.Context, ref TaskRef, input GenerateCharacterAvatarInput) (*WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	if input.Detail.AvatarDescription == "" {
		logger.Warn("no avatar description", "character_id", input.CharacterID)
		return &WorkflowResult{
			Success: true,
			Data:    map[string]any{"message": "No avatar description provided"},
		}, nil
	}
	logger.Info("starting avatar generation", "world_id", input.WorldID,
		"character_id", input.CharacterID)

	if err := incrementCounter(ctx, input.WorldID, counterLLMCalls, 1); err != nil {
		return nil, err
	}

	var res activities.LLMResult[schemas.CharacterAvatarPromptResponse]
	err := workflow.ExecuteActivity(imagePromptOptions(ctx), activities.NameGenerateAvatarPrompt,
		activities.AvatarPromptInput{
			TaskID:            ref.TaskID,
			WorldID:           input.WorldID,
			DisplayName:       input.Detail.DisplayName,
			AvatarDescription: input.Detail.AvatarDescription,
			AvatarStyle:       input.Detail.AvatarStyle,
		}).Get(ctx, &res)
	if err != nil {
		return nil, err
	}
	bookLLMCost(ctx, input.WorldID, res.Cost)

	prompt := res.Response.Prompt
	if prompt == "" {
		prompt = input.Detail.AvatarDescription
	}

	if err := incrementCounter(ctx, input.WorldID, counterImageCalls, 1); err != nil {
		return nil, err
	}

	var img activities.GenerateImageOutput
	err = workflow.ExecuteActivity(imageOptions(ctx), activities.NameGenerateAndUploadImage,
		activities.GenerateImageInput{
			TaskID:      ref.TaskID,
			WorldID:     input.WorldID,
			CharacterID: input.CharacterID,
			Prompt:      prompt,
			MediaType:   int(gateway.MediaCharacterAvatar),
			Width:       squareSize,
			Height:      squareSize,
			Filename:    "avatar.png",
		}).Get(ctx, &img)
	if err != nil {
		return nil, err
	}

	err = workflow.ExecuteActivity(serviceOptions(ctx), activities.NameUpdateCharacterAvatar,
		activities.UpdateCharacterAvatarInput{
			CharacterID:   input.CharacterID,
			AvatarMediaID: img.MediaID,
		}).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	logger.Info("avatar attached", "character_id", input.CharacterID, "media_id", img.MediaID)
	return &WorkflowResult{
		Success: true,
		Data: map[string]any{
			"character_id":  input.CharacterID,
			"display_name":  input.Detail.DisplayName,
			"avatar_id":     img.MediaID,
			"avatar_prompt": prompt,
		},
	}, nil
}
