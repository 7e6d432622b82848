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
	"github.com/tombee/worldforge/internal/store"
)

// GenerateWorldImageInput identifies the world whose header and icon are
// rendered. The world parameters are loaded by the LLM activity itself.
type GenerateWorldImageInput struct {
	WorldID string `json:"world_id"`
}

// GenerateWorldImage plans both world images with one completion, renders
// them in parallel, and attaches the resulting media to the world. A
// failure anywhere marks the WORLD_IMAGE stage FAILED without touching
// the character branch.
func GenerateWorldImage(ctx workflow.Context, ref TaskRef) (*WorkflowResult, error) {
	return runTask(ctx, ref, generateWorldImage)
}

func generateWorldImage(ctx workflow.Context, ref TaskRef, input GenerateWorldImageInput) (*WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting world image generation", "world_id", input.WorldID)

	if err := incrementCounter(ctx, input.WorldID, counterLLMCalls, 1); err != nil {
		return nil, err
	}

	var prompts activities.LLMResult[schemas.ImagePromptResponse]
	err := workflow.ExecuteActivity(imagePromptOptions(ctx), activities.NameGenerateWorldImagePrompts,
		activities.WorldImagePromptsInput{TaskID: ref.TaskID, WorldID: input.WorldID}).Get(ctx, &prompts)
	if err != nil {
		failStage(ctx, input.WorldID, store.StageWorldImage)
		return &WorkflowResult{Success: false, Error: err.Error()}, nil
	}
	bookLLMCost(ctx, input.WorldID, prompts.Cost)

	if err := incrementCounter(ctx, input.WorldID, counterImageCalls, 2); err != nil {
		return nil, err
	}

	// Header and icon render concurrently; both must land before the
	// world record is touched.
	imgCtx := imageOptions(ctx)
	headerFut := workflow.ExecuteActivity(imgCtx, activities.NameGenerateAndUploadImage,
		activities.GenerateImageInput{
			TaskID:    ref.TaskID,
			WorldID:   input.WorldID,
			Prompt:    prompts.Response.HeaderPrompt,
			MediaType: int(gateway.MediaWorldHeader),
			Width:     headerWidth,
			Height:    headerHeight,
			Filename:  "header.png",
		})
	iconFut := workflow.ExecuteActivity(imgCtx, activities.NameGenerateAndUploadImage,
		activities.GenerateImageInput{
			TaskID:    ref.TaskID,
			WorldID:   input.WorldID,
			Prompt:    prompts.Response.IconPrompt,
			MediaType: int(gateway.MediaWorldIcon),
			Width:     squareSize,
			Height:    squareSize,
			Filename:  "icon.png",
		})

	var header, icon activities.GenerateImageOutput
	if err := headerFut.Get(ctx, &header); err != nil {
		failStage(ctx, input.WorldID, store.StageWorldImage)
		return &WorkflowResult{Success: false, Error: err.Error()}, nil
	}
	if err := iconFut.Get(ctx, &icon); err != nil {
		failStage(ctx, input.WorldID, store.StageWorldImage)
		return &WorkflowResult{Success: false, Error: err.Error()}, nil
	}

	err = workflow.ExecuteActivity(serviceOptions(ctx), activities.NameUpdateWorldImages,
		activities.UpdateWorldImagesInput{
			WorldID:       input.WorldID,
			HeaderMediaID: header.MediaID,
			IconMediaID:   icon.MediaID,
		}).Get(ctx, nil)
	if err != nil {
		failStage(ctx, input.WorldID, store.StageWorldImage)
		return &WorkflowResult{Success: false, Error: err.Error()}, nil
	}

	if err := updateStage(ctx, input.WorldID, store.StageWorldImage, store.StatusCompleted); err != nil {
		return nil, err
	}

	logger.Info("world images completed", "world_id", input.WorldID,
		"header_id", header.MediaID, "icon_id", icon.MediaID)
	return &WorkflowResult{
		Success: true,
		Data: map[string]any{
			"header_prompt":   prompts.Response.HeaderPrompt,
			"icon_prompt":     prompts.Response.IconPrompt,
			"header_id":       header.MediaID,
			"icon_id":         icon.MediaID,
			"style_reference": prompts.Response.StyleReference,
			"mood":            prompts.Response.Mood,
		},
	}, nil
}
