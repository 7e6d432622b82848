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

// GeneratePostImageInput finalizes one post: image plus record creation.
type GeneratePostImageInput struct {
	WorldID     string                          `json:"world_id"`
	CharacterID string                          `json:"character_id"`
	Post        schemas.PostDetailResponse      `json:"post_detail"`
	Detail      schemas.CharacterDetailResponse `json:"character_detail"`
	PostIndex   int                             `json:"post_index,omitempty"`
}

// GeneratePostImage renders the post's image and publishes the post record
// with the media attached. It is the leaf of the generation tree, so it
// also closes out the world: after bumping posts_created it asks the
// ledger whether the whole generation is observably done.
func GeneratePostImage(ctx workflow.Context, ref TaskRef) (*WorkflowResult, error) {
	return runTask(ctx, ref, generatePostImage)
}

func generatePostImage(ctx workflow.Context, ref TaskRef, input GeneratePostImageInput) (*WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	if input.Post.ImagePrompt == "" {
		logger.Warn("no image prompt for post", "character_id", input.CharacterID)
		return &WorkflowResult{
			Success: true,
			Data:    map[string]any{"message": "No image prompt provided"},
		}, nil
	}
	logger.Info("starting post image generation", "world_id", input.WorldID,
		"character_id", input.CharacterID)

	if err := incrementCounter(ctx, input.WorldID, counterLLMCalls, 1); err != nil {
		return nil, err
	}

	var res activities.LLMResult[schemas.PostImagePromptResponse]
	err := workflow.ExecuteActivity(imagePromptOptions(ctx), activities.NameGeneratePostImagePrompt,
		activities.PostImagePromptInput{
			TaskID:        ref.TaskID,
			WorldID:       input.WorldID,
			CharacterName: input.Detail.DisplayName,
			PostContent:   input.Post.Content,
			ImagePrompt:   input.Post.ImagePrompt,
			ImageStyle:    input.Post.ImageStyle,
		}).Get(ctx, &res)
	if err != nil {
		return nil, err
	}
	bookLLMCost(ctx, input.WorldID, res.Cost)

	prompt := res.Response.Prompt
	if prompt == "" {
		prompt = input.Post.ImagePrompt
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
			MediaType:   int(gateway.MediaPostImage),
			Width:       squareSize,
			Height:      squareSize,
			Filename:    "post.png",
		}).Get(ctx, &img)
	if err != nil {
		return nil, err
	}

	var postID string
	err = workflow.ExecuteActivity(serviceOptions(ctx), activities.NameCreateAIPost,
		activities.CreateAIPostInput{
			WorldID:     input.WorldID,
			CharacterID: input.CharacterID,
			Content:     input.Post.Content,
			MediaID:     img.MediaID,
			Hashtags:    input.Post.Hashtags,
			Mood:        input.Post.Mood,
			Location:    input.Post.Location,
		}).Get(ctx, &postID)
	if err != nil {
		return nil, err
	}

	if err := incrementCounter(ctx, input.WorldID, counterPostsCreated, 1); err != nil {
		return nil, err
	}

	var worldDone bool
	err = workflow.ExecuteActivity(progressOptions(ctx), activities.NameCheckWorldCompletion,
		activities.WorldLookupInput{WorldID: input.WorldID}).Get(ctx, &worldDone)
	if err != nil {
		logger.Warn("world completion check failed", "world_id", input.WorldID, "error", err)
	}

	logger.Info("post published", "world_id", input.WorldID, "post_id", postID,
		"media_id", img.MediaID, "world_done", worldDone)
	return &WorkflowResult{
		Success: true,
		Data: map[string]any{
			"character_id":     input.CharacterID,
			"post_id":          postID,
			"media_id":         img.MediaID,
			"optimized_prompt": prompt,
			"world_completed":  worldDone,
		},
	}, nil
}
