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

// GeneratePostInput expands one post concept from a batch.
type GeneratePostInput struct {
	WorldID     string                          `json:"world_id"`
	CharacterID string                          `json:"character_id"`
	Detail      schemas.CharacterDetailResponse `json:"character_detail"`
	Concept     schemas.PostConcept             `json:"post_data"`
	PostIndex   int                             `json:"post_index,omitempty"`
}

// GeneratePost writes the full post text and hands it to the image step.
// The post record is created there, bundled with its image, so the
// service never sees a half-finished post.
func GeneratePost(ctx workflow.Context, ref TaskRef) (*WorkflowResult, error) {
	return runTask(ctx, ref, generatePost)
}

func generatePost(ctx workflow.Context, ref TaskRef, input GeneratePostInput) (*WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("starting post generation", "character_id", input.CharacterID,
		"topic", input.Concept.Topic)

	if err := incrementCounter(ctx, input.WorldID, counterLLMCalls, 1); err != nil {
		return nil, err
	}

	var res activities.LLMResult[schemas.PostDetailResponse]
	err := workflow.ExecuteActivity(postDetailOptions(ctx), activities.NameGeneratePostDetail,
		activities.PostDetailInput{
			TaskID:          ref.TaskID,
			WorldID:         input.WorldID,
			DisplayName:     input.Detail.DisplayName,
			Username:        input.Detail.Username,
			CharacterDetail: input.Detail,
			Concept:         input.Concept,
		}).Get(ctx, &res)
	if err != nil {
		return nil, err
	}
	bookLLMCost(ctx, input.WorldID, res.Cost)

	imageRef, err := saveTaskData(ctx, TaskGeneratePostImage, input.WorldID,
		GeneratePostImageInput{
			WorldID:     input.WorldID,
			CharacterID: input.CharacterID,
			Post:        res.Response,
			Detail:      input.Detail,
			PostIndex:   input.PostIndex,
		})
	if err != nil {
		return nil, err
	}
	childID := childWorkflowID("generate-post-image", imageRef.TaskID)
	if err := startDetached(ctx, WorkflowGeneratePostImage, childID, imageRef); err != nil {
		return nil, err
	}

	return &WorkflowResult{
		Success: true,
		Data: map[string]any{
			"character_id":      input.CharacterID,
			"username":          input.Detail.Username,
			"content":           res.Response.Content,
			"mood":              res.Response.Mood,
			"hashtags":          res.Response.Hashtags,
			"image_workflow_id": childID,
		},
	}, nil
}
