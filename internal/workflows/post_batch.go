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
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/tombee/worldforge/internal/activities"
	"github.com/tombee/worldforge/internal/schemas"
)

// GeneratePostBatchInput carries one recursion step of the post scheduler
// for a single character.
type GeneratePostBatchInput struct {
	WorldID     string                          `json:"world_id"`
	CharacterID string                          `json:"character_id"`
	PostsCount  int                             `json:"posts_count"`
	Detail      schemas.CharacterDetailResponse `json:"character_detail"`

	GeneratedCount  int      `json:"generated_posts_count,omitempty"`
	PreviousThemes  []string `json:"previous_themes,omitempty"`
	CountRun        int      `json:"count_run,omitempty"`
	RecursionDepth  int      `json:"recursion_depth,omitempty"`
	TotalPostsCount int      `json:"total_posts_count,omitempty"`
}

// GeneratePostBatch slices a character's posts into sub-batches of at most
// MaxPostsPerBatch, spawning one detached GeneratePost per concept. The
// concept list is padded or truncated to the exact batch size so the
// post-count invariant survives model over- and underproduction.
func GeneratePostBatch(ctx workflow.Context, ref TaskRef) (*WorkflowResult, error) {
	return runTask(ctx, ref, generatePostBatch)
}

func generatePostBatch(ctx workflow.Context, ref TaskRef, input GeneratePostBatchInput) (*WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	if input.TotalPostsCount == 0 {
		input.TotalPostsCount = input.PostsCount
	}

	maxDepth := MaxAllowedDepth(input.TotalPostsCount, MaxPostRecursionDepth)
	logger.Debug("post batch step", "character_id", input.CharacterID,
		"posts_count", input.PostsCount, "generated", input.GeneratedCount,
		"depth", input.RecursionDepth, "max_depth", maxDepth)

	if input.TotalPostsCount == 0 {
		return postBatchDiagnostic(input, maxDepth, "No posts for character"), nil
	}
	if input.RecursionDepth >= maxDepth {
		logger.Warn("post recursion depth cap reached", "character_id", input.CharacterID,
			"depth", input.RecursionDepth)
		return postBatchDiagnostic(input, maxDepth, "Maximum recursion depth reached"), nil
	}

	batchSize := input.PostsCount - input.GeneratedCount
	if batchSize > MaxPostsPerBatch {
		batchSize = MaxPostsPerBatch
	}
	if batchSize <= 0 {
		return &WorkflowResult{
			Success: true,
			Data: map[string]any{
				"posts_count":       0,
				"total_posts_count": input.GeneratedCount,
				"character_id":      input.CharacterID,
				"message":           "All posts already generated",
			},
		}, nil
	}

	if err := incrementCounter(ctx, input.WorldID, counterLLMCalls, 1); err != nil {
		return nil, err
	}

	var res activities.LLMResult[schemas.PostBatchResponse]
	err := workflow.ExecuteActivity(postBatchOptions(ctx), activities.NameGeneratePostBatch,
		activities.PostBatchInput{
			TaskID:          ref.TaskID,
			WorldID:         input.WorldID,
			DisplayName:     input.Detail.DisplayName,
			Username:        input.Detail.Username,
			CharacterDetail: input.Detail,
			PostsCount:      batchSize,
			GeneratedCount:  input.GeneratedCount,
			PreviousThemes:  input.PreviousThemes,
		}).Get(ctx, &res)
	if err != nil {
		return nil, err
	}
	bookLLMCost(ctx, input.WorldID, res.Cost)

	posts := AdjustPosts(res.Response.Posts, batchSize)
	logger.Info("post batch planned", "character_id", input.CharacterID,
		"requested", batchSize, "produced", len(res.Response.Posts), "final", len(posts))
	if len(posts) == 0 {
		return postBatchDiagnostic(input, maxDepth, "No posts generated"), nil
	}

	for i, post := range posts {
		postRef, err := saveTaskData(ctx, TaskGeneratePost, input.WorldID,
			GeneratePostInput{
				WorldID:     input.WorldID,
				CharacterID: input.CharacterID,
				Detail:      input.Detail,
				Concept:     post,
				PostIndex:   input.GeneratedCount + i,
			})
		if err != nil {
			return nil, err
		}
		childID := childWorkflowID("generate-post", postRef.TaskID)
		if err := startDetached(ctx, WorkflowGeneratePost, childID, postRef); err != nil {
			return nil, err
		}
	}

	themes := accumulatePostThemes(input.PreviousThemes, &res.Response, posts)

	newGenerated := input.GeneratedCount + len(posts)
	remaining := input.PostsCount - newGenerated

	if remaining > 0 {
		next := input
		next.GeneratedCount = newGenerated
		next.PreviousThemes = themes
		next.CountRun = input.CountRun + 1
		next.RecursionDepth = input.RecursionDepth + 1
		nextRef, err := saveTaskData(ctx, TaskGeneratePostBatch, input.WorldID, next)
		if err != nil {
			return nil, err
		}
		childID := childWorkflowID("generate-post-batch", nextRef.TaskID)
		if err := startDetached(ctx, WorkflowGeneratePostBatch, childID, nextRef); err != nil {
			return nil, err
		}
		logger.Info("continuation post batch started", "character_id", input.CharacterID,
			"remaining", remaining, "depth", input.RecursionDepth+1)
	}

	return &WorkflowResult{
		Success: true,
		Data: map[string]any{
			"posts_count":       len(posts),
			"total_posts_count": newGenerated,
			"remaining_posts":   remaining,
			"recursion_depth":   input.RecursionDepth,
			"character_id":      input.CharacterID,
		},
	}, nil
}

func postBatchDiagnostic(input GeneratePostBatchInput, maxDepth int, reason string) *WorkflowResult {
	return &WorkflowResult{
		Success: true,
		Error:   reason,
		Data: map[string]any{
			"posts_count":       0,
			"total_posts_count": input.GeneratedCount,
			"remaining_posts":   input.PostsCount - input.GeneratedCount,
			"recursion_depth":   input.RecursionDepth,
			"max_allowed_depth": maxDepth,
			"character_id":      input.CharacterID,
		},
	}
}

// accumulatePostThemes extends the running theme list with this batch's
// recurring themes, falling back to per-concept topic lines.
func accumulatePostThemes(prev []string, res *schemas.PostBatchResponse, posts []schemas.PostConcept) []string {
	themes := append([]string(nil), prev...)
	if len(res.RecurringThemes) > 0 {
		return append(themes, res.RecurringThemes...)
	}
	for _, p := range posts {
		themes = append(themes, fmt.Sprintf("%s (%s)", p.Topic, p.EmotionalTone))
	}
	return themes
}
