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
	"strings"

	"go.temporal.io/sdk/workflow"

	"github.com/tombee/worldforge/internal/activities"
	"github.com/tombee/worldforge/internal/schemas"
	"github.com/tombee/worldforge/internal/store"
)

// GenerateCharacterBatchInput carries one recursion step of the character
// scheduler. UsersCount is what this step still owes; TotalUsersCount is
// invariant across the recursion and sizes the depth allowance.
type GenerateCharacterBatchInput struct {
	WorldID             string `json:"world_id"`
	UsersCount          int    `json:"users_count"`
	PostsCount          int    `json:"posts_count"`
	RemainingPostsCount int    `json:"remaining_posts_count,omitempty"`
	TotalUsersCount     int    `json:"total_users_count,omitempty"`
	GeneratedCount      int    `json:"generated_count,omitempty"`
	CountRun            int    `json:"count_run,omitempty"`
	RecursionDepth      int    `json:"recursion_depth,omitempty"`

	// GeneratedCharactersDescription accumulates a textual summary of all
	// prior sub-batches so each completion can avoid repeating the cast.
	GeneratedCharactersDescription string `json:"generated_characters_description,omitempty"`
}

// GenerateCharacterBatch slices the requested cast into sub-batches of at
// most MaxCharactersPerBatch, spawning one detached GenerateCharacter per
// sketch and a continuation batch for the remainder. Depth-capped and
// empty runs terminate successfully with a diagnostic so the world is not
// poisoned by a stubborn model.
func GenerateCharacterBatch(ctx workflow.Context, ref TaskRef) (*WorkflowResult, error) {
	return runTask(ctx, ref, generateCharacterBatch)
}

func generateCharacterBatch(ctx workflow.Context, ref TaskRef, input GenerateCharacterBatchInput) (*WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	if input.TotalUsersCount == 0 {
		input.TotalUsersCount = input.UsersCount
	}
	if input.RemainingPostsCount == 0 && input.GeneratedCount == 0 {
		input.RemainingPostsCount = input.PostsCount
	}

	maxDepth := MaxAllowedDepth(input.TotalUsersCount, MaxCharacterRecursionDepth)
	logger.Debug("character batch step", "world_id", input.WorldID,
		"users_count", input.UsersCount, "generated", input.GeneratedCount,
		"depth", input.RecursionDepth, "max_depth", maxDepth)

	if input.TotalUsersCount == 0 {
		return batchDiagnostic(input, maxDepth, "No characters requested"), nil
	}
	if input.RecursionDepth >= maxDepth {
		logger.Warn("character recursion depth cap reached", "world_id", input.WorldID,
			"depth", input.RecursionDepth)
		return batchDiagnostic(input, maxDepth, "Maximum recursion depth reached"), nil
	}

	batchSize := input.UsersCount
	if batchSize > MaxCharactersPerBatch {
		batchSize = MaxCharactersPerBatch
	}
	if batchSize <= 0 {
		if err := updateStage(ctx, input.WorldID, store.StageCharacters, store.StatusCompleted); err != nil {
			return nil, err
		}
		return &WorkflowResult{
			Success: true,
			Data: map[string]any{
				"characters_count": 0,
				"total_generated":  input.GeneratedCount,
				"message":          "All characters already generated",
			},
		}, nil
	}

	postsForBatch := PostsShareForBatch(input.RemainingPostsCount, batchSize, input.UsersCount)

	if err := incrementCounter(ctx, input.WorldID, counterLLMCalls, 1); err != nil {
		return nil, err
	}

	var res activities.LLMResult[schemas.CharacterBatchResponse]
	err := workflow.ExecuteActivity(characterBatchOptions(ctx), activities.NameGenerateCharacterBatch,
		activities.CharacterBatchInput{
			TaskID:              ref.TaskID,
			WorldID:             input.WorldID,
			CharactersCount:     batchSize,
			PostsCount:          postsForBatch,
			GeneratedCount:      input.GeneratedCount,
			PreviousDescription: input.GeneratedCharactersDescription,
		}).Get(ctx, &res)
	if err != nil {
		failStage(ctx, input.WorldID, store.StageCharacters)
		return nil, err
	}
	bookLLMCost(ctx, input.WorldID, res.Cost)

	chars := TrimCharacters(res.Response.Characters, batchSize)
	logger.Info("character batch planned", "world_id", input.WorldID,
		"requested", batchSize, "produced", len(chars))
	if len(chars) == 0 {
		return batchDiagnostic(input, maxDepth, "No characters generated"), nil
	}

	weights := make([]int, len(chars))
	for i := range chars {
		weights[i] = chars[i].PostsCount
	}
	counts := NormalizePostCounts(weights, postsForBatch)
	postsAllocated := 0
	for i := range chars {
		chars[i].PostsCount = counts[i]
		postsAllocated += counts[i]
	}

	for _, ch := range chars {
		charRef, err := saveTaskData(ctx, TaskGenerateCharacter, input.WorldID,
			GenerateCharacterInput{
				WorldID:           input.WorldID,
				Character:         ch,
				PostsPerCharacter: ch.PostsCount,
			})
		if err != nil {
			failStage(ctx, input.WorldID, store.StageCharacters)
			return nil, err
		}
		childID := childWorkflowID("generate-character", charRef.TaskID)
		if err := startDetached(ctx, WorkflowGenerateCharacter, childID, charRef); err != nil {
			failStage(ctx, input.WorldID, store.StageCharacters)
			return nil, err
		}
	}

	description := accumulateCharacterDescription(
		input.GeneratedCharactersDescription, &res.Response, chars)

	produced := len(chars)
	newGenerated := input.GeneratedCount + produced
	remainingUsers := input.UsersCount - produced

	if remainingUsers > 0 && input.RecursionDepth+1 < maxDepth {
		next := GenerateCharacterBatchInput{
			WorldID:                        input.WorldID,
			UsersCount:                     remainingUsers,
			PostsCount:                     input.PostsCount,
			RemainingPostsCount:            NextRemainingPosts(input.RemainingPostsCount, postsAllocated, remainingUsers),
			TotalUsersCount:                input.TotalUsersCount,
			GeneratedCount:                 newGenerated,
			CountRun:                       input.CountRun + 1,
			RecursionDepth:                 input.RecursionDepth + 1,
			GeneratedCharactersDescription: description,
		}
		nextRef, err := saveTaskData(ctx, TaskGenerateCharacterBatch, input.WorldID, next)
		if err != nil {
			failStage(ctx, input.WorldID, store.StageCharacters)
			return nil, err
		}
		childID := childWorkflowID("generate-character-batch", nextRef.TaskID)
		if err := startDetached(ctx, WorkflowGenerateCharacterBatch, childID, nextRef); err != nil {
			failStage(ctx, input.WorldID, store.StageCharacters)
			return nil, err
		}
		logger.Info("continuation character batch started", "world_id", input.WorldID,
			"remaining", remainingUsers, "depth", input.RecursionDepth+1)
	} else if remainingUsers <= 0 {
		if err := updateStage(ctx, input.WorldID, store.StageCharacters, store.StatusCompleted); err != nil {
			return nil, err
		}
	}

	return &WorkflowResult{
		Success: true,
		Data: map[string]any{
			"characters_count": produced,
			"total_generated":  newGenerated,
			"remaining_users":  remainingUsers,
			"posts_allocated":  postsAllocated,
			"recursion_depth":  input.RecursionDepth,
		},
	}, nil
}

// batchDiagnostic reports a terminal-but-successful batch run: the error
// field names the cause without failing the workflow.
func batchDiagnostic(input GenerateCharacterBatchInput, maxDepth int, reason string) *WorkflowResult {
	return &WorkflowResult{
		Success: true,
		Error:   reason,
		Data: map[string]any{
			"characters_count":  0,
			"total_generated":   input.GeneratedCount,
			"remaining_users":   input.UsersCount,
			"recursion_depth":   input.RecursionDepth,
			"max_allowed_depth": maxDepth,
		},
	}
}

// accumulateCharacterDescription folds this batch's summary into the
// running description. The model's own overview is preferred; per-concept
// lines are the fallback when it returned none.
func accumulateCharacterDescription(prev string, res *schemas.CharacterBatchResponse, chars []schemas.CharacterConcept) string {
	summary := res.GeneratedCharactersDescription
	if summary == "" {
		lines := make([]string, 0, len(chars))
		for _, ch := range chars {
			lines = append(lines, fmt.Sprintf("%s: %s", ch.ID, ch.ConceptShort))
		}
		summary = strings.Join(lines, "\n")
	}
	if prev == "" {
		return summary
	}
	return prev + "\n\n" + summary
}
