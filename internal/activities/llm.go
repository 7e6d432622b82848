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

package activities

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tombee/worldforge/internal/llm"
	"github.com/tombee/worldforge/internal/prompts"
	"github.com/tombee/worldforge/internal/schemas"
	"github.com/tombee/worldforge/internal/store"
)

// Generation parameters per completion class. Batch planning runs hot so
// the casts stay varied; prompt optimization runs cool so the image
// prompts stay literal.
const (
	worldDescriptionTemp      = 0.8
	worldDescriptionMaxTokens = 4096

	imagePromptTemp      = 0.7
	imagePromptMaxTokens = 2048

	characterBatchTemp      = 0.9
	characterBatchMaxTokens = 8192

	characterDetailTemp      = 0.8
	characterDetailMaxTokens = 4096

	postBatchTemp      = 0.9
	postBatchMaxTokens = 6144

	postDetailTemp      = 0.8
	postDetailMaxTokens = 4096
)

// LLMActivities covers every completion the workflows need. Registered on
// the llm queue.
type LLMActivities struct {
	LLM    *llm.Client
	Store  *store.Store
	Logger *slog.Logger
}

// LLMResult wraps a typed response with its accounting so workflows can
// feed the ledger without a second call.
type LLMResult[T any] struct {
	Response T       `json:"response"`
	Cost     float64 `json:"cost"`
}

// WorldDescriptionInput drives the root description completion.
type WorldDescriptionInput struct {
	TaskID     string `json:"task_id"`
	WorldID    string `json:"world_id"`
	UserPrompt string `json:"user_prompt"`
}

// GenerateWorldDescription produces the canonical world document content.
func (a *LLMActivities) GenerateWorldDescription(ctx context.Context, in WorldDescriptionInput) (*LLMResult[schemas.WorldDescriptionResponse], error) {
	shape, err := schemas.New(schemas.WorldDescription)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(prompts.WorldDescription, map[string]any{
		"UserPrompt":           in.UserPrompt,
		"StructureDescription": schemas.StructureDescription(shape),
	})
	if err != nil {
		return nil, err
	}

	var out schemas.WorldDescriptionResponse
	res, err := a.LLM.GenerateStructuredContent(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: worldDescriptionTemp,
		MaxTokens:   worldDescriptionMaxTokens,
		TaskID:      in.TaskID,
		WorldID:     in.WorldID,
	}, shape, &out)
	if err != nil {
		return nil, err
	}
	return &LLMResult[schemas.WorldDescriptionResponse]{Response: out, Cost: res.Cost}, nil
}

// WorldImagePromptsInput drives the header and icon prompt planning.
type WorldImagePromptsInput struct {
	TaskID  string `json:"task_id"`
	WorldID string `json:"world_id"`
}

// GenerateWorldImagePrompts plans the two world images from the persisted
// world parameters.
func (a *LLMActivities) GenerateWorldImagePrompts(ctx context.Context, in WorldImagePromptsInput) (*LLMResult[schemas.ImagePromptResponse], error) {
	shape, err := schemas.New(schemas.ImagePrompt)
	if err != nil {
		return nil, err
	}

	params, err := a.Store.GetWorldParameters(ctx, in.WorldID)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(prompts.WorldImage, map[string]any{
		"WorldName":            params.Name,
		"WorldDescription":     schemas.FormatValue(&params.WorldDescriptionResponse),
		"StructureDescription": schemas.StructureDescription(shape),
	})
	if err != nil {
		return nil, err
	}

	var out schemas.ImagePromptResponse
	res, err := a.LLM.GenerateStructuredContent(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: imagePromptTemp,
		MaxTokens:   imagePromptMaxTokens,
		TaskID:      in.TaskID,
		WorldID:     in.WorldID,
	}, shape, &out)
	if err != nil {
		return nil, err
	}
	return &LLMResult[schemas.ImagePromptResponse]{Response: out, Cost: res.Cost}, nil
}

// CharacterBatchInput drives one character sub-batch completion.
type CharacterBatchInput struct {
	TaskID              string `json:"task_id"`
	WorldID             string `json:"world_id"`
	CharactersCount     int    `json:"characters_count"`
	PostsCount          int    `json:"posts_count"`
	GeneratedCount      int    `json:"generated_count"`
	PreviousDescription string `json:"previous_description,omitempty"`
}

// GenerateCharacterBatch produces the sketches for one sub-batch. The
// batch context tells the model whether it extends an existing cast.
func (a *LLMActivities) GenerateCharacterBatch(ctx context.Context, in CharacterBatchInput) (*LLMResult[schemas.CharacterBatchResponse], error) {
	shape, err := schemas.New(schemas.CharacterBatch)
	if err != nil {
		return nil, err
	}

	params, err := a.Store.GetWorldParameters(ctx, in.WorldID)
	if err != nil {
		return nil, err
	}

	batchContext, err := a.characterBatchContext(in)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(prompts.CharacterBatch, map[string]any{
		"CharactersCount":      in.CharactersCount,
		"PostsCount":           in.PostsCount,
		"WorldDescription":     schemas.FormatValue(&params.WorldDescriptionResponse),
		"BatchContext":         batchContext,
		"StructureDescription": schemas.StructureDescription(shape),
	})
	if err != nil {
		return nil, err
	}

	var out schemas.CharacterBatchResponse
	res, err := a.LLM.GenerateStructuredContent(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: characterBatchTemp,
		MaxTokens:   characterBatchMaxTokens,
		TaskID:      in.TaskID,
		WorldID:     in.WorldID,
	}, shape, &out)
	if err != nil {
		return nil, err
	}
	return &LLMResult[schemas.CharacterBatchResponse]{Response: out, Cost: res.Cost}, nil
}

func (a *LLMActivities) characterBatchContext(in CharacterBatchInput) (string, error) {
	if in.GeneratedCount == 0 {
		return prompts.Load(prompts.FirstBatchCharacters)
	}
	return prompts.Render(prompts.PreviousCharacters, map[string]any{
		"GeneratedCount":      in.GeneratedCount,
		"PreviousDescription": in.PreviousDescription,
	})
}

// CharacterDetailInput drives one full-profile completion.
type CharacterDetailInput struct {
	TaskID  string                   `json:"task_id"`
	WorldID string                   `json:"world_id"`
	Concept schemas.CharacterConcept `json:"concept"`
}

// GenerateCharacterDetail expands a concept into a complete profile.
func (a *LLMActivities) GenerateCharacterDetail(ctx context.Context, in CharacterDetailInput) (*LLMResult[schemas.CharacterDetailResponse], error) {
	shape, err := schemas.New(schemas.CharacterDetail)
	if err != nil {
		return nil, err
	}

	params, err := a.Store.GetWorldParameters(ctx, in.WorldID)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(prompts.CharacterDetail, map[string]any{
		"WorldName":            params.Name,
		"WorldDescription":     schemas.FormatValue(&params.WorldDescriptionResponse),
		"Concept":              in.Concept.Concept,
		"Role":                 in.Concept.RoleInWorld,
		"PersonalityTraits":    strings.Join(in.Concept.PersonalityTraits, ", "),
		"Interests":            strings.Join(in.Concept.Interests, ", "),
		"StructureDescription": schemas.StructureDescription(shape),
	})
	if err != nil {
		return nil, err
	}

	var out schemas.CharacterDetailResponse
	res, err := a.LLM.GenerateStructuredContent(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: characterDetailTemp,
		MaxTokens:   characterDetailMaxTokens,
		TaskID:      in.TaskID,
		WorldID:     in.WorldID,
	}, shape, &out)
	if err != nil {
		return nil, err
	}
	return &LLMResult[schemas.CharacterDetailResponse]{Response: out, Cost: res.Cost}, nil
}

// AvatarPromptInput drives the avatar prompt optimization.
type AvatarPromptInput struct {
	TaskID            string `json:"task_id"`
	WorldID           string `json:"world_id"`
	DisplayName       string `json:"display_name"`
	AvatarDescription string `json:"avatar_description"`
	AvatarStyle       string `json:"avatar_style"`
}

// GenerateAvatarPrompt rewrites the avatar description into one
// text-to-image prompt.
func (a *LLMActivities) GenerateAvatarPrompt(ctx context.Context, in AvatarPromptInput) (*LLMResult[schemas.CharacterAvatarPromptResponse], error) {
	shape, err := schemas.New(schemas.CharacterAvatarPrompt)
	if err != nil {
		return nil, err
	}

	params, err := a.Store.GetWorldParameters(ctx, in.WorldID)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(prompts.CharacterAvatar, map[string]any{
		"DisplayName":          in.DisplayName,
		"AvatarDescription":    in.AvatarDescription,
		"AvatarStyle":          in.AvatarStyle,
		"VisualStyle":          params.VisualStyle,
		"StructureDescription": schemas.StructureDescription(shape),
	})
	if err != nil {
		return nil, err
	}

	var out schemas.CharacterAvatarPromptResponse
	res, err := a.LLM.GenerateStructuredContent(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: imagePromptTemp,
		MaxTokens:   imagePromptMaxTokens,
		TaskID:      in.TaskID,
		WorldID:     in.WorldID,
	}, shape, &out)
	if err != nil {
		return nil, err
	}
	return &LLMResult[schemas.CharacterAvatarPromptResponse]{Response: out, Cost: res.Cost}, nil
}

// PostBatchInput drives one post sub-batch completion for a character.
type PostBatchInput struct {
	TaskID          string                          `json:"task_id"`
	WorldID         string                          `json:"world_id"`
	DisplayName     string                          `json:"display_name"`
	Username        string                          `json:"username"`
	CharacterDetail schemas.CharacterDetailResponse `json:"character_detail"`
	PostsCount      int                             `json:"posts_count"`
	GeneratedCount  int                             `json:"generated_count"`
	PreviousThemes  []string                        `json:"previous_themes,omitempty"`
}

// GeneratePostBatch plans one sub-batch of posts.
func (a *LLMActivities) GeneratePostBatch(ctx context.Context, in PostBatchInput) (*LLMResult[schemas.PostBatchResponse], error) {
	shape, err := schemas.New(schemas.PostBatch)
	if err != nil {
		return nil, err
	}

	params, err := a.Store.GetWorldParameters(ctx, in.WorldID)
	if err != nil {
		return nil, err
	}

	batchContext, err := a.postBatchContext(in)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(prompts.PostBatch, map[string]any{
		"PostsCount":           in.PostsCount,
		"DisplayName":          in.DisplayName,
		"Username":             in.Username,
		"WorldDescription":     schemas.FormatValue(&params.WorldDescriptionResponse),
		"CharacterDescription": schemas.FormatValue(&in.CharacterDetail),
		"BatchContext":         batchContext,
		"StructureDescription": schemas.StructureDescription(shape),
	})
	if err != nil {
		return nil, err
	}

	var out schemas.PostBatchResponse
	res, err := a.LLM.GenerateStructuredContent(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: postBatchTemp,
		MaxTokens:   postBatchMaxTokens,
		TaskID:      in.TaskID,
		WorldID:     in.WorldID,
	}, shape, &out)
	if err != nil {
		return nil, err
	}
	return &LLMResult[schemas.PostBatchResponse]{Response: out, Cost: res.Cost}, nil
}

func (a *LLMActivities) postBatchContext(in PostBatchInput) (string, error) {
	if in.GeneratedCount == 0 {
		return prompts.Load(prompts.FirstBatchPosts)
	}
	return prompts.Render(prompts.PreviousPosts, map[string]any{
		"GeneratedCount": in.GeneratedCount,
		"PreviousThemes": strings.Join(in.PreviousThemes, ", "),
	})
}

// PostDetailInput drives one full-post completion.
type PostDetailInput struct {
	TaskID          string                          `json:"task_id"`
	WorldID         string                          `json:"world_id"`
	DisplayName     string                          `json:"display_name"`
	Username        string                          `json:"username"`
	CharacterDetail schemas.CharacterDetailResponse `json:"character_detail"`
	Concept         schemas.PostConcept             `json:"concept"`
}

// GeneratePostDetail writes the full post for one concept.
func (a *LLMActivities) GeneratePostDetail(ctx context.Context, in PostDetailInput) (*LLMResult[schemas.PostDetailResponse], error) {
	shape, err := schemas.New(schemas.PostDetail)
	if err != nil {
		return nil, err
	}

	params, err := a.Store.GetWorldParameters(ctx, in.WorldID)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(prompts.PostDetail, map[string]any{
		"DisplayName":          in.DisplayName,
		"Username":             in.Username,
		"WorldDescription":     schemas.FormatValue(&params.WorldDescriptionResponse),
		"CharacterDescription": schemas.FormatValue(&in.CharacterDetail),
		"Topic":                in.Concept.Topic,
		"ContentBrief":         in.Concept.ContentBrief,
		"EmotionalTone":        in.Concept.EmotionalTone,
		"PostType":             in.Concept.PostType,
		"StructureDescription": schemas.StructureDescription(shape),
	})
	if err != nil {
		return nil, err
	}

	var out schemas.PostDetailResponse
	res, err := a.LLM.GenerateStructuredContent(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: postDetailTemp,
		MaxTokens:   postDetailMaxTokens,
		TaskID:      in.TaskID,
		WorldID:     in.WorldID,
	}, shape, &out)
	if err != nil {
		return nil, err
	}
	return &LLMResult[schemas.PostDetailResponse]{Response: out, Cost: res.Cost}, nil
}

// PostImagePromptInput drives the post image prompt optimization.
type PostImagePromptInput struct {
	TaskID        string `json:"task_id"`
	WorldID       string `json:"world_id"`
	CharacterName string `json:"character_name"`
	PostContent   string `json:"post_content"`
	ImagePrompt   string `json:"image_prompt"`
	ImageStyle    string `json:"image_style"`
}

// GeneratePostImagePrompt rewrites a post's image idea into one
// text-to-image prompt.
func (a *LLMActivities) GeneratePostImagePrompt(ctx context.Context, in PostImagePromptInput) (*LLMResult[schemas.PostImagePromptResponse], error) {
	shape, err := schemas.New(schemas.PostImagePrompt)
	if err != nil {
		return nil, err
	}

	params, err := a.Store.GetWorldParameters(ctx, in.WorldID)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(prompts.PostImage, map[string]any{
		"WorldName":            params.Name,
		"VisualStyle":          params.VisualStyle,
		"CharacterName":        in.CharacterName,
		"PostContent":          in.PostContent,
		"ImagePrompt":          in.ImagePrompt,
		"ImageStyle":           in.ImageStyle,
		"StructureDescription": schemas.StructureDescription(shape),
	})
	if err != nil {
		return nil, err
	}

	var out schemas.PostImagePromptResponse
	res, err := a.LLM.GenerateStructuredContent(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: imagePromptTemp,
		MaxTokens:   imagePromptMaxTokens,
		TaskID:      in.TaskID,
		WorldID:     in.WorldID,
	}, shape, &out)
	if err != nil {
		return nil, err
	}
	return &LLMResult[schemas.PostImagePromptResponse]{Response: out, Cost: res.Cost}, nil
}
