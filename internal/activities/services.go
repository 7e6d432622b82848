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

	"github.com/tombee/worldforge/internal/gateway"
	"github.com/tombee/worldforge/internal/schemas"
)

// ServiceActivities covers backend gRPC writes. Registered on the
// services queue.
type ServiceActivities struct {
	Gateway *gateway.Gateway
	Logger  *slog.Logger
}

// UpdateWorldParamsInput pushes the generated world document downstream.
type UpdateWorldParamsInput struct {
	WorldID     string         `json:"world_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// UpdateWorldParams sends the generated parameters to the world service.
func (a *ServiceActivities) UpdateWorldParams(ctx context.Context, in UpdateWorldParamsInput) error {
	_, err := a.Gateway.UpdateWorldParams(ctx, &gateway.UpdateWorldParamsRequest{
		WorldID:     in.WorldID,
		Name:        in.Name,
		Description: in.Description,
		Parameters:  in.Parameters,
	})
	return err
}

// UpdateWorldImagesInput attaches the two world media ids.
type UpdateWorldImagesInput struct {
	WorldID       string `json:"world_id"`
	HeaderMediaID string `json:"header_media_id"`
	IconMediaID   string `json:"icon_media_id"`
}

// UpdateWorldImages attaches header and icon media to the world.
func (a *ServiceActivities) UpdateWorldImages(ctx context.Context, in UpdateWorldImagesInput) error {
	_, err := a.Gateway.UpdateWorldImage(ctx, in.WorldID, in.HeaderMediaID, in.IconMediaID)
	return err
}

// CreateCharacterInput registers one generated character.
type CreateCharacterInput struct {
	WorldID string                         `json:"world_id"`
	Detail  schemas.CharacterDetailResponse `json:"detail"`
}

// CreateCharacter registers the character with the full profile as opaque
// metadata and returns the platform-assigned id.
func (a *ServiceActivities) CreateCharacter(ctx context.Context, in CreateCharacterInput) (string, error) {
	d := in.Detail
	ch, err := a.Gateway.CreateCharacter(ctx, &gateway.CreateCharacterRequest{
		WorldID:     in.WorldID,
		Username:    d.Username,
		DisplayName: d.DisplayName,
		Bio:         d.Bio,
		Metadata: gateway.Metadata{
			"background_story":   d.BackgroundStory,
			"personality":        d.Personality,
			"appearance":         d.Appearance,
			"interests":          d.Interests,
			"speaking_style":     d.SpeakingStyle,
			"common_topics":      d.CommonTopics,
			"avatar_description": d.AvatarDescription,
			"avatar_style":       d.AvatarStyle,
			"relationships":      d.Relationships,
			"secret":             d.Secret,
			"daily_routine":      d.DailyRoutine,
		},
	})
	if err != nil {
		return "", err
	}

	a.Logger.Info("character created", "world_id", in.WorldID,
		"character_id", ch.ID, "username", d.Username)
	return ch.ID, nil
}

// UpdateCharacterAvatarInput attaches an uploaded avatar.
type UpdateCharacterAvatarInput struct {
	CharacterID   string `json:"character_id"`
	AvatarMediaID string `json:"avatar_media_id"`
}

// UpdateCharacterAvatar attaches the avatar media to the character.
func (a *ServiceActivities) UpdateCharacterAvatar(ctx context.Context, in UpdateCharacterAvatarInput) error {
	_, err := a.Gateway.UpdateCharacter(ctx, &gateway.UpdateCharacterRequest{
		CharacterID:   in.CharacterID,
		AvatarMediaID: in.AvatarMediaID,
	})
	return err
}

// CreateAIPostInput publishes one generated post.
type CreateAIPostInput struct {
	WorldID     string   `json:"world_id"`
	CharacterID string   `json:"character_id"`
	Content     string   `json:"content"`
	MediaID     string   `json:"media_id,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
	Mood        string   `json:"mood,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// CreateAIPost publishes the post and returns its id.
func (a *ServiceActivities) CreateAIPost(ctx context.Context, in CreateAIPostInput) (string, error) {
	req := &gateway.CreateAIPostRequest{
		WorldID:     in.WorldID,
		CharacterID: in.CharacterID,
		Content:     in.Content,
		Hashtags:    in.Hashtags,
		Mood:        in.Mood,
		Location:    in.Location,
	}
	if in.MediaID != "" {
		req.MediaIDs = []string{in.MediaID}
	}

	post, err := a.Gateway.CreateAIPost(ctx, req)
	if err != nil {
		return "", err
	}

	a.Logger.Info("post created", "world_id", in.WorldID,
		"character_id", in.CharacterID, "post_id", post.ID)
	return post.ID, nil
}
