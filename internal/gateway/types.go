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

package gateway

// Backend service names as registered in Consul.
const (
	ServiceWorld     = "world-service"
	ServiceCharacter = "character-service"
	ServicePost      = "post-service"
	ServiceMedia     = "media-service"
)

// MediaType tags an upload with its destination slot.
type MediaType int

// Media type enum shared with the media service.
const (
	MediaUnknown         MediaType = 0
	MediaWorldHeader     MediaType = 1
	MediaWorldIcon       MediaType = 2
	MediaCharacterAvatar MediaType = 3
	MediaPostImage       MediaType = 4
)

// World mirrors the world service's world message.
type World struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id,omitempty"`
	HeaderURL   string `json:"header_url,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
}

// GetWorldRequest fetches a world by id.
type GetWorldRequest struct {
	WorldID string `json:"world_id"`
}

// UpdateWorldImageRequest attaches uploaded header and icon media.
type UpdateWorldImageRequest struct {
	WorldID string `json:"world_id"`
	Header  string `json:"header"`
	Icon    string `json:"icon"`
}

// UpdateWorldParamsRequest pushes generated world parameters to the
// platform so the world page can show them before generation finishes.
type UpdateWorldParamsRequest struct {
	WorldID     string         `json:"world_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Character mirrors the character service's character message.
type Character struct {
	ID          string   `json:"id"`
	WorldID     string   `json:"world_id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// Metadata carries generation detail the platform stores opaquely.
type Metadata map[string]any

// CreateCharacterRequest registers a generated character.
type CreateCharacterRequest struct {
	WorldID     string   `json:"world_id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// GetCharacterRequest fetches a character by id.
type GetCharacterRequest struct {
	CharacterID string `json:"character_id"`
}

// UpdateCharacterRequest patches character fields, typically the avatar.
type UpdateCharacterRequest struct {
	CharacterID   string   `json:"character_id"`
	DisplayName   string   `json:"display_name,omitempty"`
	AvatarMediaID string   `json:"avatar_media_id,omitempty"`
	Bio           string   `json:"bio,omitempty"`
	Metadata      Metadata `json:"metadata,omitempty"`
}

// Post mirrors the post service's post message.
type Post struct {
	ID          string   `json:"id"`
	WorldID     string   `json:"world_id"`
	CharacterID string   `json:"character_id"`
	Content     string   `json:"content"`
	MediaIDs    []string `json:"media_ids,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
}

// CreateAIPostRequest publishes one generated post.
type CreateAIPostRequest struct {
	WorldID     string   `json:"world_id"`
	CharacterID string   `json:"character_id"`
	Content     string   `json:"content"`
	MediaIDs    []string `json:"media_ids,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
	Mood        string   `json:"mood,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// PresignedUploadRequest asks the media service for an upload slot. Size
// is zero when the byte count is unknown at presign time.
type PresignedUploadRequest struct {
	WorldID     string    `json:"world_id"`
	CharacterID string    `json:"character_id,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	MediaType   MediaType `json:"media_type"`
}

// PresignedUploadResponse carries the slot: an ephemeral PUT URL and the
// media id to confirm afterwards.
type PresignedUploadResponse struct {
	MediaID     string `json:"media_id"`
	UploadURL   string `json:"upload_url"`
	ContentType string `json:"content_type"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// ConfirmUploadRequest finalizes an upload after the PUT succeeded.
type ConfirmUploadRequest struct {
	MediaID string `json:"media_id"`
}

// ConfirmUploadResponse acknowledges the finalized media.
type ConfirmUploadResponse struct {
	MediaID string `json:"media_id"`
	URL     string `json:"url,omitempty"`
}
