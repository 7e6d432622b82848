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
	"github.com/tombee/worldforge/internal/imagegen"
	"github.com/tombee/worldforge/internal/store"
)

// ImageActivities covers the render-and-upload pipeline. Registered on the
// images queue.
type ImageActivities struct {
	Images  *imagegen.Client
	Gateway *gateway.Gateway
	Store   *store.Store
	Logger  *slog.Logger
}

// GenerateImageInput describes one image to render and persist.
type GenerateImageInput struct {
	TaskID      string `json:"task_id"`
	WorldID     string `json:"world_id"`
	CharacterID string `json:"character_id,omitempty"`
	Prompt      string `json:"prompt"`
	MediaType   int    `json:"media_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Filename    string `json:"filename,omitempty"`
}

// GenerateImageOutput carries the persisted media id; the ephemeral URL is
// kept for logging only.
type GenerateImageOutput struct {
	MediaID  string  `json:"media_id"`
	ImageURL string  `json:"image_url"`
	Cost     float64 `json:"cost"`
}

// GenerateAndUploadImage renders the prompt, accounts the spend, and moves
// the result into platform media storage through the presign pipeline.
func (a *ImageActivities) GenerateAndUploadImage(ctx context.Context, in GenerateImageInput) (*GenerateImageOutput, error) {
	rendered, err := a.Images.Generate(ctx, &imagegen.Request{
		Prompt:  in.Prompt,
		Width:   in.Width,
		Height:  in.Height,
		TaskID:  in.TaskID,
		WorldID: in.WorldID,
	})
	if err != nil {
		return nil, err
	}

	// Spend is booked as soon as the render succeeded; a failed upload
	// afterwards does not refund it.
	if err := a.Store.IncrementCost(ctx, in.WorldID, "image", rendered.Cost); err != nil {
		a.Logger.Warn("image cost increment failed", "world_id", in.WorldID, "error", err)
	}

	mediaID, err := a.Gateway.UploadFromURL(ctx, &gateway.UploadInput{
		WorldID:     in.WorldID,
		CharacterID: in.CharacterID,
		MediaType:   gateway.MediaType(in.MediaType),
		SourceURL:   rendered.ImageURL,
		ContentType: "image/png",
		Filename:    in.Filename,
	})
	if err != nil {
		return nil, err
	}

	return &GenerateImageOutput{
		MediaID:  mediaID,
		ImageURL: rendered.ImageURL,
		Cost:     rendered.Cost,
	}, nil
}
