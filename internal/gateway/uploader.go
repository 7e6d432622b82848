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

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tombee/worldforge/pkg/errors"
)

// maxImageBytes bounds how much of a generated image the uploader will
// buffer. Provider outputs are single images well under this.
const maxImageBytes = 32 << 20

// UploadInput describes one generated image to move from the provider's
// ephemeral URL into platform media storage.
type UploadInput struct {
	WorldID     string
	CharacterID string
	MediaType   MediaType
	SourceURL   string
	ContentType string
	Filename    string
}

// UploadFromURL runs the full media pipeline: request a presigned slot,
// download the provider's ephemeral image, PUT it to the slot with the
// exact Content-Type the slot was issued for, and confirm. Returns the
// finalized media id.
func (g *Gateway) UploadFromURL(ctx context.Context, in *UploadInput) (string, error) {
	if in.ContentType == "" {
		in.ContentType = "image/png"
	}

	slot, err := g.GetPresignedUploadURL(ctx, &PresignedUploadRequest{
		WorldID:     in.WorldID,
		CharacterID: in.CharacterID,
		Filename:    in.Filename,
		ContentType: in.ContentType,
		Size:        0,
		MediaType:   in.MediaType,
	})
	if err != nil {
		return "", err
	}
	if slot.ContentType == "" {
		slot.ContentType = in.ContentType
	}

	data, err := g.download(ctx, in.SourceURL)
	if err != nil {
		return "", err
	}

	if err := g.put(ctx, slot, data); err != nil {
		return "", err
	}

	confirmed, err := g.ConfirmUpload(ctx, slot.MediaID)
	if err != nil {
		return "", err
	}

	g.logger.Debug("media uploaded", "media_id", confirmed.MediaID,
		"world_id", in.WorldID, "media_type", int(in.MediaType), "bytes", len(data))
	return confirmed.MediaID, nil
}

// download fetches the provider's ephemeral image URL. These URLs expire
// quickly, so the fetch happens in the same activity as generation.
func (g *Gateway) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := g.pool.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.ProviderError{
			Provider:   "media-source",
			StatusCode: resp.StatusCode,
			Message:    "image download failed",
			Retryable:  errors.RetryableStatus(resp.StatusCode),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, &errors.CapacityError{Limit: "max_image_bytes", Message: "image exceeds upload size bound"}
	}
	if len(data) == 0 {
		return nil, &errors.ProviderError{Provider: "media-source", Message: "empty image body"}
	}
	return data, nil
}

// put writes the bytes to the presigned slot. The slot's signature covers
// the Content-Type, so the header must match exactly.
func (g *Gateway) put(ctx context.Context, slot *PresignedUploadResponse, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, slot.UploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", slot.ContentType)
	req.ContentLength = int64(len(data))

	resp, err := g.pool.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		return &errors.ProviderError{
			Provider:   "media-storage",
			StatusCode: resp.StatusCode,
			Message:    "presigned upload rejected",
			Retryable:  errors.RetryableStatus(resp.StatusCode),
		}
	}
}
