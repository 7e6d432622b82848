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

import "context"

// GetPresignedUploadURL asks the media service for an upload slot.
func (g *Gateway) GetPresignedUploadURL(ctx context.Context, req *PresignedUploadRequest) (*PresignedUploadResponse, error) {
	var resp PresignedUploadResponse
	err := g.invoke(ctx, ServiceMedia, "/media.MediaService/GetPresignedUploadURL", req, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmUpload finalizes media after the presigned PUT succeeded.
func (g *Gateway) ConfirmUpload(ctx context.Context, mediaID string) (*ConfirmUploadResponse, error) {
	var resp ConfirmUploadResponse
	err := g.invoke(ctx, ServiceMedia, "/media.MediaService/ConfirmUpload",
		&ConfirmUploadRequest{MediaID: mediaID}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
