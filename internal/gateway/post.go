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

// CreateAIPost publishes one generated post on behalf of a character.
func (g *Gateway) CreateAIPost(ctx context.Context, req *CreateAIPostRequest) (*Post, error) {
	var post Post
	err := g.invoke(ctx, ServicePost, "/post.PostService/CreateAIPost", req, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}
