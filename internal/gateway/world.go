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

// GetWorld fetches the platform's world record.
func (g *Gateway) GetWorld(ctx context.Context, worldID string) (*World, error) {
	var world World
	err := g.invoke(ctx, ServiceWorld, "/world.WorldService/GetWorld",
		&GetWorldRequest{WorldID: worldID}, &world)
	if err != nil {
		return nil, err
	}
	return &world, nil
}

// UpdateWorldImage attaches the uploaded header and icon media ids.
func (g *Gateway) UpdateWorldImage(ctx context.Context, worldID, headerID, iconID string) (*World, error) {
	var world World
	err := g.invoke(ctx, ServiceWorld, "/world.WorldService/UpdateWorldImage",
		&UpdateWorldImageRequest{WorldID: worldID, Header: headerID, Icon: iconID}, &world)
	if err != nil {
		return nil, err
	}
	return &world, nil
}

// UpdateWorldParams pushes the generated name, description, and parameter
// document to the platform.
func (g *Gateway) UpdateWorldParams(ctx context.Context, req *UpdateWorldParamsRequest) (*World, error) {
	var world World
	err := g.invoke(ctx, ServiceWorld, "/world.WorldService/UpdateWorldParams", req, &world)
	if err != nil {
		return nil, err
	}
	return &world, nil
}
