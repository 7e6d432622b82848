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

// CreateCharacter registers a generated character with the platform and
// returns the record including its assigned id.
func (g *Gateway) CreateCharacter(ctx context.Context, req *CreateCharacterRequest) (*Character, error) {
	var ch Character
	err := g.invoke(ctx, ServiceCharacter, "/character.CharacterService/CreateCharacter", req, &ch)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetCharacter fetches a character by id.
func (g *Gateway) GetCharacter(ctx context.Context, characterID string) (*Character, error) {
	var ch Character
	err := g.invoke(ctx, ServiceCharacter, "/character.CharacterService/GetCharacter",
		&GetCharacterRequest{CharacterID: characterID}, &ch)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// UpdateCharacter patches a character, typically to attach the avatar.
func (g *Gateway) UpdateCharacter(ctx context.Context, req *UpdateCharacterRequest) (*Character, error) {
	var ch Character
	err := g.invoke(ctx, ServiceCharacter, "/character.CharacterService/UpdateCharacter", req, &ch)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}
