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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/worldforge/internal/schemas"
)

// Every completion resolves its shape through the registry and decodes
// into the matching response type, so the prompt text, the wire schema,
// and the decoded value can never drift apart.
func TestRegistryShapesMatchActivityResponses(t *testing.T) {
	cases := map[string]any{
		schemas.WorldDescription:      &schemas.WorldDescriptionResponse{},
		schemas.ImagePrompt:           &schemas.ImagePromptResponse{},
		schemas.CharacterBatch:        &schemas.CharacterBatchResponse{},
		schemas.CharacterDetail:       &schemas.CharacterDetailResponse{},
		schemas.CharacterAvatarPrompt: &schemas.CharacterAvatarPromptResponse{},
		schemas.PostBatch:             &schemas.PostBatchResponse{},
		schemas.PostDetail:            &schemas.PostDetailResponse{},
		schemas.PostImagePrompt:       &schemas.PostImagePromptResponse{},
	}
	for name, want := range cases {
		shape, err := schemas.New(name)
		require.NoError(t, err, name)
		assert.IsType(t, want, shape, name)
	}
}
