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

package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAllTemplates(t *testing.T) {
	names := []string{
		WorldDescription, WorldImage,
		CharacterBatch, CharacterDetail, CharacterAvatar,
		PreviousCharacters, FirstBatchCharacters,
		PreviousPosts, FirstBatchPosts,
		PostBatch, PostDetail, PostImage,
	}
	for _, name := range names {
		text, err := Load(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, text, name)
	}
}

func TestLoadUnknownTemplate(t *testing.T) {
	_, err := Load("missing.txt")
	assert.Error(t, err)
}

func TestRenderWorldDescription(t *testing.T) {
	out, err := Render(WorldDescription, map[string]any{
		"UserPrompt":           "A reality where dreams materialize as objects",
		"StructureDescription": "name: Name of the world",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "A reality where dreams materialize as objects")
	assert.Contains(t, out, "name: Name of the world")
	assert.NotContains(t, out, "{{")
}

func TestRenderMissingKeyFails(t *testing.T) {
	_, err := Render(CharacterBatch, map[string]any{
		"CharactersCount": 5,
	})
	assert.Error(t, err)
}
