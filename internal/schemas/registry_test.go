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

package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/worldforge/pkg/errors"
)

func TestLookupCanonicalNames(t *testing.T) {
	for _, name := range Names() {
		tt, err := Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, tt.Name())
	}
}

func TestLookupAliases(t *testing.T) {
	tt, err := Lookup("CharacterResponse")
	require.NoError(t, err)
	assert.Equal(t, "CharacterDetailResponse", tt.Name())

	tt, err = Lookup("PostResponse")
	require.NoError(t, err)
	assert.Equal(t, "PostDetailResponse", tt.Name())
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("NoSuchResponse")
	var nf *errors.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "schema", nf.Resource)
}

func TestNewReturnsPointer(t *testing.T) {
	v, err := New(WorldDescription)
	require.NoError(t, err)

	shape, ok := v.(*WorldDescriptionResponse)
	require.True(t, ok)
	assert.Empty(t, shape.Name)
}
