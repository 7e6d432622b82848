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
	"reflect"
	"sort"

	"github.com/tombee/worldforge/pkg/errors"
)

// Stable schema names passed across workflow boundaries.
const (
	WorldDescription      = "WorldDescriptionResponse"
	CharacterBatch        = "CharacterBatchResponse"
	CharacterDetail       = "CharacterDetailResponse"
	PostBatch             = "PostBatchResponse"
	PostDetail            = "PostDetailResponse"
	ImagePrompt           = "ImagePromptResponse"
	PostImagePrompt       = "PostImagePromptResponse"
	CharacterAvatarPrompt = "CharacterAvatarPromptResponse"
)

var registry = map[string]reflect.Type{
	WorldDescription:      reflect.TypeOf(WorldDescriptionResponse{}),
	CharacterBatch:        reflect.TypeOf(CharacterBatchResponse{}),
	CharacterDetail:       reflect.TypeOf(CharacterDetailResponse{}),
	PostBatch:             reflect.TypeOf(PostBatchResponse{}),
	PostDetail:            reflect.TypeOf(PostDetailResponse{}),
	ImagePrompt:           reflect.TypeOf(ImagePromptResponse{}),
	PostImagePrompt:       reflect.TypeOf(PostImagePromptResponse{}),
	CharacterAvatarPrompt: reflect.TypeOf(CharacterAvatarPromptResponse{}),
}

// aliases keeps the legacy names of earlier task payloads resolvable.
var aliases = map[string]string{
	"CharacterResponse": CharacterDetail,
	"PostResponse":      PostDetail,
}

// Lookup resolves a schema name (or legacy alias) to its shape type.
// Unknown names are a business precondition failure and never retried.
func Lookup(name string) (reflect.Type, error) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	t, ok := registry[name]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "schema", ID: name}
	}
	return t, nil
}

// New returns a pointer to a fresh zero value of the named shape, ready for
// JSON unmarshaling.
func New(name string) (any, error) {
	t, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return reflect.New(t).Interface(), nil
}

// Names returns the canonical schema names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
