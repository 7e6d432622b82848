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

// Package prompts embeds the LLM prompt template library and renders
// templates with per-call data.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

// Template names.
const (
	WorldDescription     = "world_description.txt"
	WorldImage           = "world_image.txt"
	CharacterBatch       = "character_batch.txt"
	CharacterDetail      = "character_detail.txt"
	CharacterAvatar      = "character_avatar.txt"
	PreviousCharacters   = "previous_characters.txt"
	FirstBatchCharacters = "first_batch_characters.txt"
	PreviousPosts        = "previous_posts.txt"
	FirstBatchPosts      = "first_batch_posts.txt"
	PostBatch            = "post_batch.txt"
	PostDetail           = "post_detail.txt"
	PostImage            = "post_image.txt"
)

// Load returns the raw template text.
func Load(name string) (string, error) {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}
	return string(data), nil
}

// Render loads a template and executes it against data. Missing keys are an
// error: a prompt silently rendered with holes produces garbage generations
// that are expensive to track down.
func Render(name string, data any) (string, error) {
	text, err := Load(name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", name, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return sb.String(), nil
}
