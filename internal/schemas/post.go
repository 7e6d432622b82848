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

// PostConcept sketches one post inside a batch.
type PostConcept struct {
	Topic                string `json:"topic" jsonschema:"description=Topic of the post"`
	ContentBrief         string `json:"content_brief" jsonschema:"description=Short content outline in 2-3 sentences"`
	HasImage             bool   `json:"has_image" jsonschema:"description=Whether an image should be generated for this post"`
	EmotionalTone        string `json:"emotional_tone" jsonschema:"description=Emotional tone of the post"`
	PostType             string `json:"post_type" jsonschema:"description=Type of post such as personal or news or question"`
	RelevanceToCharacter string `json:"relevance_to_character" jsonschema:"description=How the post reflects the character's personality"`
}

// PostBatchResponse is the structured LLM answer for one post sub-batch of
// a character.
type PostBatchResponse struct {
	Posts                []PostConcept `json:"posts" jsonschema:"description=List of post concepts"`
	NarrativeArc         string        `json:"narrative_arc" jsonschema:"description=Overall narrative arc across the posts"`
	CharacterDevelopment string        `json:"character_development" jsonschema:"description=How the posts reflect the character's development"`
	PostingSchedule      []string      `json:"posting_schedule" jsonschema:"description=Rough publication schedule for the posts"`
	RecurringThemes      []string      `json:"recurring_themes" jsonschema:"description=Recurring themes in the character's posts"`
}

// PostDetailResponse is the structured LLM answer for one fully written
// post.
type PostDetailResponse struct {
	Content     string   `json:"content" jsonschema:"description=Full text of the post"`
	ImagePrompt string   `json:"image_prompt,omitempty" jsonschema:"description=Prompt for generating the post image"`
	ImageStyle  string   `json:"image_style,omitempty" jsonschema:"description=Image style for the post"`
	Hashtags    []string `json:"hashtags" jsonschema:"description=Hashtags for the post"`
	Mood        string   `json:"mood" jsonschema:"description=Mood of the post"`
	Context     string   `json:"context" jsonschema:"description=What was happening to the character when writing the post"`
	Mentions    []string `json:"mentions" jsonschema:"description=Mentions of other characters if any"`
	Location    string   `json:"location,omitempty" jsonschema:"description=Where the post was created if applicable"`
	TimeOfDay   string   `json:"time_of_day,omitempty" jsonschema:"description=Time of day the post was created if applicable"`
}

// PostImagePromptResponse is the structured LLM answer optimizing a post
// image prompt.
type PostImagePromptResponse struct {
	Prompt string `json:"prompt" jsonschema:"description=The optimized prompt for generating the post image"`
}
