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

// Package schemas declares the typed response shapes the LLM client
// enforces, the registry that maps stable schema names to those shapes, and
// the renderers that turn shapes and values into prompt text.
//
// Workflow code passes schema names as strings because workflow code must
// stay deterministic; activities resolve the name back to a concrete type.
package schemas

// Location describes a notable place in the generated world.
type Location struct {
	Name         string `json:"name" jsonschema:"description=Name of the place"`
	Description  string `json:"description" jsonschema:"description=Description of the place"`
	Significance string `json:"significance" jsonschema:"description=Why the place matters to the world"`
	VisualStyle  string `json:"visual_style" jsonschema:"description=Visual style of the place"`
}

// CharacterType describes a kind of inhabitant of the world.
type CharacterType struct {
	Type            string   `json:"type" jsonschema:"description=Type of character"`
	Description     string   `json:"description" jsonschema:"description=Description of the character type"`
	Role            string   `json:"role" jsonschema:"description=Role in society"`
	Characteristics []string `json:"characteristics" jsonschema:"description=Defining traits"`
}

// AdditionalDetails carries the free-form world facets that do not fit the
// main structure.
type AdditionalDetails struct {
	Climate       string   `json:"climate" jsonschema:"description=Climate and weather conditions"`
	Resources     string   `json:"resources" jsonschema:"description=Main resources and their distribution"`
	Conflicts     string   `json:"conflicts" jsonschema:"description=Main conflicts and tensions"`
	Traditions    string   `json:"traditions" jsonschema:"description=Important traditions and customs"`
	Technology    string   `json:"technology" jsonschema:"description=How technology is used"`
	MagicSystem   string   `json:"magic_system" jsonschema:"description=System of magic if applicable"`
	TimePeriod    string   `json:"time_period" jsonschema:"description=Time period of the world"`
	Language      string   `json:"language" jsonschema:"description=Language and communication particulars"`
	CustomDetails []string `json:"custom_details" jsonschema:"description=Unique world details that fit nowhere else"`
}

// WorldDescriptionResponse is the structured LLM answer for world
// description generation. It doubles as the canonical world-parameters
// payload persisted for every downstream workflow.
type WorldDescriptionResponse struct {
	Name              string            `json:"name" jsonschema:"description=Name of the world"`
	Description       string            `json:"description" jsonschema:"description=Short description of the world in 2-3 sentences"`
	Theme             string            `json:"theme" jsonschema:"description=Central theme of the world"`
	TechnologyLevel   string            `json:"technology_level" jsonschema:"description=Level of technological development"`
	SocialStructure   string            `json:"social_structure" jsonschema:"description=Social structure of society"`
	Culture           string            `json:"culture" jsonschema:"description=Cultural particulars of the world"`
	Geography         string            `json:"geography" jsonschema:"description=Geographic particulars of the world"`
	VisualStyle       string            `json:"visual_style" jsonschema:"description=Visual style of the world such as palette and art direction"`
	History           string            `json:"history" jsonschema:"description=Short history of the world"`
	NotableLocations  []Location        `json:"notable_locations" jsonschema:"description=Notable places with names and descriptions"`
	TypicalCharacters []CharacterType   `json:"typical_characters" jsonschema:"description=Types of characters who inhabit the world"`
	CommonActivities  []string          `json:"common_activities" jsonschema:"description=Common occupations and activities in this world"`
	AdditionalDetails AdditionalDetails `json:"additional_details" jsonschema:"description=Additional details and particulars of the world"`
}

// ImagePromptResponse is the structured LLM answer that plans the two world
// images: a wide header and a square icon.
type ImagePromptResponse struct {
	HeaderPrompt   string   `json:"header_prompt" jsonschema:"description=Prompt for the large background header image of the world"`
	IconPrompt     string   `json:"icon_prompt" jsonschema:"description=Prompt for the world icon"`
	StyleReference string   `json:"style_reference" jsonschema:"description=Style description keeping the images consistent"`
	VisualElements []string `json:"visual_elements" jsonschema:"description=Key visual elements for the images"`
	Mood           string   `json:"mood" jsonschema:"description=Mood and atmosphere the images should convey"`
	ColorPalette   []string `json:"color_palette" jsonschema:"description=Main colors to use in the images"`
}
