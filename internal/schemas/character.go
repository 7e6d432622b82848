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

// CharacterConcept is the base sketch of one character inside a batch.
type CharacterConcept struct {
	Concept           string   `json:"concept" jsonschema:"description=Character concept in 2-4 sentences"`
	ConceptShort      string   `json:"concept_short" jsonschema:"description=One sentence summary of the concept"`
	ID                string   `json:"id" jsonschema:"description=Identifier of the character"`
	RoleInWorld       string   `json:"role_in_world" jsonschema:"description=Role of the character in the world"`
	PostsCount        int      `json:"posts_count" jsonschema:"description=Number of posts the character will author"`
	PersonalityTraits []string `json:"personality_traits" jsonschema:"description=Key personality traits"`
	Interests         []string `json:"interests" jsonschema:"description=Interests of the character"`
}

// CharacterConnection describes a link between two characters in a batch.
type CharacterConnection struct {
	Character1Name string `json:"character1_name" jsonschema:"description=Name of the first character"`
	Character2Name string `json:"character2_name" jsonschema:"description=Name of the second character"`
	ConnectionType string `json:"connection_type" jsonschema:"description=Type of connection such as family or friendship or professional"`
	Description    string `json:"description" jsonschema:"description=Description of the connection between the characters"`
}

// StoryAndEvent describes a shared story between several batch characters.
type StoryAndEvent struct {
	CharactersIDs []string `json:"characters_ids" jsonschema:"description=Identifiers of the characters involved in the story"`
	Title         string   `json:"title" jsonschema:"description=Title of the event"`
	Story         string   `json:"story" jsonschema:"description=Description of the shared story"`
	Location      string   `json:"location" jsonschema:"description=Where the event takes place"`
	Genre         string   `json:"genre" jsonschema:"description=Genre of the event"`
}

// CharacterBatchResponse is the structured LLM answer for one character
// sub-batch.
type CharacterBatchResponse struct {
	Characters                     []CharacterConcept    `json:"characters" jsonschema:"description=List of base character sketches"`
	WorldInterpretation            string                `json:"world_interpretation" jsonschema:"description=Overall reading of the world reflected in the characters"`
	CharacterConnections           []CharacterConnection `json:"character_connections" jsonschema:"description=Connections between the characters"`
	CommonStoriesAndEvents         []StoryAndEvent       `json:"common_stories_and_events" jsonschema:"description=Shared stories and events involving the characters"`
	GeneratedCharactersDescription string                `json:"generated_characters_description" jsonschema:"description=Short overview of the generated characters in 1-3 paragraphs without details"`
}

// CharacterRelationship describes one relationship in a character profile.
type CharacterRelationship struct {
	Username         string `json:"username" jsonschema:"description=Username of the related character"`
	RelationshipType string `json:"relationship_type" jsonschema:"description=Type of relationship such as friend or rival or relative"`
	Description      string `json:"description" jsonschema:"description=Description of the relationship"`
}

// CharacterDetailResponse is the structured LLM answer for a full character
// profile.
type CharacterDetailResponse struct {
	Username          string                  `json:"username" jsonschema:"description=Unique username"`
	DisplayName       string                  `json:"display_name" jsonschema:"description=Display name of the character"`
	Bio               string                  `json:"bio" jsonschema:"description=Profile biography up to 200 characters"`
	BackgroundStory   string                  `json:"background_story" jsonschema:"description=Detailed backstory of the character"`
	Personality       string                  `json:"personality" jsonschema:"description=Detailed personality description"`
	Appearance        string                  `json:"appearance" jsonschema:"description=Detailed description of the character's look"`
	Interests         []string                `json:"interests" jsonschema:"description=Interests and hobbies"`
	SpeakingStyle     string                  `json:"speaking_style" jsonschema:"description=How the character speaks"`
	CommonTopics      []string                `json:"common_topics" jsonschema:"description=Topics the character often talks about"`
	AvatarDescription string                  `json:"avatar_description" jsonschema:"description=Detailed description for generating the character avatar"`
	AvatarStyle       string                  `json:"avatar_style" jsonschema:"description=Image style for the avatar such as photorealistic or anime"`
	Relationships     []CharacterRelationship `json:"relationships" jsonschema:"description=Relationships with other characters if any"`
	Secret            string                  `json:"secret" jsonschema:"description=A secret or hidden trait of the character"`
	DailyRoutine      string                  `json:"daily_routine" jsonschema:"description=Everyday life of the character"`
}

// CharacterAvatarPromptResponse is the structured LLM answer optimizing an
// avatar image prompt.
type CharacterAvatarPromptResponse struct {
	Prompt string `json:"prompt" jsonschema:"description=The optimized prompt for generating the character avatar image"`
}
