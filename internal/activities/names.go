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

// Package activities implements every unit of externally visible work the
// workflows schedule. Activities are grouped by the task queue they run
// on, so each queue's worker registers exactly the set its permit class
// covers. Workflows reference activities by these name constants because
// the implementing structs are not importable from deterministic code.
package activities

// Progress queue: store and ledger operations.
const (
	NameCreateTask           = "CreateTask"
	NameGetTask              = "GetTask"
	NameClaimTask            = "ClaimTask"
	NameUpdateTaskStatus     = "UpdateTaskStatus"
	NameInitializeWorld      = "InitializeWorld"
	NameUpdateStage          = "UpdateStage"
	NameIncrementCounter     = "IncrementCounter"
	NameIncrementCost        = "IncrementCost"
	NameUpdateProgress       = "UpdateProgress"
	NameSaveWorldParameters  = "SaveWorldParameters"
	NameCheckWorldCompletion = "CheckWorldCompletion"
)

// LLM queue: structured and free-form completions.
const (
	NameGenerateWorldDescription  = "GenerateWorldDescription"
	NameGenerateWorldImagePrompts = "GenerateWorldImagePrompts"
	NameGenerateCharacterBatch    = "GenerateCharacterBatch"
	NameGenerateCharacterDetail   = "GenerateCharacterDetail"
	NameGenerateAvatarPrompt      = "GenerateAvatarPrompt"
	NameGeneratePostBatch         = "GeneratePostBatch"
	NameGeneratePostDetail        = "GeneratePostDetail"
	NameGeneratePostImagePrompt   = "GeneratePostImagePrompt"
)

// Images queue: render plus upload pipeline.
const (
	NameGenerateAndUploadImage = "GenerateAndUploadImage"
)

// Services queue: backend gRPC writes.
const (
	NameUpdateWorldParams     = "UpdateWorldParams"
	NameUpdateWorldImages     = "UpdateWorldImages"
	NameCreateCharacter       = "CreateCharacter"
	NameUpdateCharacterAvatar = "UpdateCharacterAvatar"
	NameCreateAIPost          = "CreateAIPost"
)
