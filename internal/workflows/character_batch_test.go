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

package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/tombee/worldforge/internal/schemas"
)

func characterBatchEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *stubWorld) {
	t.Helper()
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	stub := newStubWorld()
	stub.register(env)
	env.RegisterWorkflowWithOptions(GenerateCharacterBatch,
		workflow.RegisterOptions{Name: WorkflowGenerateCharacterBatch})
	registerChildStubs(env, WorkflowGenerateCharacter)
	return env, stub
}

func concepts(ids ...string) []schemas.CharacterConcept {
	out := make([]schemas.CharacterConcept, len(ids))
	for i, id := range ids {
		out[i] = schemas.CharacterConcept{
			ID:           id,
			Concept:      "concept " + id,
			ConceptShort: "short " + id,
			PostsCount:   2,
		}
	}
	return out
}

func TestCharacterBatchExactProduction(t *testing.T) {
	env, stub := characterBatchEnv(t)
	stub.characterBatch = schemas.CharacterBatchResponse{
		Characters:                     concepts("a", "b", "c"),
		GeneratedCharactersDescription: "three harbor workers",
	}

	ref := stub.putTask(t, "task-batch", GenerateCharacterBatchInput{
		WorldID:             "w1",
		UsersCount:          3,
		PostsCount:          9,
		RemainingPostsCount: 9,
		TotalUsersCount:     3,
	})
	env.ExecuteWorkflow(WorkflowGenerateCharacterBatch, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, float64(3), res.Data["characters_count"])
	assert.Equal(t, float64(0), res.Data["remaining_users"])

	// One task per character, no continuation, branch closed.
	assert.Equal(t, []string{
		TaskGenerateCharacter, TaskGenerateCharacter, TaskGenerateCharacter,
	}, stub.createdTypes())
	assert.Contains(t, stub.stages, "characters:completed")
	assert.Equal(t, 1, stub.llmCalls)

	// The 9-post budget splits across equal weights, each at least one.
	total := 0.0
	for _, c := range stub.created {
		char := c.Parameters["character_data"].(map[string]any)
		posts := char["posts_count"].(float64)
		assert.GreaterOrEqual(t, posts, 1.0)
		total += posts
	}
	assert.Equal(t, 9.0, total)
}

func TestCharacterBatchOverproductionTruncates(t *testing.T) {
	env, stub := characterBatchEnv(t)
	stub.characterBatch = schemas.CharacterBatchResponse{
		Characters: concepts("a", "b", "c", "d", "e"),
	}

	ref := stub.putTask(t, "task-batch", GenerateCharacterBatchInput{
		WorldID:             "w1",
		UsersCount:          2,
		PostsCount:          4,
		RemainingPostsCount: 4,
		TotalUsersCount:     2,
	})
	env.ExecuteWorkflow(WorkflowGenerateCharacterBatch, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, float64(2), res.Data["characters_count"])
	assert.Len(t, stub.created, 2)
	assert.Contains(t, stub.stages, "characters:completed")
}

func TestCharacterBatchDepthCap(t *testing.T) {
	env, stub := characterBatchEnv(t)

	ref := stub.putTask(t, "task-batch", GenerateCharacterBatchInput{
		WorldID:         "w1",
		UsersCount:      5,
		PostsCount:      10,
		TotalUsersCount: 5,
		GeneratedCount:  3,
		RecursionDepth:  40,
	})
	env.ExecuteWorkflow(WorkflowGenerateCharacterBatch, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "Maximum recursion depth reached", res.Error)
	assert.Equal(t, float64(3), res.Data["total_generated"])

	// Capped runs never touch the model or schedule work.
	assert.Equal(t, 0, stub.llmCalls)
	assert.Empty(t, stub.created)
}

func TestCharacterBatchZeroCharactersRequested(t *testing.T) {
	env, stub := characterBatchEnv(t)

	ref := stub.putTask(t, "task-batch", GenerateCharacterBatchInput{
		WorldID:    "w1",
		UsersCount: 0,
		PostsCount: 0,
	})
	env.ExecuteWorkflow(WorkflowGenerateCharacterBatch, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "No characters requested", res.Error)
	assert.Equal(t, 0, stub.llmCalls)
	assert.Empty(t, stub.created)
}

func TestCharacterBatchEmptyModelAnswer(t *testing.T) {
	env, stub := characterBatchEnv(t)
	stub.characterBatch = schemas.CharacterBatchResponse{}

	ref := stub.putTask(t, "task-batch", GenerateCharacterBatchInput{
		WorldID:             "w1",
		UsersCount:          3,
		PostsCount:          6,
		RemainingPostsCount: 6,
		TotalUsersCount:     3,
	})
	env.ExecuteWorkflow(WorkflowGenerateCharacterBatch, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "No characters generated", res.Error)
	assert.Equal(t, 1, stub.llmCalls)
	assert.Empty(t, stub.created)
	assert.NotContains(t, stub.stages, "characters:completed")
}

func TestGenerateCharacterFansOut(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	stub := newStubWorld()
	stub.register(env)
	env.RegisterWorkflowWithOptions(GenerateCharacter,
		workflow.RegisterOptions{Name: WorkflowGenerateCharacter})
	registerChildStubs(env, WorkflowGenerateCharacterAvatar, WorkflowGeneratePostBatch)

	ref := stub.putTask(t, "task-char", GenerateCharacterInput{
		WorldID: "w1",
		Character: schemas.CharacterConcept{
			ID:         "ada",
			Concept:    "a tidal engineer",
			PostsCount: 3,
		},
	})
	env.ExecuteWorkflow(WorkflowGenerateCharacter, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "char-1", res.Data["character_id"])
	assert.Equal(t, "ada_l", res.Data["username"])

	require.Len(t, stub.characters, 1)
	assert.Equal(t, "w1", stub.characters[0].WorldID)
	assert.Equal(t, 1, stub.counters[counterUsersCreated])
	assert.Equal(t, 1, stub.counters[counterLLMCalls])

	// Avatar and post-batch branches each got a task document.
	assert.Equal(t, []string{TaskGenerateCharacterAvatar, TaskGeneratePostBatch}, stub.createdTypes())
	postsParams := stub.created[1].Parameters
	assert.Equal(t, "char-1", postsParams["character_id"])
	assert.Equal(t, float64(3), postsParams["posts_count"])
}

func TestGenerateCharacterAvatar(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	stub := newStubWorld()
	stub.register(env)
	env.RegisterWorkflowWithOptions(GenerateCharacterAvatar,
		workflow.RegisterOptions{Name: WorkflowGenerateCharacterAvatar})

	ref := stub.putTask(t, "task-avatar", GenerateCharacterAvatarInput{
		WorldID:     "w1",
		CharacterID: "char-1",
		Detail:      stub.detail,
	})
	env.ExecuteWorkflow(WorkflowGenerateCharacterAvatar, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "media-avatar.png", res.Data["avatar_id"])

	require.Len(t, stub.images, 1)
	assert.Equal(t, "char-1", stub.images[0].CharacterID)
	assert.Equal(t, 512, stub.images[0].Width)
	require.Len(t, stub.avatars, 1)
	assert.Equal(t, "media-avatar.png", stub.avatars[0].AvatarMediaID)
	assert.Equal(t, 1, stub.counters[counterImageCalls])
}

func TestGenerateCharacterAvatarShortCircuit(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	stub := newStubWorld()
	stub.register(env)
	env.RegisterWorkflowWithOptions(GenerateCharacterAvatar,
		workflow.RegisterOptions{Name: WorkflowGenerateCharacterAvatar})

	ref := stub.putTask(t, "task-avatar", GenerateCharacterAvatarInput{
		WorldID:     "w1",
		CharacterID: "char-1",
		Detail:      schemas.CharacterDetailResponse{DisplayName: "Ada"},
	})
	env.ExecuteWorkflow(WorkflowGenerateCharacterAvatar, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "No avatar description provided", res.Data["message"])
	assert.Empty(t, stub.images)
	assert.Empty(t, stub.avatars)
}
