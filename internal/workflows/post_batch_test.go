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

func postBatchEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *stubWorld) {
	t.Helper()
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	stub := newStubWorld()
	stub.register(env)
	env.RegisterWorkflowWithOptions(GeneratePostBatch,
		workflow.RegisterOptions{Name: WorkflowGeneratePostBatch})
	registerChildStubs(env, WorkflowGeneratePost)
	return env, stub
}

func TestPostBatchPadsUnderproduction(t *testing.T) {
	env, stub := postBatchEnv(t)
	stub.postBatch = schemas.PostBatchResponse{
		Posts: []schemas.PostConcept{
			{Topic: "tides", ContentBrief: "measuring the morning tide", EmotionalTone: "calm"},
		},
	}

	ref := stub.putTask(t, "task-posts", GeneratePostBatchInput{
		WorldID:     "w1",
		CharacterID: "char-1",
		PostsCount:  3,
		Detail:      stub.detail,
	})
	env.ExecuteWorkflow(WorkflowGeneratePostBatch, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, float64(3), res.Data["posts_count"])
	assert.Equal(t, float64(0), res.Data["remaining_posts"])

	// Padding keeps the batch size exact: one real concept, two variants.
	require.Len(t, stub.created, 3)
	topics := make([]string, 3)
	for i, c := range stub.created {
		assert.Equal(t, TaskGeneratePost, c.Type)
		post := c.Parameters["post_data"].(map[string]any)
		topics[i] = post["topic"].(string)
	}
	assert.Equal(t, "tides", topics[0])
	assert.Contains(t, topics[1], "(variant")
	assert.Contains(t, topics[2], "(variant")
	assert.Equal(t, 1, stub.llmCalls)
}

func TestPostBatchDepthCap(t *testing.T) {
	env, stub := postBatchEnv(t)

	ref := stub.putTask(t, "task-posts", GeneratePostBatchInput{
		WorldID:         "w1",
		CharacterID:     "char-1",
		PostsCount:      20,
		TotalPostsCount: 20,
		GeneratedCount:  11,
		RecursionDepth:  25,
		Detail:          stub.detail,
	})
	env.ExecuteWorkflow(WorkflowGeneratePostBatch, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "Maximum recursion depth reached", res.Error)
	assert.Equal(t, float64(11), res.Data["total_posts_count"])
	assert.Equal(t, 0, stub.llmCalls)
	assert.Empty(t, stub.created)
}

func TestPostBatchZeroPosts(t *testing.T) {
	env, stub := postBatchEnv(t)

	ref := stub.putTask(t, "task-posts", GeneratePostBatchInput{
		WorldID:     "w1",
		CharacterID: "char-1",
		PostsCount:  0,
		Detail:      stub.detail,
	})
	env.ExecuteWorkflow(WorkflowGeneratePostBatch, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "No posts for character", res.Error)
	assert.Equal(t, 0, stub.llmCalls)
}

func TestGeneratePostSpawnsImageStep(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	stub := newStubWorld()
	stub.register(env)
	env.RegisterWorkflowWithOptions(GeneratePost,
		workflow.RegisterOptions{Name: WorkflowGeneratePost})
	registerChildStubs(env, WorkflowGeneratePostImage)

	ref := stub.putTask(t, "task-post", GeneratePostInput{
		WorldID:     "w1",
		CharacterID: "char-1",
		Detail:      stub.detail,
		Concept:     schemas.PostConcept{Topic: "tides", EmotionalTone: "calm"},
	})
	env.ExecuteWorkflow(WorkflowGeneratePost, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "rain again, love it", res.Data["content"])

	// The post record is not created here; only the image step task is.
	assert.Empty(t, stub.posts)
	assert.Equal(t, []string{TaskGeneratePostImage}, stub.createdTypes())
	imageParams := stub.created[0].Parameters
	post := imageParams["post_detail"].(map[string]any)
	assert.Equal(t, "rainy street", post["image_prompt"])
}

func TestGeneratePostImagePublishes(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	stub := newStubWorld()
	stub.register(env)
	env.RegisterWorkflowWithOptions(GeneratePostImage,
		workflow.RegisterOptions{Name: WorkflowGeneratePostImage})

	ref := stub.putTask(t, "task-post-image", GeneratePostImageInput{
		WorldID:     "w1",
		CharacterID: "char-1",
		Detail:      stub.detail,
		Post: schemas.PostDetailResponse{
			Content:     "rain again, love it",
			ImagePrompt: "rainy street",
			Hashtags:    []string{"rain"},
			Mood:        "calm",
		},
	})
	env.ExecuteWorkflow(WorkflowGeneratePostImage, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "post-1", res.Data["post_id"])
	assert.Equal(t, true, res.Data["world_completed"])

	require.Len(t, stub.images, 1)
	assert.Equal(t, "optimized rainy street", stub.images[0].Prompt)

	require.Len(t, stub.posts, 1)
	assert.Equal(t, "rain again, love it", stub.posts[0].Content)
	assert.Equal(t, "media-post.png", stub.posts[0].MediaID)
	assert.Equal(t, []string{"rain"}, stub.posts[0].Hashtags)

	assert.Equal(t, 1, stub.counters[counterPostsCreated])
	assert.Equal(t, 1, stub.counters[counterImageCalls])
}

func TestGeneratePostImageShortCircuit(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	stub := newStubWorld()
	stub.register(env)
	env.RegisterWorkflowWithOptions(GeneratePostImage,
		workflow.RegisterOptions{Name: WorkflowGeneratePostImage})

	ref := stub.putTask(t, "task-post-image", GeneratePostImageInput{
		WorldID:     "w1",
		CharacterID: "char-1",
		Detail:      stub.detail,
		Post:        schemas.PostDetailResponse{Content: "caption only"},
	})
	env.ExecuteWorkflow(WorkflowGeneratePostImage, ref)

	res := workflowResult(t, env)
	assert.True(t, res.Success)
	assert.Equal(t, "No image prompt provided", res.Data["message"])
	assert.Empty(t, stub.images)
	assert.Empty(t, stub.posts)
	assert.Equal(t, 0, stub.counters[counterPostsCreated])
}
