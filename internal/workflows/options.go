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
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Task queues. Workflows run on the main queue; each activity class has
// its own queue so that one slow class (image rendering, long
// completions) cannot starve the cheap ledger writes.
const (
	QueueMain     = "ai-worker-main"
	QueueLLM      = "ai-worker-llm"
	QueueImages   = "ai-worker-images"
	QueueProgress = "ai-worker-progress"
	QueueServices = "ai-worker-services"
)

// progressOptions covers ledger and task-store writes: fast, idempotent,
// retried a few times.
func progressOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           QueueProgress,
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})
}

// serviceOptions covers gRPC writes to the platform services.
func serviceOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           QueueServices,
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})
}

// llmOptions parameterizes the completion classes; timeouts scale with the
// expected output size.
func llmOptions(ctx workflow.Context, startToClose, initial, maxInterval time.Duration, attempts int32) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           QueueLLM,
		StartToCloseTimeout: startToClose,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        initial,
			MaximumInterval:        maxInterval,
			MaximumAttempts:        attempts,
			NonRetryableErrorTypes: []string{"ValidationError"},
		},
	})
}

// The world description is the root of everything downstream, so it gets
// the most retry headroom.
func worldDescriptionOptions(ctx workflow.Context) workflow.Context {
	return llmOptions(ctx, 5*time.Minute, 2*time.Second, 2*time.Minute, 5)
}

// Prompt optimizations are short completions.
func imagePromptOptions(ctx workflow.Context) workflow.Context {
	return llmOptions(ctx, 3*time.Minute, 2*time.Second, time.Minute, 3)
}

func characterBatchOptions(ctx workflow.Context) workflow.Context {
	return llmOptions(ctx, 10*time.Minute, 3*time.Second, 3*time.Minute, 3)
}

func characterDetailOptions(ctx workflow.Context) workflow.Context {
	return llmOptions(ctx, 5*time.Minute, 2*time.Second, 2*time.Minute, 3)
}

func postBatchOptions(ctx workflow.Context) workflow.Context {
	return llmOptions(ctx, 8*time.Minute, 3*time.Second, 3*time.Minute, 3)
}

func postDetailOptions(ctx workflow.Context) workflow.Context {
	return llmOptions(ctx, 5*time.Minute, 2*time.Second, 2*time.Minute, 3)
}

// imageOptions covers render plus upload; diffusion calls routinely take
// minutes under load.
func imageOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:           QueueImages,
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumInterval: 2 * time.Minute,
			MaximumAttempts: 3,
		},
	})
}
