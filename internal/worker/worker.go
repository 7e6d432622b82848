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

// Package worker assembles the Temporal workers of one daemon process.
// Each task queue gets its own worker so the per-queue concurrency caps
// map directly onto activity classes: workflow tasks on the main queue,
// then llm, images, progress, and services activities on theirs.
package worker

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/tombee/worldforge/internal/activities"
	"github.com/tombee/worldforge/internal/config"
	"github.com/tombee/worldforge/internal/gateway"
	"github.com/tombee/worldforge/internal/imagegen"
	"github.com/tombee/worldforge/internal/llm"
	"github.com/tombee/worldforge/internal/resources"
	"github.com/tombee/worldforge/internal/workflows"
)

// Set is the full worker complement of one process: one workflow worker
// and four activity workers, all sharing the resource pool.
type Set struct {
	workers []worker.Worker
	queues  []string
	logger  *slog.Logger
}

// New builds the clients and the five workers. Nothing polls until Start.
func New(c client.Client, cfg *config.Config, pool *resources.Pool, logger *slog.Logger) *Set {
	gw := gateway.New(pool, logger)
	llmClient := llm.New(pool, pool.Store, llm.Options{
		BaseURL: cfg.OpenRouterBaseURL,
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.LLMModel,
	}, logger)
	imageClient := imagegen.New(pool, pool.Store, imagegen.Options{
		BaseURL: cfg.RunwareBaseURL,
		APIKey:  cfg.RunwareAPIKey,
		Model:   cfg.ImageModel,
	}, logger)

	opts := worker.Options{
		MaxConcurrentWorkflowTaskExecutionSize: cfg.MaxWorkflowTasksPerWorker,
		MaxConcurrentActivityExecutionSize:     cfg.MaxActivitiesPerWorker,
	}

	main := worker.New(c, workflows.QueueMain, opts)
	workflows.Register(main)

	progress := worker.New(c, workflows.QueueProgress, opts)
	registerProgress(progress, &activities.ProgressActivities{
		Store:    pool.Store,
		WorkerID: identity(),
		Logger:   logger,
	})

	llmWorker := worker.New(c, workflows.QueueLLM, opts)
	registerLLM(llmWorker, &activities.LLMActivities{
		LLM:    llmClient,
		Store:  pool.Store,
		Logger: logger,
	})

	images := worker.New(c, workflows.QueueImages, opts)
	registerImages(images, &activities.ImageActivities{
		Images:  imageClient,
		Gateway: gw,
		Store:   pool.Store,
		Logger:  logger,
	})

	services := worker.New(c, workflows.QueueServices, opts)
	registerServices(services, &activities.ServiceActivities{
		Gateway: gw,
		Logger:  logger,
	})

	return &Set{
		workers: []worker.Worker{main, progress, llmWorker, images, services},
		queues: []string{
			workflows.QueueMain, workflows.QueueProgress, workflows.QueueLLM,
			workflows.QueueImages, workflows.QueueServices,
		},
		logger: logger.With("component", "worker"),
	}
}

// Start begins polling on every queue. Workers already started are
// stopped again if a later one fails.
func (s *Set) Start() error {
	for i, w := range s.workers {
		if err := w.Start(); err != nil {
			for j := i - 1; j >= 0; j-- {
				s.workers[j].Stop()
			}
			return fmt.Errorf("start worker for %s: %w", s.queues[i], err)
		}
		s.logger.Info("worker started", "queue", s.queues[i])
	}
	return nil
}

// Stop drains all workers. Safe to call after a failed Start.
func (s *Set) Stop() {
	for i := len(s.workers) - 1; i >= 0; i-- {
		s.workers[i].Stop()
		s.logger.Info("worker stopped", "queue", s.queues[i])
	}
}

// identity names this process in claimed task documents.
func identity() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worldforge"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}

// Activities are registered under explicit names because workflows invoke
// them by the name constants, never by function reference.

func registerProgress(r worker.ActivityRegistry, a *activities.ProgressActivities) {
	for name, fn := range map[string]any{
		activities.NameCreateTask:           a.CreateTask,
		activities.NameGetTask:              a.GetTask,
		activities.NameClaimTask:            a.ClaimTask,
		activities.NameUpdateTaskStatus:     a.UpdateTaskStatus,
		activities.NameInitializeWorld:      a.InitializeWorld,
		activities.NameUpdateStage:          a.UpdateStage,
		activities.NameIncrementCounter:     a.IncrementCounter,
		activities.NameIncrementCost:        a.IncrementCost,
		activities.NameUpdateProgress:       a.UpdateProgress,
		activities.NameSaveWorldParameters:  a.SaveWorldParameters,
		activities.NameCheckWorldCompletion: a.CheckWorldCompletion,
	} {
		r.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
}

func registerLLM(r worker.ActivityRegistry, a *activities.LLMActivities) {
	for name, fn := range map[string]any{
		activities.NameGenerateWorldDescription:  a.GenerateWorldDescription,
		activities.NameGenerateWorldImagePrompts: a.GenerateWorldImagePrompts,
		activities.NameGenerateCharacterBatch:    a.GenerateCharacterBatch,
		activities.NameGenerateCharacterDetail:   a.GenerateCharacterDetail,
		activities.NameGenerateAvatarPrompt:      a.GenerateAvatarPrompt,
		activities.NameGeneratePostBatch:         a.GeneratePostBatch,
		activities.NameGeneratePostDetail:        a.GeneratePostDetail,
		activities.NameGeneratePostImagePrompt:   a.GeneratePostImagePrompt,
	} {
		r.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
}

func registerImages(r worker.ActivityRegistry, a *activities.ImageActivities) {
	r.RegisterActivityWithOptions(a.GenerateAndUploadImage,
		activity.RegisterOptions{Name: activities.NameGenerateAndUploadImage})
}

func registerServices(r worker.ActivityRegistry, a *activities.ServiceActivities) {
	for name, fn := range map[string]any{
		activities.NameUpdateWorldParams:     a.UpdateWorldParams,
		activities.NameUpdateWorldImages:     a.UpdateWorldImages,
		activities.NameCreateCharacter:       a.CreateCharacter,
		activities.NameUpdateCharacterAvatar: a.UpdateCharacterAvatar,
		activities.NameCreateAIPost:          a.CreateAIPost,
	} {
		r.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
}
