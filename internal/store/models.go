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

// Package store persists the engine's durable state in MongoDB: task
// documents, the per-world generation ledger, world parameters, and the
// API request audit history.
package store

import (
	"time"

	"github.com/tombee/worldforge/internal/schemas"
)

// Collection names.
const (
	CollectionTasks           = "tasks"
	CollectionGenerationState = "world_generation_status"
	CollectionWorldParameters = "world_parameters"
	CollectionAPIHistory      = "api_requests_history"
)

// Task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// Task types, one per workflow kind.
const (
	TypeInitWorldCreation        = "init_world_creation"
	TypeGenerateWorldDescription = "generate_world_description"
	TypeGenerateWorldImage       = "generate_world_image"
	TypeGenerateCharacterBatch   = "generate_character_batch"
	TypeGenerateCharacter        = "generate_character"
	TypeGenerateCharacterAvatar  = "generate_character_avatar"
	TypeGeneratePostBatch        = "generate_post_batch"
	TypeGeneratePost             = "generate_post"
	TypeGeneratePostImage        = "generate_post_image"
)

// Generation stages, in ledger order.
const (
	StageInitializing     = "initializing"
	StageWorldDescription = "world_description"
	StageWorldImage       = "world_image"
	StageCharacters       = "characters"
	StagePosts            = "posts"
	StageFinishing        = "finishing"
)

// StageOrder is the fixed stage sequence written at world initialization.
var StageOrder = []string{
	StageInitializing,
	StageWorldDescription,
	StageWorldImage,
	StageCharacters,
	StagePosts,
	StageFinishing,
}

// Generation statuses, shared by stages and the overall world status.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// MaxAttempts is the per-task-type attempt budget applied to the workflow
// retry policies.
var MaxAttempts = map[string]int{
	TypeInitWorldCreation:        4,
	TypeGenerateWorldDescription: 4,
	TypeGenerateWorldImage:       4,
	TypeGenerateCharacterBatch:   4,
	TypeGenerateCharacter:        2,
	TypeGenerateCharacterAvatar:  2,
	TypeGeneratePostBatch:        2,
	TypeGeneratePost:             2,
	TypeGeneratePostImage:        2,
}

// Defaults applied when the publisher omits capacity knobs.
const (
	DefaultUsersCount     = 10
	DefaultPostsCount     = 50
	DefaultLLMCallLimit   = 100
	DefaultImageCallLimit = 50
)

// Counter fields the ledger accepts for atomic increments.
var CounterWhitelist = map[string]bool{
	"tasks_total":           true,
	"tasks_completed":       true,
	"tasks_failed":          true,
	"users_created":         true,
	"posts_created":         true,
	"api_calls_made_LLM":    true,
	"api_calls_made_images": true,
}

// Cost types the ledger accepts, mapped to their document fields.
var CostFields = map[string]string{
	"llm":   "llm_cost_total",
	"image": "image_cost_total",
}

// Task is the durable record of one scheduled workflow input.
type Task struct {
	ID           string         `bson:"_id" json:"id"`
	Type         string         `bson:"type" json:"type"`
	WorldID      string         `bson:"world_id" json:"world_id"`
	Status       string         `bson:"status" json:"status"`
	WorkerID     string         `bson:"worker_id,omitempty" json:"worker_id,omitempty"`
	Parameters   map[string]any `bson:"parameters" json:"parameters"`
	Result       map[string]any `bson:"result,omitempty" json:"result,omitempty"`
	Error        string         `bson:"error,omitempty" json:"error,omitempty"`
	AttemptCount int            `bson:"attempt_count" json:"attempt_count"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"updated_at"`
}

// StageInfo is one entry of the ledger's stage list.
type StageInfo struct {
	Name   string `bson:"name" json:"name"`
	Status string `bson:"status" json:"status"`
}

// WorldGenerationStatus is the per-world progress and cost ledger.
type WorldGenerationStatus struct {
	ID           string      `bson:"_id" json:"id"`
	Status       string      `bson:"status" json:"status"`
	CurrentStage string      `bson:"current_stage" json:"current_stage"`
	Stages       []StageInfo `bson:"stages" json:"stages"`

	TasksTotal     int `bson:"tasks_total" json:"tasks_total"`
	TasksCompleted int `bson:"tasks_completed" json:"tasks_completed"`
	TasksFailed    int `bson:"tasks_failed" json:"tasks_failed"`

	UsersPredicted int `bson:"users_predicted" json:"users_predicted"`
	UsersCreated   int `bson:"users_created" json:"users_created"`
	PostsPredicted int `bson:"posts_predicted" json:"posts_predicted"`
	PostsCreated   int `bson:"posts_created" json:"posts_created"`

	APICallLimitsLLM    int `bson:"api_call_limits_LLM" json:"api_call_limits_LLM"`
	APICallLimitsImages int `bson:"api_call_limits_images" json:"api_call_limits_images"`
	APICallsMadeLLM     int `bson:"api_calls_made_LLM" json:"api_calls_made_LLM"`
	APICallsMadeImages  int `bson:"api_calls_made_images" json:"api_calls_made_images"`

	LLMCostTotal   float64 `bson:"llm_cost_total" json:"llm_cost_total"`
	ImageCostTotal float64 `bson:"image_cost_total" json:"image_cost_total"`

	Parameters map[string]any `bson:"parameters" json:"parameters"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at" json:"updated_at"`
}

// WorldParameters is the canonical generated world document, written once
// by the description workflow and read by every downstream workflow.
type WorldParameters struct {
	ID string `bson:"_id" json:"id"`

	schemas.WorldDescriptionResponse `bson:",inline"`

	UserPrompt string    `bson:"user_prompt" json:"user_prompt"`
	UsersCount int       `bson:"users_count" json:"users_count"`
	PostsCount int       `bson:"posts_count" json:"posts_count"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// APIRequestRecord is one append-only audit entry for an external call.
type APIRequestRecord struct {
	ID           string         `bson:"_id" json:"id"`
	APIType      string         `bson:"api_type" json:"api_type"`
	TaskID       string         `bson:"task_id" json:"task_id"`
	WorldID      string         `bson:"world_id" json:"world_id"`
	RequestType  string         `bson:"request_type" json:"request_type"`
	RequestData  map[string]any `bson:"request_data" json:"request_data"`
	ResponseData map[string]any `bson:"response_data,omitempty" json:"response_data,omitempty"`
	Error        string         `bson:"error,omitempty" json:"error,omitempty"`
	DurationMS   int64          `bson:"duration_ms" json:"duration_ms"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
}
