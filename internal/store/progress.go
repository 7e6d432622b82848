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

package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tombee/worldforge/pkg/errors"
)

// InitializeWorld creates the per-world ledger document with the stage list
// in its initial state: INITIALIZING in progress, everything else pending.
// Fails with DuplicateError if the world already has a ledger.
func (s *Store) InitializeWorld(ctx context.Context, worldID string, usersPredicted, postsPredicted int, userPrompt string, llmLimit, imagesLimit int) (*WorldGenerationStatus, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now().UTC()
	stages := make([]StageInfo, len(StageOrder))
	for i, name := range StageOrder {
		status := StatusPending
		if name == StageInitializing {
			status = StatusInProgress
		}
		stages[i] = StageInfo{Name: name, Status: status}
	}

	doc := &WorldGenerationStatus{
		ID:                  worldID,
		Status:              StatusInProgress,
		CurrentStage:        StageInitializing,
		Stages:              stages,
		UsersPredicted:      usersPredicted,
		PostsPredicted:      postsPredicted,
		APICallLimitsLLM:    llmLimit,
		APICallLimitsImages: imagesLimit,
		Parameters: map[string]any{
			"user_prompt": userPrompt,
			"users_count": usersPredicted,
			"posts_count": postsPredicted,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Collection(CollectionGenerationState).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, &errors.DuplicateError{Resource: "world_generation_status", ID: worldID}
	}
	if err != nil {
		return nil, fmt.Errorf("initialize world %s: %w", worldID, err)
	}

	s.logger.Info("world ledger initialized", "world_id", worldID,
		"users_predicted", usersPredicted, "posts_predicted", postsPredicted)
	return doc, nil
}

// GetWorldStatus fetches the ledger for a world.
func (s *Store) GetWorldStatus(ctx context.Context, worldID string) (*WorldGenerationStatus, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var doc WorldGenerationStatus
	err = s.db.Collection(CollectionGenerationState).FindOne(ctx, bson.M{"_id": worldID}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, &errors.NotFoundError{Resource: "world_generation_status", ID: worldID}
	}
	if err != nil {
		return nil, fmt.Errorf("get world status %s: %w", worldID, err)
	}
	return &doc, nil
}

// UpdateStage transitions one stage and rewrites the derived overall
// status. current_stage tracks the transitioned stage only while the world
// remains in progress.
func (s *Store) UpdateStage(ctx context.Context, worldID, stage, status string) (*WorldGenerationStatus, error) {
	doc, err := s.GetWorldStatus(ctx, worldID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range doc.Stages {
		if doc.Stages[i].Name == stage {
			doc.Stages[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return nil, &errors.ValidationError{Field: "stage", Message: fmt.Sprintf("unknown stage %q", stage)}
	}

	overall := DeriveOverall(doc.Stages)

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	set := bson.M{
		"stages":     doc.Stages,
		"status":     overall,
		"updated_at": time.Now().UTC(),
	}
	if overall == StatusInProgress {
		set["current_stage"] = stage
		doc.CurrentStage = stage
	}
	doc.Status = overall

	_, err = s.db.Collection(CollectionGenerationState).UpdateOne(ctx, bson.M{"_id": worldID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("update stage %s/%s: %w", worldID, stage, err)
	}

	s.logger.Debug("stage updated", "world_id", worldID, "stage", stage,
		"stage_status", status, "overall", overall)
	return doc, nil
}

// DeriveOverall computes the overall world status from its stages: FAILED
// if any stage failed, COMPLETED iff all completed, IN_PROGRESS otherwise.
func DeriveOverall(stages []StageInfo) string {
	allCompleted := len(stages) > 0
	for _, st := range stages {
		if st.Status == StatusFailed {
			return StatusFailed
		}
		if st.Status != StatusCompleted {
			allCompleted = false
		}
	}
	if allCompleted {
		return StatusCompleted
	}
	return StatusInProgress
}

// IncrementCounter atomically increments a whitelisted ledger counter.
func (s *Store) IncrementCounter(ctx context.Context, worldID, field string, delta int) error {
	if !CounterWhitelist[field] {
		return &errors.ValidationError{Field: "field", Message: fmt.Sprintf("counter %q is not incrementable", field)}
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	_, err = s.db.Collection(CollectionGenerationState).UpdateOne(ctx,
		bson.M{"_id": worldID},
		bson.M{
			"$inc": bson.M{field: delta},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return fmt.Errorf("increment %s for world %s: %w", field, worldID, err)
	}
	return nil
}

// IncrementCost atomically adds spend to a cost field.
func (s *Store) IncrementCost(ctx context.Context, worldID, costType string, cost float64) error {
	field, ok := CostFields[costType]
	if !ok {
		return &errors.ValidationError{Field: "cost_type", Message: fmt.Sprintf("unknown cost type %q", costType)}
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	_, err = s.db.Collection(CollectionGenerationState).UpdateOne(ctx,
		bson.M{"_id": worldID},
		bson.M{
			"$inc": bson.M{field: cost},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return fmt.Errorf("increment %s cost for world %s: %w", costType, worldID, err)
	}
	return nil
}

// UpdateProgress applies a generic multi-field $set with timestamp.
func (s *Store) UpdateProgress(ctx context.Context, worldID string, updates map[string]any) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range updates {
		set[k] = v
	}

	_, err = s.db.Collection(CollectionGenerationState).UpdateOne(ctx,
		bson.M{"_id": worldID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update progress for world %s: %w", worldID, err)
	}
	return nil
}
