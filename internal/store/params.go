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
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tombee/worldforge/pkg/errors"
)

// SaveWorldParameters upserts the canonical world document keyed by world id.
// The description workflow writes it once; re-runs overwrite in place.
func (s *Store) SaveWorldParameters(ctx context.Context, params *WorldParameters) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	now := time.Now().UTC()
	if params.CreatedAt.IsZero() {
		params.CreatedAt = now
	}
	params.UpdatedAt = now

	_, err = s.db.Collection(CollectionWorldParameters).ReplaceOne(ctx,
		bson.M{"_id": params.ID}, params, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save world parameters %s: %w", params.ID, err)
	}

	s.logger.Debug("world parameters saved", "world_id", params.ID)
	return nil
}

// GetWorldParameters fetches the canonical world document.
func (s *Store) GetWorldParameters(ctx context.Context, worldID string) (*WorldParameters, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var params WorldParameters
	err = s.db.Collection(CollectionWorldParameters).FindOne(ctx, bson.M{"_id": worldID}).Decode(&params)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, &errors.NotFoundError{Resource: "world_parameters", ID: worldID}
	}
	if err != nil {
		return nil, fmt.Errorf("get world parameters %s: %w", worldID, err)
	}
	return &params, nil
}
