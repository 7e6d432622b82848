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
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LogAPIRequest appends one audit record for an external API call. Audit
// failures are logged and swallowed so they never fail the calling task.
func (s *Store) LogAPIRequest(ctx context.Context, rec *APIRequestRecord) {
	release, err := s.acquire(ctx)
	if err != nil {
		s.logger.Warn("api audit skipped", "error", err)
		return
	}
	defer release()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.Collection(CollectionAPIHistory).InsertOne(ctx, rec); err != nil {
		s.logger.Warn("api audit insert failed",
			"error", fmt.Sprintf("%v", err), "api_type", rec.APIType, "task_id", rec.TaskID)
	}
}
