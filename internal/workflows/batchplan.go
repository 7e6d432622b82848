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
	"fmt"
	"math"

	"github.com/tombee/worldforge/internal/schemas"
)

// Batch sizing constants. The slice size is the primary brake on workflow
// history growth; the depth caps are a safety net against runaway
// recursion when the model keeps underproducing.
const (
	MaxCharactersPerBatch      = 10
	MaxCharacterRecursionDepth = 50
	MaxPostsPerBatch           = 10
	MaxPostRecursionDepth      = 30

	// batchDivisor sizes the depth allowance: one level per ~8 items
	// plus one spare covers normal underproduction.
	batchDivisor = 8
)

// MaxAllowedDepth bounds the recursion for a total workload of n items.
func MaxAllowedDepth(total, cap int) int {
	depth := (total+batchDivisor-1)/batchDivisor + 1
	if depth > cap {
		depth = cap
	}
	return depth
}

// PostsShareForBatch computes the post budget of one character sub-batch:
// the proportional share of the remaining posts, never less than one post
// per character in the batch.
func PostsShareForBatch(remainingPosts, batchSize, usersCount int) int {
	if usersCount <= 0 || batchSize <= 0 {
		return 0
	}
	share := int(math.Round(float64(remainingPosts) * float64(batchSize) / float64(usersCount)))
	if share < batchSize {
		share = batchSize
	}
	return share
}

// NormalizePostCounts rescales the per-character post weights so that each
// character gets at least one post and the counts sum to total. Equal
// weights degrade to a uniform split; the remainder after flooring goes to
// the heaviest characters first.
func NormalizePostCounts(weights []int, total int) []int {
	n := len(weights)
	if n == 0 {
		return nil
	}
	weights = append([]int(nil), weights...)
	counts := make([]int, n)
	if total <= n {
		// Not enough budget for proportionality, everyone gets the floor.
		for i := range counts {
			counts[i] = 1
		}
		return counts
	}

	sum := 0
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}

	// Distribute total-n on top of the guaranteed one per character.
	spare := total - n
	if sum == 0 {
		for i := range counts {
			counts[i] = 1 + spare/n
		}
		for i := 0; i < spare%n; i++ {
			counts[i]++
		}
		return counts
	}

	assigned := 0
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		extra := spare * w / sum
		counts[i] = 1 + extra
		assigned += extra
	}

	// Hand the flooring remainder to the largest weights.
	for rest := spare - assigned; rest > 0; rest-- {
		best := 0
		for i := 1; i < n; i++ {
			if weights[i] > weights[best] {
				best = i
			}
		}
		counts[best]++
		// Damp the winner so ties rotate instead of stacking.
		weights[best]--
	}
	return counts
}

// TrimCharacters keeps at most target characters. Underproduction is
// accepted as-is; the continuation batch makes up the difference.
func TrimCharacters(chars []schemas.CharacterConcept, target int) []schemas.CharacterConcept {
	if len(chars) > target {
		return chars[:target]
	}
	return chars
}

// AdjustPosts forces the concept list to exactly target entries. Excess is
// truncated; a shortfall is padded by cyclically duplicating existing
// concepts with a variant marker, or by synthesized fillers when the model
// returned nothing usable.
func AdjustPosts(posts []schemas.PostConcept, target int) []schemas.PostConcept {
	if len(posts) >= target {
		return posts[:target]
	}

	out := make([]schemas.PostConcept, len(posts), target)
	copy(out, posts)
	for i := 0; len(out) < target; i++ {
		if len(posts) == 0 {
			out = append(out, schemas.PostConcept{
				Topic:                fmt.Sprintf("General topic %d", i+1),
				ContentBrief:         fmt.Sprintf("A post about daily life or thoughts %d", i+1),
				EmotionalTone:        "neutral",
				PostType:             "personal",
				RelevanceToCharacter: "Reflects the character's everyday experiences",
			})
			continue
		}
		dup := posts[i%len(posts)]
		dup.Topic = fmt.Sprintf("%s (variant %d)", dup.Topic, i+1)
		dup.ContentBrief = fmt.Sprintf("%s (variation %d)", dup.ContentBrief, i+1)
		out = append(out, dup)
	}
	return out
}

// NextRemainingPosts computes the post budget carried into the next
// character sub-batch: what was not allocated here, raised when needed so
// every future character can still get at least one post.
func NextRemainingPosts(remainingPosts, allocated, remainingUsers int) int {
	next := remainingPosts - allocated
	if next < remainingUsers {
		next = remainingUsers
	}
	return next
}
