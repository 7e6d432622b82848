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

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/tombee/worldforge/internal/config"
	"github.com/tombee/worldforge/internal/store"
	"github.com/tombee/worldforge/internal/workflows"
)

func newGenerateCommand() *cobra.Command {
	var (
		worldID    string
		worldName  string
		prompt     string
		characters int
		posts      int
		llmLimit   int
		imageLimit int
		hostPort   string
		namespace  string
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Start generating a new world",
		Long: `Start the world creation workflow on the cluster.

The command returns as soon as the root workflow has fanned out; the rest
of the generation runs as detached workflows on the workers. Use --wait to
block until the root workflow itself completes, and "worldforge status" to
follow overall progress.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt == "" {
				return fmt.Errorf("--prompt is required")
			}
			if worldID == "" {
				worldID = uuid.NewString()
			}

			tc, err := client.Dial(client.Options{
				HostPort:  hostPort,
				Namespace: namespace,
			})
			if err != nil {
				return fmt.Errorf("dial temporal at %s: %w", hostPort, err)
			}
			defer tc.Close()

			run, err := tc.ExecuteWorkflow(cmd.Context(), client.StartWorkflowOptions{
				ID:                       "init-world-" + worldID,
				TaskQueue:                workflows.QueueMain,
				WorkflowExecutionTimeout: 30 * time.Minute,
				WorkflowRunTimeout:       30 * time.Minute,
				WorkflowTaskTimeout:      5 * time.Minute,
			}, workflows.WorkflowInitWorldCreation, workflows.InitWorldCreationInput{
				WorldID:         worldID,
				WorldName:       worldName,
				WorldPrompt:     prompt,
				CharactersCount: characters,
				PostsCount:      posts,
				LLMCallLimit:    llmLimit,
				ImageCallLimit:  imageLimit,
			})
			if err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}

			fmt.Printf("World:    %s\n", worldID)
			fmt.Printf("Workflow: %s\n", run.GetID())
			fmt.Printf("Run:      %s\n", run.GetRunID())

			if !wait {
				return nil
			}

			var result workflows.WorkflowResult
			if err := run.Get(cmd.Context(), &result); err != nil {
				return fmt.Errorf("workflow failed: %w", err)
			}
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&worldID, "world-id", "", "World id (default: a new uuid)")
	cmd.Flags().StringVar(&worldName, "name", "", "Display name for the world")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "World prompt (required)")
	cmd.Flags().IntVar(&characters, "characters", store.DefaultUsersCount, "Number of characters to generate")
	cmd.Flags().IntVar(&posts, "posts", store.DefaultPostsCount, "Total number of posts to generate")
	cmd.Flags().IntVar(&llmLimit, "llm-limit", store.DefaultLLMCallLimit, "LLM API call budget for this world")
	cmd.Flags().IntVar(&imageLimit, "image-limit", store.DefaultImageCallLimit, "Image API call budget for this world")
	cmd.Flags().StringVar(&hostPort, "temporal", envOr("TEMPORAL_HOSTPORT", config.DefaultTemporalHostPort), "Temporal frontend host:port")
	cmd.Flags().StringVar(&namespace, "namespace", envOr("TEMPORAL_NAMESPACE", config.DefaultTemporalNamespace), "Temporal namespace")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the root workflow to complete")

	return cmd
}
