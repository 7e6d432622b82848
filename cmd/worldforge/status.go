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
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/tombee/worldforge/internal/log"
	"github.com/tombee/worldforge/internal/store"
)

// statusPermit bounds the CLI's database concurrency. The CLI issues one
// query at a time; the store contract still requires a permit.
const statusPermit = 4

func newStatusCommand() *cobra.Command {
	var (
		mongoURI string
		database string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "status <world-id>",
		Short: "Show a world's generation progress and spend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			worldID := args[0]

			logger := log.New(&log.Config{
				Level:  "warn",
				Format: log.FormatText,
				Output: os.Stderr,
			})
			st, err := store.Connect(cmd.Context(), store.Options{
				URI:      mongoURI,
				Database: database,
				DBPermit: statusPermit,
			}, semaphore.NewWeighted(statusPermit), logger)
			if err != nil {
				return err
			}
			defer st.Close(cmd.Context())

			status, err := st.GetWorldStatus(cmd.Context(), worldID)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			printStatus(status)
			return nil
		},
	}

	cmd.Flags().StringVar(&mongoURI, "mongo-uri", envOr("MONGODB_URI", "mongodb://localhost:27017"), "MongoDB connection string")
	cmd.Flags().StringVar(&database, "database", envOr("MONGODB_DATABASE", "worldforge"), "MongoDB database name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw ledger document as JSON")

	return cmd
}

func printStatus(s *store.WorldGenerationStatus) {
	fmt.Printf("World:  %s\n", s.ID)
	fmt.Printf("Status: %s (current stage: %s)\n\n", s.Status, s.CurrentStage)

	fmt.Println("Stages:")
	for _, stage := range s.Stages {
		fmt.Printf("  %-18s %s\n", stage.Name, stage.Status)
	}

	fmt.Println()
	fmt.Printf("Characters: %d / %d\n", s.UsersCreated, s.UsersPredicted)
	fmt.Printf("Posts:      %d / %d\n", s.PostsCreated, s.PostsPredicted)
	fmt.Printf("LLM calls:  %d / %d\n", s.APICallsMadeLLM, s.APICallLimitsLLM)
	fmt.Printf("Images:     %d / %d\n", s.APICallsMadeImages, s.APICallLimitsImages)
	fmt.Printf("Spend:      $%.4f llm + $%.4f image = $%.4f\n",
		s.LLMCostTotal, s.ImageCostTotal, s.LLMCostTotal+s.ImageCostTotal)
}
