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
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// Register binds all nine workflow kinds to a worker under their public
// names. Only the main-queue worker calls this; the other queues run
// activities exclusively.
func Register(w worker.WorkflowRegistry) {
	w.RegisterWorkflowWithOptions(InitWorldCreation,
		workflow.RegisterOptions{Name: WorkflowInitWorldCreation})
	w.RegisterWorkflowWithOptions(GenerateWorldDescription,
		workflow.RegisterOptions{Name: WorkflowGenerateWorldDescription})
	w.RegisterWorkflowWithOptions(GenerateWorldImage,
		workflow.RegisterOptions{Name: WorkflowGenerateWorldImage})
	w.RegisterWorkflowWithOptions(GenerateCharacterBatch,
		workflow.RegisterOptions{Name: WorkflowGenerateCharacterBatch})
	w.RegisterWorkflowWithOptions(GenerateCharacter,
		workflow.RegisterOptions{Name: WorkflowGenerateCharacter})
	w.RegisterWorkflowWithOptions(GenerateCharacterAvatar,
		workflow.RegisterOptions{Name: WorkflowGenerateCharacterAvatar})
	w.RegisterWorkflowWithOptions(GeneratePostBatch,
		workflow.RegisterOptions{Name: WorkflowGeneratePostBatch})
	w.RegisterWorkflowWithOptions(GeneratePost,
		workflow.RegisterOptions{Name: WorkflowGeneratePost})
	w.RegisterWorkflowWithOptions(GeneratePostImage,
		workflow.RegisterOptions{Name: WorkflowGeneratePostImage})
}
