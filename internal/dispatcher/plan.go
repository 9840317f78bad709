package dispatcher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PromptExecution/flashbacker-mcp/internal/task"
)

// planFile is the YAML shape of a delegation plan:
//
//	tasks:
//	  - role: architect
//	    description: Review Cargo workspace structure
//	    priority: 10
//	    context:
//	      workspace_path: commercerack-rust
type planFile struct {
	Tasks []planTask `yaml:"tasks"`
}

type planTask struct {
	Role        string                 `yaml:"role"`
	Description string                 `yaml:"description"`
	Priority    *int                   `yaml:"priority"`
	Context     map[string]interface{} `yaml:"context"`
}

// LoadPlan reads a YAML delegation plan into a task batch. Batch order
// is preserved so it can break priority ties downstream.
func LoadPlan(path string) ([]*task.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}

	var plan planFile
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if len(plan.Tasks) == 0 {
		return nil, fmt.Errorf("plan contains no tasks")
	}

	batch := make([]*task.Task, 0, len(plan.Tasks))
	for i, entry := range plan.Tasks {
		t := task.New(entry.Role, entry.Description)
		if entry.Priority != nil {
			t.WithPriority(*entry.Priority)
		}
		if entry.Context != nil {
			t.WithContext(entry.Context)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("plan task %d invalid: %w", i+1, err)
		}
		batch = append(batch, t)
	}
	return batch, nil
}
