package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultPriority is assigned to tasks that don't specify one.
// Higher values are more urgent.
const DefaultPriority = 5

// Task describes one unit of work delegated to a specialist role.
// It is immutable once published; the builders below are for batch
// construction only.
type Task struct {
	ID          string                 `json:"id"`
	Role        string                 `json:"agent_role"`
	Description string                 `json:"task"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Priority    int                    `json:"priority"`

	// PersonaContext is best-effort persona text attached by the
	// dispatcher at delegation time. Empty when the provider had
	// nothing for this role.
	PersonaContext string `json:"persona_context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// New creates a task for the given role with sensible defaults.
func New(role, description string) *Task {
	return &Task{
		ID:          uuid.New().String(),
		Role:        role,
		Description: description,
		Context:     make(map[string]interface{}),
		Priority:    DefaultPriority,
		CreatedAt:   time.Now().UTC(),
	}
}

// WithPriority sets the task priority.
func (t *Task) WithPriority(p int) *Task {
	t.Priority = p
	return t
}

// WithContext sets the opaque context payload.
func (t *Task) WithContext(ctx map[string]interface{}) *Task {
	t.Context = ctx
	return t
}

// Validate checks that the task can be delegated at all. Role
// membership in the roster is the dispatcher's concern, not ours.
func (t *Task) Validate() error {
	if t.Role == "" {
		return fmt.Errorf("task role cannot be empty")
	}
	if t.Description == "" {
		return fmt.Errorf("task description cannot be empty")
	}
	return nil
}
