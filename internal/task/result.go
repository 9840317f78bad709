package task

import "time"

// Status represents the lifecycle state of a result.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Result describes the outcome of one executed task. A worker creates
// it with status processing immediately after claiming, then moves it
// to exactly one terminal status before publishing.
type Result struct {
	AgentID     string     `json:"agent_id"`
	Role        string     `json:"agent_role"`
	TaskID      string     `json:"task_id"`
	Task        string     `json:"task"`
	Status      Status     `json:"status"`
	Output      string     `json:"output,omitempty"`
	Errors      []string   `json:"errors"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewResult creates a processing result for a freshly claimed task.
// The task description is echoed for correlation by external readers.
func NewResult(agentID string, t *Task) *Result {
	return &Result{
		AgentID: agentID,
		Role:    t.Role,
		TaskID:  t.ID,
		Task:    t.Description,
		Status:  StatusProcessing,
		Errors:  []string{},
	}
}

// MarkCompleted moves the result to its successful terminal status.
func (r *Result) MarkCompleted(output string) {
	now := time.Now().UTC()
	r.Status = StatusCompleted
	r.Output = output
	r.CompletedAt = &now
}

// MarkError moves the result to its failed terminal status and
// records the failure message.
func (r *Result) MarkError(err error) {
	now := time.Now().UTC()
	r.Status = StatusError
	r.Errors = append(r.Errors, err.Error())
	r.CompletedAt = &now
}

// Terminal reports whether the result reached a terminal status.
func (r *Result) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusError
}
