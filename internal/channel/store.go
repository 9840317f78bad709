package channel

import (
	"context"

	"github.com/PromptExecution/flashbacker-mcp/internal/task"
)

// Store is the role-keyed mailbox connecting the captain to its
// specialists. Each role owns one task slot and one result slot.
// Publishing overwrites the slot; claiming atomically empties it.
type Store interface {
	// PublishTask writes the task into its role's slot, replacing any
	// unclaimed task already there (last write wins).
	PublishTask(ctx context.Context, role string, t *task.Task) error

	// TryClaimTask atomically reads and removes the task slot for a
	// role. Returns (nil, nil) when the slot is empty. Concurrent
	// claimers observe at most one of them receiving the task.
	TryClaimTask(ctx context.Context, role string) (*task.Task, error)

	// HasTask reports whether an unclaimed task exists for the role.
	HasTask(ctx context.Context, role string) (bool, error)

	// PublishResult writes the result into its role's result slot,
	// replacing any prior result.
	PublishResult(ctx context.Context, role string, r *task.Result) error

	// ReadResult returns the most recent result for a role without
	// removing it. Returns (nil, nil) when no result exists.
	ReadResult(ctx context.Context, role string) (*task.Result, error)

	// Health checks that the backing store is reachable.
	Health(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
