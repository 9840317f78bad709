package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/PromptExecution/flashbacker-mcp/internal/task"
)

// MemoryStore implements Store with mutex-guarded maps. The contract
// is storage-agnostic, so an in-process map works for tests and for
// single-process runs where captain and specialists share memory.
type MemoryStore struct {
	mu      sync.Mutex
	tasks   map[string]*task.Task
	results map[string]*task.Result
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:   make(map[string]*task.Task),
		results: make(map[string]*task.Result),
	}
}

// PublishTask overwrites the role's task slot.
func (ms *MemoryStore) PublishTask(ctx context.Context, role string, t *task.Task) error {
	if role == "" {
		return fmt.Errorf("role cannot be empty")
	}
	if t == nil {
		return fmt.Errorf("task cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.closed {
		return fmt.Errorf("store is closed")
	}
	ms.tasks[role] = t
	return nil
}

// TryClaimTask removes and returns the pending task for a role under
// the store lock, so concurrent claimers see it at most once.
func (ms *MemoryStore) TryClaimTask(ctx context.Context, role string) (*task.Task, error) {
	if role == "" {
		return nil, fmt.Errorf("role cannot be empty")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.closed {
		return nil, fmt.Errorf("store is closed")
	}

	t, ok := ms.tasks[role]
	if !ok {
		return nil, nil
	}
	delete(ms.tasks, role)
	return t, nil
}

// HasTask reports whether an unclaimed task exists for the role.
func (ms *MemoryStore) HasTask(ctx context.Context, role string) (bool, error) {
	if role == "" {
		return false, fmt.Errorf("role cannot be empty")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	_, ok := ms.tasks[role]
	return ok, nil
}

// PublishResult overwrites the role's result slot.
func (ms *MemoryStore) PublishResult(ctx context.Context, role string, r *task.Result) error {
	if role == "" {
		return fmt.Errorf("role cannot be empty")
	}
	if r == nil {
		return fmt.Errorf("result cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.closed {
		return fmt.Errorf("store is closed")
	}
	ms.results[role] = r
	return nil
}

// ReadResult returns the most recent result for a role, or (nil, nil).
func (ms *MemoryStore) ReadResult(ctx context.Context, role string) (*task.Result, error) {
	if role == "" {
		return nil, fmt.Errorf("role cannot be empty")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	r, ok := ms.results[role]
	if !ok {
		return nil, nil
	}
	return r, nil
}

// Health always succeeds for an open in-memory store.
func (ms *MemoryStore) Health(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}

// Close marks the store closed; further writes fail.
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.closed = true
	return nil
}
