package channel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PromptExecution/flashbacker-mcp/internal/task"
)

func TestMemoryPublishAndClaim(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	tsk := task.New("qa", "run the suite")
	require.NoError(t, ms.PublishTask(ctx, "qa", tsk))

	has, err := ms.HasTask(ctx, "qa")
	require.NoError(t, err)
	assert.True(t, has)

	claimed, err := ms.TryClaimTask(ctx, "qa")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, tsk.ID, claimed.ID)

	// Slot is empty after the claim
	has, err = ms.HasTask(ctx, "qa")
	require.NoError(t, err)
	assert.False(t, has)

	again, err := ms.TryClaimTask(ctx, "qa")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestMemoryTaskOverwrite(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	first := task.New("qa", "first task")
	second := task.New("qa", "second task")

	require.NoError(t, ms.PublishTask(ctx, "qa", first))
	require.NoError(t, ms.PublishTask(ctx, "qa", second))

	// Last write wins: only the second task is retrievable
	claimed, err := ms.TryClaimTask(ctx, "qa")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, second.ID, claimed.ID)

	none, err := ms.TryClaimTask(ctx, "qa")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMemoryClaimAtomicity(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, ms.PublishTask(ctx, "qa", task.New("qa", "only one winner")))

	const claimers = 50
	var wg sync.WaitGroup
	wins := make(chan *task.Task, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := ms.TryClaimTask(ctx, "qa")
			assert.NoError(t, err)
			if claimed != nil {
				wins <- claimed
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
}

func TestMemoryResultOverwrite(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	tsk := task.New("qa", "run tests")
	first := task.NewResult("qa-001", tsk)
	first.MarkCompleted("first output")
	second := task.NewResult("qa-001", tsk)
	second.MarkCompleted("second output")

	require.NoError(t, ms.PublishResult(ctx, "qa", first))
	require.NoError(t, ms.PublishResult(ctx, "qa", second))

	got, err := ms.ReadResult(ctx, "qa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second output", got.Output)
}

func TestMemoryReadResultNonDestructive(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	r := task.NewResult("qa-001", task.New("qa", "run tests"))
	r.MarkCompleted("done")
	require.NoError(t, ms.PublishResult(ctx, "qa", r))

	for i := 0; i < 3; i++ {
		got, err := ms.ReadResult(ctx, "qa")
		require.NoError(t, err)
		require.NotNil(t, got)
	}
}

func TestMemoryReadResultAbsent(t *testing.T) {
	ms := NewMemoryStore()

	got, err := ms.ReadResult(context.Background(), "qa")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryRolesAreIndependent(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, ms.PublishTask(ctx, "qa", task.New("qa", "qa work")))
	require.NoError(t, ms.PublishTask(ctx, "security", task.New("security", "security work")))

	claimed, err := ms.TryClaimTask(ctx, "qa")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "qa", claimed.Role)

	// Claiming qa's slot leaves security's task alone
	has, err := ms.HasTask(ctx, "security")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryEmptyRole(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	assert.Error(t, ms.PublishTask(ctx, "", task.New("qa", "x")))
	_, err := ms.TryClaimTask(ctx, "")
	assert.Error(t, err)
	_, err = ms.ReadResult(ctx, "")
	assert.Error(t, err)
}

func TestMemoryClosedStore(t *testing.T) {
	ms := NewMemoryStore()
	require.NoError(t, ms.Close())

	ctx := context.Background()
	assert.Error(t, ms.PublishTask(ctx, "qa", task.New("qa", "x")))
	assert.Error(t, ms.Health(ctx))
}
