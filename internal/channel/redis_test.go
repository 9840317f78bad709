package channel

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PromptExecution/flashbacker-mcp/internal/task"
)

// setupTestStore creates a store backed by an in-process miniredis
func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return NewRedisStoreWithClient(client), mr
}

func TestNewRedisStoreEmptyAddr(t *testing.T) {
	store, err := NewRedisStore("", "", 0, 5)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	store, err := NewRedisStore("localhost:1", "", 0, 5)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestRedisPublishAndClaim(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	tsk := task.New("security", "audit auth patterns").WithPriority(8)
	require.NoError(t, store.PublishTask(ctx, "security", tsk))

	assert.True(t, mr.Exists(taskKeyPrefix+"security"))

	claimed, err := store.TryClaimTask(ctx, "security")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, tsk.ID, claimed.ID)
	assert.Equal(t, tsk.Description, claimed.Description)
	assert.Equal(t, 8, claimed.Priority)

	// The claim removed the slot in the same operation
	assert.False(t, mr.Exists(taskKeyPrefix+"security"))

	none, err := store.TryClaimTask(ctx, "security")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRedisTaskOverwrite(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	first := task.New("qa", "first")
	second := task.New("qa", "second")
	require.NoError(t, store.PublishTask(ctx, "qa", first))
	require.NoError(t, store.PublishTask(ctx, "qa", second))

	claimed, err := store.TryClaimTask(ctx, "qa")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, second.ID, claimed.ID)
}

func TestRedisHasTask(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	has, err := store.HasTask(ctx, "qa")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.PublishTask(ctx, "qa", task.New("qa", "work")))

	has, err = store.HasTask(ctx, "qa")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRedisResultRoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	tsk := task.New("qa", "run tests")
	r := task.NewResult("qa-001", tsk)
	r.MarkCompleted("all passing")

	require.NoError(t, store.PublishResult(ctx, "qa", r))

	got, err := store.ReadResult(ctx, "qa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.StatusCompleted, got.Status)
	assert.Equal(t, "all passing", got.Output)
	assert.Equal(t, tsk.Description, got.Task)
	assert.Empty(t, got.Errors)

	// Non-destructive read
	got2, err := store.ReadResult(ctx, "qa")
	require.NoError(t, err)
	require.NotNil(t, got2)
}

func TestRedisResultOverwrite(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	first := task.NewResult("qa-001", task.New("qa", "first run"))
	first.MarkCompleted("v1")
	second := task.NewResult("qa-001", task.New("qa", "second run"))
	second.MarkCompleted("v2")

	require.NoError(t, store.PublishResult(ctx, "qa", first))
	require.NoError(t, store.PublishResult(ctx, "qa", second))

	got, err := store.ReadResult(ctx, "qa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v2", got.Output)
}

func TestRedisReadResultAbsent(t *testing.T) {
	store, _ := setupTestStore(t)

	got, err := store.ReadResult(context.Background(), "qa")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisClaimAtomicity(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PublishTask(ctx, "qa", task.New("qa", "single pending task")))

	const claimers = 20
	var wg sync.WaitGroup
	wins := make(chan *task.Task, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.TryClaimTask(ctx, "qa")
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

func TestRedisEmptyRole(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.PublishTask(ctx, "", task.New("qa", "x")))
	_, err := store.TryClaimTask(ctx, "")
	assert.Error(t, err)
	_, err = store.HasTask(ctx, "")
	assert.Error(t, err)
}

func TestRedisStoreFailureSurfaces(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	mr.Close()

	err := store.PublishTask(ctx, "qa", task.New("qa", "work"))
	assert.Error(t, err)

	_, err = store.TryClaimTask(ctx, "qa")
	assert.Error(t, err)

	_, err = store.ReadResult(ctx, "qa")
	assert.Error(t, err)
}

func TestRedisHealth(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Health(ctx))

	mr.Close()
	assert.Error(t, store.Health(ctx))
}
