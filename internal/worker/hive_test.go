package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PromptExecution/flashbacker-mcp/internal/capability"
	"github.com/PromptExecution/flashbacker-mcp/internal/channel"
	"github.com/PromptExecution/flashbacker-mcp/internal/dispatcher"
	"github.com/PromptExecution/flashbacker-mcp/internal/task"
)

func TestNewHiveEmptyRoster(t *testing.T) {
	h, err := NewHive(channel.NewMemoryStore(), capability.Builtin(), HiveConfig{})
	assert.Error(t, err)
	assert.Nil(t, h)
}

func TestNewHiveUnknownSpecialization(t *testing.T) {
	h, err := NewHive(channel.NewMemoryStore(), capability.Builtin(), HiveConfig{
		Roster: map[string]string{"qa": "not-a-specialization"},
	})
	assert.Error(t, err)
	assert.Nil(t, h)
}

func TestHiveShutdownWhenNotRunning(t *testing.T) {
	h, err := NewHive(channel.NewMemoryStore(), capability.Builtin(), HiveConfig{
		Roster:       map[string]string{"qa": "testing"},
		PollInterval: testPoll,
	})
	require.NoError(t, err)

	assert.Error(t, h.Shutdown(context.Background()))
}

func TestHiveDoubleStart(t *testing.T) {
	h, err := NewHive(channel.NewMemoryStore(), capability.Builtin(), HiveConfig{
		Roster:       map[string]string{"qa": "testing"},
		PollInterval: testPoll,
	})
	require.NoError(t, err)

	require.NoError(t, h.Start())
	assert.Error(t, h.Start())

	require.NoError(t, h.Shutdown(context.Background()))
}

// Full delegation round trip: captain delegates to two roles, each
// hive worker independently claims, executes, and publishes, and both
// results are retrievable with no interference.
func TestHiveEndToEnd(t *testing.T) {
	store := channel.NewMemoryStore()
	ctx := context.Background()

	roster := dispatcher.Roster{
		"qa":       "testing",
		"security": "security-audit",
	}

	h, err := NewHive(store, capability.Builtin(), HiveConfig{
		Roster:       roster,
		PollInterval: testPoll,
		Logger:       testLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, h.Start())

	d := dispatcher.New(store, dispatcher.Config{
		Roster: roster,
		Logger: testLogger(),
	})

	batch := []*task.Task{
		task.New("qa", "Create integration test suite").WithPriority(6).
			WithContext(map[string]interface{}{"framework": "cargo test"}),
		task.New("security", "Audit password hashing").WithPriority(8).
			WithContext(map[string]interface{}{
				"target":      "crates/customer",
				"focus_areas": []string{"password_hashing"},
			}),
	}

	failed := d.Delegate(ctx, batch)
	require.Empty(t, failed)

	for _, tsk := range batch {
		tsk := tsk
		require.Eventually(t, func() bool {
			r, err := store.ReadResult(ctx, tsk.Role)
			return err == nil && r != nil && r.Status == task.StatusCompleted
		}, 3*time.Second, 5*time.Millisecond, "no completed result for role %s", tsk.Role)
	}

	qaResult, err := store.ReadResult(ctx, "qa")
	require.NoError(t, err)
	assert.Equal(t, "Create integration test suite", qaResult.Task)
	assert.Contains(t, qaResult.Output, "cargo test")

	secResult, err := store.ReadResult(ctx, "security")
	require.NoError(t, err)
	assert.Equal(t, "Audit password hashing", secResult.Task)
	assert.Contains(t, secResult.Output, "crates/customer")

	require.NoError(t, h.Shutdown(ctx))

	stats := h.Stats()
	assert.Equal(t, int64(2), stats.Processed)
	assert.Equal(t, int64(0), stats.Failed)
	assert.Equal(t, int64(0), stats.Dropped)
}

func TestHiveWorkerAccessor(t *testing.T) {
	h, err := NewHive(channel.NewMemoryStore(), capability.Builtin(), HiveConfig{
		Roster:       map[string]string{"qa": "testing"},
		PollInterval: testPoll,
	})
	require.NoError(t, err)

	assert.NotNil(t, h.Worker("qa"))
	assert.Nil(t, h.Worker("security"))
}
