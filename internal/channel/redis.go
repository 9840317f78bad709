package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PromptExecution/flashbacker-mcp/internal/task"
)

const (
	// Redis key prefixes for the per-role slots
	taskKeyPrefix   = "hive:task:"
	resultKeyPrefix = "hive:result:"
)

// RedisStore implements Store on a Redis backend. Task claim relies
// on GETDEL so the read-and-remove is a single server-side operation.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store with connection pooling
// and verifies connectivity before returning.
func NewRedisStore(addr, password string, db, poolSize int) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     poolSize,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client. The caller keeps
// ownership of the client lifecycle.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// PublishTask overwrites the role's task slot.
func (rs *RedisStore) PublishTask(ctx context.Context, role string, t *task.Task) error {
	if role == "" {
		return fmt.Errorf("role cannot be empty")
	}
	if t == nil {
		return fmt.Errorf("task cannot be nil")
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := rs.client.Set(ctx, taskKeyPrefix+role, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to publish task for role %s: %w", role, err)
	}
	return nil
}

// TryClaimTask atomically removes and returns the pending task for a
// role, or (nil, nil) when the slot is empty.
func (rs *RedisStore) TryClaimTask(ctx context.Context, role string) (*task.Task, error) {
	if role == "" {
		return nil, fmt.Errorf("role cannot be empty")
	}

	data, err := rs.client.GetDel(ctx, taskKeyPrefix+role).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim task for role %s: %w", role, err)
	}

	var t task.Task
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &t, nil
}

// HasTask reports whether an unclaimed task exists for the role.
func (rs *RedisStore) HasTask(ctx context.Context, role string) (bool, error) {
	if role == "" {
		return false, fmt.Errorf("role cannot be empty")
	}

	n, err := rs.client.Exists(ctx, taskKeyPrefix+role).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check task for role %s: %w", role, err)
	}
	return n > 0, nil
}

// PublishResult overwrites the role's result slot.
func (rs *RedisStore) PublishResult(ctx context.Context, role string, r *task.Result) error {
	if role == "" {
		return fmt.Errorf("role cannot be empty")
	}
	if r == nil {
		return fmt.Errorf("result cannot be nil")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := rs.client.Set(ctx, resultKeyPrefix+role, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to publish result for role %s: %w", role, err)
	}
	return nil
}

// ReadResult returns the most recent result for a role without
// consuming it, or (nil, nil) when none exists.
func (rs *RedisStore) ReadResult(ctx context.Context, role string) (*task.Result, error) {
	if role == "" {
		return nil, fmt.Errorf("role cannot be empty")
	}

	data, err := rs.client.Get(ctx, resultKeyPrefix+role).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result for role %s: %w", role, err)
	}

	var r task.Result
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &r, nil
}

// Health checks if the store is reachable.
func (rs *RedisStore) Health(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (rs *RedisStore) Close() error {
	if rs.client != nil {
		return rs.client.Close()
	}
	return nil
}
