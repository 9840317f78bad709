package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PromptExecution/flashbacker-mcp/internal/capability"
	"github.com/PromptExecution/flashbacker-mcp/internal/channel"
	"github.com/PromptExecution/flashbacker-mcp/internal/logger"
	"github.com/PromptExecution/flashbacker-mcp/internal/persona"
)

// Hive runs one worker per roster entry inside a single process. The
// set is fixed at construction; each role still owns its own slot and
// its own loop.
type Hive struct {
	workers map[string]*Worker
	log     *logger.Logger

	mu      sync.Mutex
	started bool

	ctx        context.Context
	cancelFunc context.CancelFunc

	shutdownTimeout time.Duration
}

// HiveConfig holds configuration for a full roster of specialists.
type HiveConfig struct {
	// Roster maps role to specialization.
	Roster map[string]string

	PollInterval    time.Duration
	ShutdownTimeout time.Duration
	Persona         persona.Provider
	Logger          *logger.Logger
}

// HiveStats aggregates counters across all workers.
type HiveStats struct {
	Processed int64
	Failed    int64
	Dropped   int64
}

// NewHive constructs the roster's workers. Any bad roster entry fails
// the whole hive at startup.
func NewHive(store channel.Store, registry *capability.Registry, cfg HiveConfig) (*Hive, error) {
	if len(cfg.Roster) == 0 {
		return nil, fmt.Errorf("hive roster cannot be empty")
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logger.New("info", "text", "hive")
	}

	workers := make(map[string]*Worker, len(cfg.Roster))
	for role, specialization := range cfg.Roster {
		w, err := New(store, registry, Config{
			Role:           role,
			Specialization: specialization,
			PollInterval:   cfg.PollInterval,
			Persona:        cfg.Persona,
			Logger:         log.WithComponent(role),
		})
		if err != nil {
			return nil, err
		}
		workers[role] = w
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Hive{
		workers:         workers,
		log:             log,
		ctx:             ctx,
		cancelFunc:      cancel,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Start launches every worker loop.
func (h *Hive) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return fmt.Errorf("hive is already running")
	}

	for role, w := range h.workers {
		if err := w.Start(h.ctx); err != nil {
			return fmt.Errorf("failed to start worker for role %s: %w", role, err)
		}
	}
	h.started = true

	h.log.Info("hive started", logger.Fields{"workers": len(h.workers)})
	return nil
}

// Shutdown stops all workers, letting each drain its in-flight task.
// The ctx and the hive's own shutdown timeout both bound the wait.
func (h *Hive) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return fmt.Errorf("hive is not running")
	}
	h.started = false
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, w := range h.workers {
			wg.Add(1)
			go func(w *Worker) {
				defer wg.Done()
				if err := w.Stop(); err != nil {
					h.log.Error("worker stop failed", logger.Fields{
						"worker": w.ID(),
						"error":  err,
					})
				}
			}(w)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hive stopped")
		return nil
	case <-time.After(h.shutdownTimeout):
		h.cancelFunc()
		return fmt.Errorf("hive shutdown timed out after %v", h.shutdownTimeout)
	case <-ctx.Done():
		h.cancelFunc()
		return ctx.Err()
	}
}

// Worker returns the worker owning a role, nil when absent.
func (h *Hive) Worker(role string) *Worker {
	return h.workers[role]
}

// Stats aggregates counters across the hive.
func (h *Hive) Stats() HiveStats {
	var stats HiveStats
	for _, w := range h.workers {
		processed, failed, dropped := w.Stats()
		stats.Processed += processed
		stats.Failed += failed
		stats.Dropped += dropped
	}
	return stats
}
