package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/PromptExecution/flashbacker-mcp/internal/capability"
	"github.com/PromptExecution/flashbacker-mcp/internal/channel"
	"github.com/PromptExecution/flashbacker-mcp/internal/logger"
	"github.com/PromptExecution/flashbacker-mcp/internal/persona"
	"github.com/PromptExecution/flashbacker-mcp/internal/task"
)

// State is the worker loop's current phase. The loop is only safe to
// cancel while idle; claimed tasks are drained through executing and
// publishing before the worker stops.
type State string

const (
	StateIdle       State = "idle"
	StateClaiming   State = "claiming"
	StateExecuting  State = "executing"
	StatePublishing State = "publishing"
)

// Worker owns exactly one role's channel slot. It polls for a task,
// executes it through its configured specialization, and publishes
// exactly one result per claimed task.
type Worker struct {
	id       string
	role     string
	execute  capability.ExecuteFunc
	store    channel.Store
	persona  persona.Provider
	pollFreq time.Duration
	log      *logger.Logger

	// Graceful shutdown
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	mu           sync.RWMutex
	running      bool
	state        State

	// Stats
	tasksProcessed int64
	tasksFailed    int64
	resultsDropped int64
}

// Config holds worker configuration.
type Config struct {
	ID             string
	Role           string
	Specialization string
	PollInterval   time.Duration
	Persona        persona.Provider
	Logger         *logger.Logger
}

// New creates a worker bound to one role. Unknown specializations fail
// here, at startup, never inside the loop.
func New(store channel.Store, registry *capability.Registry, cfg Config) (*Worker, error) {
	if cfg.Role == "" {
		return nil, fmt.Errorf("worker role cannot be empty")
	}

	execute, err := registry.Resolve(cfg.Specialization)
	if err != nil {
		return nil, fmt.Errorf("worker for role %s: %w", cfg.Role, err)
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.ID == "" {
		cfg.ID = cfg.Role + "-001"
	}

	log := cfg.Logger
	if log == nil {
		log = logger.New("info", "text", "specialist")
	}

	return &Worker{
		id:           cfg.ID,
		role:         cfg.Role,
		execute:      execute,
		store:        store,
		persona:      cfg.Persona,
		pollFreq:     cfg.PollInterval,
		log:          log,
		shutdownChan: make(chan struct{}),
		state:        StateIdle,
	}, nil
}

// Start begins the poll loop.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("worker %s is already running", w.id)
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("worker starting", logger.Fields{
		"worker": w.id,
		"role":   w.role,
		"poll":   w.pollFreq.String(),
	})

	w.wg.Add(1)
	go w.run(ctx)

	return nil
}

// run is the main poll loop. Cancellation is observed at the idle tick
// boundary; a claimed task always finishes its executing and
// publishing phases first.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.state = StateIdle
		w.mu.Unlock()
	}()

	ticker := time.NewTicker(w.pollFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("context cancelled, worker stopping", logger.Fields{"worker": w.id})
			return
		case <-w.shutdownChan:
			w.log.Info("shutdown signal received", logger.Fields{"worker": w.id})
			return
		case <-ticker.C:
			w.pollOnce(ctx)
		}
	}
}

// pollOnce runs one idle->claiming->executing->publishing->idle cycle.
// No task means the cycle ends immediately in idle.
func (w *Worker) pollOnce(ctx context.Context) {
	t, err := w.store.TryClaimTask(ctx, w.role)
	if err != nil {
		// Store failure: log and retry on the next tick
		w.log.Error("failed to claim task", logger.Fields{
			"worker": w.id,
			"error":  err,
		})
		return
	}
	if t == nil {
		return
	}

	w.setState(StateClaiming)
	w.log.Info("claimed task", logger.Fields{
		"worker": w.id,
		"task":   t.Description,
	})

	result := task.NewResult(w.id, t)

	w.setState(StateExecuting)
	output, execErr := w.runCapability(ctx, t)
	if execErr != nil {
		result.MarkError(execErr)
		w.log.Error("task execution failed", logger.Fields{
			"worker": w.id,
			"task":   t.Description,
			"error":  execErr,
		})
	} else {
		result.MarkCompleted(output)
	}

	w.setState(StatePublishing)
	if err := w.publishResult(ctx, result); err == nil {
		w.log.Info("result published", logger.Fields{
			"worker": w.id,
			"task":   t.Description,
			"status": string(result.Status),
		})
	}

	w.mu.Lock()
	if execErr != nil {
		w.tasksFailed++
	} else {
		w.tasksProcessed++
	}
	w.mu.Unlock()

	w.setState(StateIdle)
}

// runCapability invokes the specialization. Panics are recovered into
// errors so a misbehaving capability can never kill the loop.
func (w *Worker) runCapability(ctx context.Context, t *task.Task) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("execution panicked: %v", r)
		}
	}()

	// Prefer the persona the captain attached; fall back to our own
	// best-effort lookup.
	personaText := t.PersonaContext
	if personaText == "" {
		personaText = persona.Fetch(ctx, w.persona, w.role, w.log)
	}

	return w.execute(ctx, capability.Request{
		Role:        w.role,
		Description: t.Description,
		Context:     t.Context,
		Persona:     personaText,
	})
}

// publishResult writes the result, retrying at the poll interval on
// store failure. A claimed task's result is never discarded while the
// worker is running; during shutdown one final drain attempt is made
// before giving up.
func (w *Worker) publishResult(ctx context.Context, r *task.Result) error {
	for {
		err := w.store.PublishResult(ctx, r.Role, r)
		if err == nil {
			return nil
		}

		w.log.Error("failed to publish result, retrying", logger.Fields{
			"worker": w.id,
			"task":   r.Task,
			"error":  err,
		})

		select {
		case <-time.After(w.pollFreq):
		case <-w.shutdownChan:
			return w.drainPublish(r)
		case <-ctx.Done():
			return w.drainPublish(r)
		}
	}
}

// drainPublish is the last publish attempt once shutdown is underway.
// The caller's context may already be cancelled, so a fresh bounded
// one is used.
func (w *Worker) drainPublish(r *task.Result) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.store.PublishResult(ctx, r.Role, r); err != nil {
		w.mu.Lock()
		w.resultsDropped++
		w.mu.Unlock()
		w.log.Error("result dropped during shutdown", logger.Fields{
			"worker": w.id,
			"task":   r.Task,
			"error":  err,
		})
		return err
	}
	return nil
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// State returns the loop's current phase.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Stop gracefully stops the worker, waiting for any in-flight task to
// drain.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("worker %s is not running", w.id)
	}
	w.running = false
	w.mu.Unlock()

	close(w.shutdownChan)
	w.wg.Wait()

	w.log.Info("worker stopped", logger.Fields{"worker": w.id})
	return nil
}

// IsRunning returns whether the worker loop is active.
func (w *Worker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Stats returns the processed, failed, and dropped counters.
func (w *Worker) Stats() (processed, failed, dropped int64) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tasksProcessed, w.tasksFailed, w.resultsDropped
}

// ID returns the worker's identifier.
func (w *Worker) ID() string {
	return w.id
}

// Role returns the role this worker owns.
func (w *Worker) Role() string {
	return w.role
}

// WaitForShutdown blocks until SIGTERM or SIGINT, then stops the
// worker.
func (w *Worker) WaitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	w.log.Info("received signal", logger.Fields{
		"worker": w.id,
		"signal": sig.String(),
	})

	if err := w.Stop(); err != nil {
		w.log.Error("error during shutdown", logger.Fields{
			"worker": w.id,
			"error":  err,
		})
	}
}
