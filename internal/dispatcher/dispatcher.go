package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/PromptExecution/flashbacker-mcp/internal/channel"
	"github.com/PromptExecution/flashbacker-mcp/internal/logger"
	"github.com/PromptExecution/flashbacker-mcp/internal/persona"
	"github.com/PromptExecution/flashbacker-mcp/internal/task"
)

// Roster maps each known role to the specialization its worker runs.
// The dispatcher only delegates to roles that appear here.
type Roster map[string]string

// Has reports whether a role names a known worker.
func (r Roster) Has(role string) bool {
	_, ok := r[role]
	return ok
}

// Roles returns the roster's role names, sorted.
func (r Roster) Roles() []string {
	roles := make([]string, 0, len(r))
	for role := range r {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// DelegationError reports a single task that could not be delegated.
// One failed publish never aborts the rest of the batch.
type DelegationError struct {
	Task *task.Task
	Err  error
}

func (e DelegationError) Error() string {
	return fmt.Sprintf("delegation failed for role %s: %v", e.Task.Role, e.Err)
}

func (e DelegationError) Unwrap() error {
	return e.Err
}

// Dispatcher is the captain: it orders a batch by priority and
// publishes each task onto its role's channel slot, paced by a fixed
// inter-publish delay. Delegation is fire-and-forget; results are
// consumed elsewhere.
type Dispatcher struct {
	store   channel.Store
	persona persona.Provider
	roster  Roster
	delay   time.Duration
	log     *logger.Logger
}

// Config holds dispatcher configuration.
type Config struct {
	Roster       Roster
	PublishDelay time.Duration
	Persona      persona.Provider
	Logger       *logger.Logger
}

// New creates a dispatcher over the given channel store.
func New(store channel.Store, cfg Config) *Dispatcher {
	log := cfg.Logger
	if log == nil {
		log = logger.New("info", "text", "captain")
	}

	return &Dispatcher{
		store:   store,
		persona: cfg.Persona,
		roster:  cfg.Roster,
		delay:   cfg.PublishDelay,
		log:     log,
	}
}

// Delegate publishes the batch in descending priority order, ties
// broken by batch order. Each publish failure is reported per task;
// the remaining batch continues. When the context is cancelled the
// unpublished remainder is reported as failed.
//
// A role's slot holds at most one unclaimed task: publishing a second
// task for a role before its worker claims the first replaces it.
func (d *Dispatcher) Delegate(ctx context.Context, batch []*task.Task) []DelegationError {
	ordered := make([]*task.Task, len(batch))
	copy(ordered, batch)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	var failed []DelegationError

	for i, t := range ordered {
		if err := ctx.Err(); err != nil {
			for _, rest := range ordered[i:] {
				failed = append(failed, DelegationError{Task: rest, Err: err})
			}
			return failed
		}

		if err := d.publish(ctx, t); err != nil {
			d.log.Error("failed to delegate task", logger.Fields{
				"role":  t.Role,
				"task":  t.Description,
				"error": err,
			})
			failed = append(failed, DelegationError{Task: t, Err: err})
			continue
		}

		d.log.Info("task delegated", logger.Fields{
			"role":     t.Role,
			"task":     t.Description,
			"priority": t.Priority,
		})

		// Pace writes so the store isn't hit in a burst
		if i < len(ordered)-1 && d.delay > 0 {
			select {
			case <-time.After(d.delay):
			case <-ctx.Done():
			}
		}
	}

	return failed
}

func (d *Dispatcher) publish(ctx context.Context, t *task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !d.roster.Has(t.Role) {
		return fmt.Errorf("unknown role '%s'", t.Role)
	}

	if t.PersonaContext == "" {
		t.PersonaContext = persona.Fetch(ctx, d.persona, t.Role, d.log)
	}

	return d.store.PublishTask(ctx, t.Role, t)
}
