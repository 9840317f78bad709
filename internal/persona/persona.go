package persona

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/PromptExecution/flashbacker-mcp/internal/logger"
)

// Provider supplies persona context text for a role. Lookups are
// best-effort: callers go through Fetch, which never fails the task.
type Provider interface {
	Context(ctx context.Context, role string) (string, error)
}

// ExecProvider shells out to the flashback CLI:
//
//	flashback persona <role> --context
type ExecProvider struct {
	Bin     string
	Timeout time.Duration
}

// NewExecProvider creates a provider backed by the flashback binary.
func NewExecProvider(bin string, timeout time.Duration) *ExecProvider {
	if bin == "" {
		bin = "flashback"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExecProvider{Bin: bin, Timeout: timeout}
}

// Context runs the persona lookup with a bounded timeout.
func (p *ExecProvider) Context(ctx context.Context, role string) (string, error) {
	if role == "" {
		return "", fmt.Errorf("role cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Bin, "persona", role, "--context")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("persona lookup for %s failed: %w", role, err)
	}
	return strings.TrimSpace(out.String()), nil
}

// Static is a fixed role-to-persona mapping, for tests and local runs
// without the flashback CLI.
type Static map[string]string

// Context returns the mapped persona text, empty when unmapped.
func (s Static) Context(_ context.Context, role string) (string, error) {
	return s[role], nil
}

// Fetch resolves persona context without ever failing the caller.
// Absence or provider failure yields an empty string; failures are
// logged at warn level.
func Fetch(ctx context.Context, p Provider, role string, log *logger.Logger) string {
	if p == nil {
		return ""
	}

	text, err := p.Context(ctx, role)
	if err != nil {
		if log != nil {
			log.Warn("persona context not available", logger.Fields{
				"role":  role,
				"error": err,
			})
		}
		return ""
	}
	return text
}
