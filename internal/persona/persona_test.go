package persona

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PromptExecution/flashbacker-mcp/internal/logger"
)

type failingProvider struct{}

func (failingProvider) Context(_ context.Context, _ string) (string, error) {
	return "", errors.New("provider unavailable")
}

func TestStaticProvider(t *testing.T) {
	p := Static{"qa": "meticulous test engineer"}

	text, err := p.Context(context.Background(), "qa")
	require.NoError(t, err)
	assert.Equal(t, "meticulous test engineer", text)

	text, err = p.Context(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestFetchBestEffort(t *testing.T) {
	log := logger.New("error", "text", "test")

	// Provider failure yields empty string, never an error
	text := Fetch(context.Background(), failingProvider{}, "qa", log)
	assert.Empty(t, text)

	// Nil provider is fine too
	text = Fetch(context.Background(), nil, "qa", log)
	assert.Empty(t, text)

	// Working provider passes through
	text = Fetch(context.Background(), Static{"qa": "persona text"}, "qa", log)
	assert.Equal(t, "persona text", text)
}

func TestExecProviderMissingBinary(t *testing.T) {
	p := NewExecProvider("definitely-not-a-real-binary-xyz", time.Second)

	_, err := p.Context(context.Background(), "qa")
	assert.Error(t, err)
}

func TestExecProviderEmptyRole(t *testing.T) {
	p := NewExecProvider("flashback", time.Second)

	_, err := p.Context(context.Background(), "")
	assert.Error(t, err)
}

func TestNewExecProviderDefaults(t *testing.T) {
	p := NewExecProvider("", 0)
	assert.Equal(t, "flashback", p.Bin)
	assert.Equal(t, 30*time.Second, p.Timeout)
}
