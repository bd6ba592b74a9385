package llm

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hejaii/BidGenerate/internal/cache"
)

// fakeClient scripts per-model responses and records every call
type fakeClient struct {
	mu        sync.Mutex
	responses map[string]string
	errors    map[string]error
	calls     []string
}

func (f *fakeClient) GenerateContent(_ context.Context, model, _ string, _ Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, model)
	if err, ok := f.errors[model]; ok {
		return "", err
	}
	if text, ok := f.responses[model]; ok {
		return text, nil
	}
	return "", fmt.Errorf("no script for model %s", model)
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestOrchestrator(t *testing.T, client Client, endpoints []string) *Orchestrator {
	t.Helper()
	store, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	return NewOrchestrator(client, store, OrchestratorConfig{
		Endpoints: endpoints,
		Backoff:   time.Millisecond,
	})
}

func TestGenerate_FirstEndpointSucceeds(t *testing.T) {
	client := &fakeClient{responses: map[string]string{"m1": "hello"}}
	orch := newTestOrchestrator(t, client, []string{"m1", "m2"})

	text, err := orch.Generate(context.Background(), "prompt", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, []string{"m1"}, client.calls)
}

func TestGenerate_RotatesOnTransientFailure(t *testing.T) {
	client := &fakeClient{
		errors:    map[string]error{"m1": &TransientError{Message: "rate limit"}},
		responses: map[string]string{"m2": "from m2"},
	}
	orch := newTestOrchestrator(t, client, []string{"m1", "m2"})

	text, err := orch.Generate(context.Background(), "prompt", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "from m2", text)
	assert.Equal(t, []string{"m1", "m2"}, client.calls)
}

func TestGenerate_ExhaustedAfterAllEndpoints(t *testing.T) {
	client := &fakeClient{errors: map[string]error{
		"m1": fmt.Errorf("quota exceeded"),
		"m2": fmt.Errorf("timeout"),
	}}
	orch := newTestOrchestrator(t, client, []string{"m1", "m2"})

	_, err := orch.Generate(context.Background(), "prompt", DefaultOptions())
	require.Error(t, err)

	genErr, ok := err.(*GenerationError)
	require.True(t, ok)
	assert.Equal(t, ReasonExhausted, genErr.Reason)
	assert.Len(t, genErr.Attempts, 2)
	// Each endpoint is tried exactly once per call.
	assert.Equal(t, []string{"m1", "m2"}, client.calls)
}

func TestGenerate_InvalidResponseReason(t *testing.T) {
	client := &fakeClient{responses: map[string]string{"m1": "   ", "m2": ""}}
	orch := newTestOrchestrator(t, client, []string{"m1", "m2"})

	_, err := orch.Generate(context.Background(), "prompt", DefaultOptions())
	require.Error(t, err)

	genErr, ok := err.(*GenerationError)
	require.True(t, ok)
	assert.Equal(t, ReasonInvalidResponse, genErr.Reason)
}

func TestGenerate_SecondCallHitsCacheWithoutNetwork(t *testing.T) {
	client := &fakeClient{responses: map[string]string{"m1": "cached text"}}
	orch := newTestOrchestrator(t, client, []string{"m1"})

	ctx := context.Background()
	first, err := orch.Generate(ctx, "prompt", DefaultOptions())
	require.NoError(t, err)
	second, err := orch.Generate(ctx, "prompt", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.callCount())
}

func TestGenerate_DifferentOptionsMissCache(t *testing.T) {
	client := &fakeClient{responses: map[string]string{"m1": "text"}}
	orch := newTestOrchestrator(t, client, []string{"m1"})

	ctx := context.Background()
	_, err := orch.Generate(ctx, "prompt", Options{Temperature: 0.2, MaxTokens: 4000})
	require.NoError(t, err)
	_, err = orch.Generate(ctx, "prompt", Options{Temperature: 0.9, MaxTokens: 4000})
	require.NoError(t, err)

	assert.Equal(t, 2, client.callCount())
}

func TestGenerate_ContextCancellationStopsRotation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{responses: map[string]string{"m1": "text"}}
	orch := newTestOrchestrator(t, client, []string{"m1", "m2"})

	_, err := orch.Generate(ctx, "prompt", DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, client.callCount())
}

func TestGenerateJSON_StripsFenceAndValidates(t *testing.T) {
	client := &fakeClient{responses: map[string]string{"m1": "```json\n{\"score\": 0.8}\n```"}}
	orch := newTestOrchestrator(t, client, []string{"m1"})

	text, err := orch.GenerateJSON(context.Background(), "prompt", DefaultOptions())
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": 0.8}`, text)
}

func TestGenerateJSON_RejectsMalformedJSON(t *testing.T) {
	client := &fakeClient{responses: map[string]string{"m1": "not json at all"}}
	orch := newTestOrchestrator(t, client, []string{"m1"})

	_, err := orch.GenerateJSON(context.Background(), "prompt", DefaultOptions())
	require.Error(t, err)

	genErr, ok := err.(*GenerationError)
	require.True(t, ok)
	assert.Equal(t, ReasonInvalidResponse, genErr.Reason)
}

func TestGenerate_NilStoreSkipsCaching(t *testing.T) {
	client := &fakeClient{responses: map[string]string{"m1": "text"}}
	orch := NewOrchestrator(client, nil, OrchestratorConfig{Endpoints: []string{"m1"}, Backoff: time.Millisecond})

	ctx := context.Background()
	_, err := orch.Generate(ctx, "prompt", DefaultOptions())
	require.NoError(t, err)
	_, err = orch.Generate(ctx, "prompt", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, client.callCount())
}
