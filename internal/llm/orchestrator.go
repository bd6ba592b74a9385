package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Hejaii/BidGenerate/internal/cache"
)

// ContentType declares what a generated response must parse as
type ContentType int

// Supported response content types
const (
	ContentText ContentType = iota
	ContentJSON
)

// OrchestratorConfig configures endpoint rotation and retry behavior.
// Endpoints is an explicit ordered list; rotation state is local to each
// Generate call, never shared across calls.
type OrchestratorConfig struct {
	// Endpoints are model names tried in order within one call
	Endpoints []string
	// Backoff is the fixed wait before advancing to the next endpoint
	// after a transient failure
	Backoff time.Duration
	// Warn receives non-fatal diagnostics (cache corruption, endpoint
	// rotation). Nil disables them.
	Warn func(format string, args ...any)
}

// DefaultEndpoints is the ordered model fallback chain used when the caller
// configures none.
var DefaultEndpoints = []string{
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.5-pro",
}

// Orchestrator wraps a Client with caching, multi-endpoint fallback and retry
type Orchestrator struct {
	client Client
	store  *cache.Store
	config OrchestratorConfig
}

// NewOrchestrator creates an orchestrator over client and store. A nil store
// disables caching.
func NewOrchestrator(client Client, store *cache.Store, config OrchestratorConfig) *Orchestrator {
	if len(config.Endpoints) == 0 {
		config.Endpoints = DefaultEndpoints
	}
	if config.Backoff == 0 {
		config.Backoff = time.Second
	}
	return &Orchestrator{client: client, store: store, config: config}
}

// Generate returns text for prompt, consulting the cache first and rotating
// across the configured endpoints on transient failures. A cache hit makes no
// network call. Each endpoint is attempted at most once per call.
func (o *Orchestrator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return o.generate(ctx, prompt, opts, ContentText)
}

// GenerateJSON is Generate with the additional guarantee that the returned
// text parses as JSON. Markdown code fences around the payload are stripped
// before validation, and only validated responses are cached.
func (o *Orchestrator) GenerateJSON(ctx context.Context, prompt string, opts Options) (string, error) {
	return o.generate(ctx, prompt, opts, ContentJSON)
}

func (o *Orchestrator) generate(ctx context.Context, prompt string, opts Options, contentType ContentType) (string, error) {
	key := cache.Fingerprint(prompt, o.fingerprintModel(), opts.Temperature, opts.MaxTokens)

	if o.store != nil {
		entry, outcome := o.store.Get(key)
		switch outcome {
		case cache.Hit:
			return entry.Text, nil
		case cache.Corrupt:
			o.warn("cache entry %s corrupt, recomputing", key)
		}
	}

	var attempts []AttemptError
	sawResponse := false

	for i, model := range o.config.Endpoints {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := o.client.GenerateContent(ctx, model, prompt, opts)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			attempts = append(attempts, AttemptError{Model: model, Err: err})
			o.warn("endpoint %s failed (%v), rotating", model, err)
			if isTransient(err) && i < len(o.config.Endpoints)-1 {
				o.wait(ctx)
			}
			continue
		}

		sawResponse = true
		cleaned, err := validateResponse(text, contentType)
		if err != nil {
			attempts = append(attempts, AttemptError{Model: model, Err: err})
			o.warn("endpoint %s returned malformed response (%v), rotating", model, err)
			continue
		}

		if o.store != nil {
			if err := o.store.Put(key, cleaned, model); err != nil {
				o.warn("failed to cache response: %v", err)
			}
		}
		return cleaned, nil
	}

	reason := ReasonExhausted
	if sawResponse {
		reason = ReasonInvalidResponse
	}
	return "", &GenerationError{Reason: reason, Attempts: attempts}
}

// fingerprintModel identifies the endpoint chain in the cache key. The first
// endpoint stands for the chain: two runs with the same chain and prompt share
// an entry regardless of which endpoint ends up answering.
func (o *Orchestrator) fingerprintModel() string {
	return o.config.Endpoints[0]
}

func (o *Orchestrator) wait(ctx context.Context) {
	timer := time.NewTimer(o.config.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (o *Orchestrator) warn(format string, args ...any) {
	if o.config.Warn != nil {
		o.config.Warn(format, args...)
	}
}

// validateResponse checks that a response is non-empty and well-formed for
// its declared content type, returning the cleaned payload.
func validateResponse(text string, contentType ContentType) (string, error) {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return "", fmt.Errorf("empty response")
	}
	if contentType == ContentJSON {
		if !json.Valid([]byte(cleaned)) {
			return "", fmt.Errorf("response is not valid JSON")
		}
	}
	return cleaned, nil
}
