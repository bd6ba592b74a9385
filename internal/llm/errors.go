package llm

import (
	"errors"
	"fmt"
	"strings"
)

// FailureReason classifies a terminal generation failure
type FailureReason string

// Terminal failure reasons
const (
	// ReasonExhausted means every configured endpoint was tried without a usable response
	ReasonExhausted FailureReason = "exhausted"
	// ReasonInvalidResponse means endpoints answered but no response was well-formed
	ReasonInvalidResponse FailureReason = "invalid_response"
)

// GenerationError is returned when a generate call fails terminally.
// Attempts records the per-endpoint failure that led here.
type GenerationError struct {
	Reason   FailureReason
	Attempts []AttemptError
}

// AttemptError records one failed endpoint attempt
type AttemptError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "generation failed (%s)", e.Reason)
	for _, attempt := range e.Attempts {
		fmt.Fprintf(&sb, "; %s: %v", attempt.Model, attempt.Err)
	}
	return sb.String()
}

// IsGenerationError reports whether err is (or wraps) a GenerationError
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// TransientError marks an endpoint failure the orchestrator should respond to
// by rotating to the next endpoint: rate limits, quota exhaustion, timeouts.
type TransientError struct {
	Message string
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transient: %s", e.Message)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// transient status markers seen in provider error strings
var transientMarkers = []string{
	"rate limit",
	"ratelimit",
	"quota",
	"free tier",
	"timeout",
	"deadline exceeded",
	"429",
	"503",
}

// isTransient reports whether an endpoint failure should trigger rotation
// rather than abort the call
func isTransient(err error) bool {
	var tr *TransientError
	if errors.As(err, &tr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
