// Package ai defines the text generator interface the pipeline drives and
// provides Anthropic- and DeepSeek-backed implementations, plus the fallback
// and retry wrappers that make a single stage call resilient.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Tier selects generator capability. The router decides the tier per stage;
// each provider maps a tier onto one of its own model names.
type Tier string

const (
	// TierDefault is the low-latency model used for routine drafting.
	TierDefault Tier = "default"

	// TierStrong is the higher-capability model used for analysis stages and
	// for any stage under record-safe or high-risk constraints.
	TierStrong Tier = "strong"
)

// Request is one generation call. System and User are fully composed prompts;
// MaxTokens is the fixed budget from the output plan.
type Request struct {
	Tier        Tier
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Generator is the interface the stage runner uses. Implementations must be
// safe to call concurrently. A non-nil error means the call produced no
// usable text; retry and repair policy belong to the caller, not here.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ErrEmptyResponse is returned when the provider answered successfully but
// with no text content.
var ErrEmptyResponse = errors.New("ai: empty response")

// ErrTimeout marks a call that exceeded its own deadline while the request
// as a whole was still live. Reported separately from other provider errors.
var ErrTimeout = errors.New("ai: provider call timed out")

// ProviderError is a non-2xx or in-band error answer from the provider.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai: provider error %d: %s", e.Status, e.Message)
}
