// Package provider abstracts the text-generation collaborator behind a small
// completion interface. Concrete providers register themselves by name;
// selection happens in the factory from configuration.
package provider

import "context"

// LLMProvider is the boundary to the external text generator. It is treated
// as a black box with latency and possible failure; callers own timeouts and
// retries.
type LLMProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is a single prompt/response exchange.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature *float64
}
