// Package generate holds the fixed set of documentation generation stages
// and the collaborator wrapper they speak through. Stages read their facts
// from the shared store projection and emit one named document fragment each.
package generate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/docpipe/docpipe/internal/provider"
)

// Completer abstracts LLM completion for testability.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Collaborator adapts an LLMProvider into a rate-limited, timeout-bounded
// Completer. Every external call goes through here; a timeout surfaces as a
// stage failure eligible for the retry budget.
type Collaborator struct {
	llm       provider.LLMProvider
	model     string
	maxTokens int
	timeout   time.Duration
	limiter   *rate.Limiter
}

// CollaboratorOptions configures a Collaborator.
type CollaboratorOptions struct {
	Model             string
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int
}

// NewCollaborator wraps the provider. RequestsPerMinute of zero disables
// rate limiting.
func NewCollaborator(llm provider.LLMProvider, opts CollaboratorOptions) *Collaborator {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1)
	}
	return &Collaborator{
		llm:       llm,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		limiter:   limiter,
	}
}

// Complete waits for the rate limiter, then runs one completion under the
// configured timeout.
func (c *Collaborator) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.llm.Complete(ctx, provider.CompletionRequest{
		Model:     c.model,
		Prompt:    prompt,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("collaborator: %w", err)
	}
	return out, nil
}
