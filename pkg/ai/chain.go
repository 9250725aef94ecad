package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rithanya654/Generic-RAG/pkg/logger"
)

// ErrNoProviders means the chain was built without any usable backend.
var ErrNoProviders = errors.New("no AI providers configured")

// Chain tries each backend in order, one attempt per backend, and returns
// the first success. A request that fails on every backend returns the last
// error; callers decide whether that downgrades the stage or aborts it.
// Each attempt runs under its own deadline, so a hung provider fails over
// instead of stalling the caller.
type Chain struct {
	clients   []Client
	timeout   time.Duration
	maxTokens int
}

var _ Client = (*Chain)(nil)

// NewChainParams configures a Chain. RequestTimeout bounds every single
// backend attempt (0 disables the deadline); MaxTokens is the default
// completion cap, overridable per call with WithMaxTokens.
type NewChainParams struct {
	Clients        []Client
	RequestTimeout time.Duration
	MaxTokens      int
}

func NewChain(params NewChainParams) *Chain {
	return &Chain{
		clients:   params.Clients,
		timeout:   params.RequestTimeout,
		maxTokens: params.MaxTokens,
	}
}

func (c *Chain) Name() string {
	return "chain"
}

// withDefaults prepends the chain-level token cap so call-site options win.
func (c *Chain) withDefaults(opts []GenerateOption) []GenerateOption {
	if c.maxTokens <= 0 {
		return opts
	}
	return append([]GenerateOption{WithMaxTokens(c.maxTokens)}, opts...)
}

func (c *Chain) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Chain) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...GenerateOption,
) (string, error) {
	if len(c.clients) == 0 {
		return "", ErrNoProviders
	}
	opts = c.withDefaults(opts)

	var lastErr error
	for _, client := range c.clients {
		attemptCtx, cancel := c.attemptContext(ctx)
		result, err := client.GenerateCompletion(attemptCtx, prompt, opts...)
		cancel()
		if err == nil {
			return result, nil
		}
		logger.Warn("[AI] provider failed, trying next", "provider", client.Name(), "err", err)
		lastErr = err
	}
	return "", fmt.Errorf("all providers failed: %w", lastErr)
}

func (c *Chain) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...GenerateOption,
) error {
	if len(c.clients) == 0 {
		return ErrNoProviders
	}
	opts = c.withDefaults(opts)

	var lastErr error
	for _, client := range c.clients {
		attemptCtx, cancel := c.attemptContext(ctx)
		err := client.GenerateCompletionWithFormat(attemptCtx, name, description, prompt, out, opts...)
		cancel()
		if err == nil {
			return nil
		}
		logger.Warn("[AI] provider failed, trying next", "provider", client.Name(), "err", err)
		lastErr = err
	}
	return fmt.Errorf("all providers failed: %w", lastErr)
}
