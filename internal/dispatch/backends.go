package dispatch

import (
	"context"
	"errors"

	"github.com/sells-group/meditrek/pkg/anthropic"
	"github.com/sells-group/meditrek/pkg/perplexity"
)

// PerplexityBackend completes prompts with Perplexity chat completions.
type PerplexityBackend struct {
	Client perplexity.Client
}

// Complete implements Backend.
func (b PerplexityBackend) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := b.Client.ChatCompletion(ctx, perplexity.UserPrompt(prompt))
	if err != nil {
		return "", err
	}
	text, err := resp.Text()
	if errors.Is(err, perplexity.ErrNoChoices) {
		return "", ErrEmptyCompletion
	}
	return text, err
}

// AnthropicBackend completes prompts with the Anthropic Messages API.
type AnthropicBackend struct {
	Client    anthropic.Client
	Model     string
	MaxTokens int64
}

// Complete implements Backend.
func (b AnthropicBackend) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := anthropic.Complete(ctx, b.Client, b.Model, b.MaxTokens, prompt)
	if errors.Is(err, anthropic.ErrNoText) {
		return "", ErrEmptyCompletion
	}
	return text, err
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Backend.
func (f BackendFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
