package client

import (
	"context"

	"github.com/openai/openai-go"
)

// RetryCallback handles a completion attempt. Returning an error retries the
// attempt unless the error is marked permanent.
type RetryCallback func(resp *openai.ChatCompletion, err error) error

// ChatCompletions makes chat completion requests through the shared circuit
// breaker and concurrency limit.
type ChatCompletions interface {
	// New makes a single chat completion request.
	New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
	// NewWithRetry makes a chat completion request with retry logic.
	NewWithRetry(ctx context.Context, params openai.ChatCompletionNewParams, callback RetryCallback) error
}
