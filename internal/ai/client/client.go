// Package client wraps the OpenAI-compatible API behind a shared circuit
// breaker, a concurrency limit, and per-attempt timeouts. Both the sentiment
// classifier and the insight generator go through the same breaker, so a
// failing provider stops receiving calls from either path.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sony/gobreaker"
	"github.com/teampulse/teampulse/internal/setup/config"
	"github.com/teampulse/teampulse/pkg/metrics"
	"github.com/teampulse/teampulse/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var ErrNoProvidersAvailable = errors.New("no providers available")

// AIClient owns the API connection, the shared circuit breaker, and the
// request semaphore.
type AIClient struct {
	client         *openai.Client
	breaker        *gobreaker.CircuitBreaker
	semaphore      *semaphore.Weighted
	modelMappings  map[string]string
	requestTimeout time.Duration
	logger         *zap.Logger
}

// NewBreaker builds the process-wide circuit breaker. It trips after the
// configured number of consecutive failures, stays open for the cooldown,
// then lets a limited number of half-open probes decide whether to close.
// The breaker is constructed separately from the client so tests can own an
// independent breaker per scenario.
func NewBreaker(cfg *config.CircuitBreaker, logger *zap.Logger) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        "ai",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     time.Duration(cfg.CooldownSeconds) * time.Second,
		Interval:    0,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(_ string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))

			switch to {
			case gobreaker.StateClosed:
				metrics.BreakerState.Set(0)
			case gobreaker.StateHalfOpen:
				metrics.BreakerState.Set(1)
			case gobreaker.StateOpen:
				metrics.BreakerState.Set(2)
			}
		},
	}

	return gobreaker.NewCircuitBreaker(settings)
}

// NewClient creates a new AIClient using the given breaker.
func NewClient(cfg *config.OpenAI, breaker *gobreaker.CircuitBreaker, logger *zap.Logger) *AIClient {
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	)

	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return &AIClient{
		client:         &client,
		breaker:        breaker,
		semaphore:      semaphore.NewWeighted(cfg.MaxConcurrent),
		modelMappings:  cfg.ModelMappings,
		requestTimeout: requestTimeout,
		logger:         logger.Named("ai_client"),
	}
}

// Chat returns a ChatCompletions implementation.
func (c *AIClient) Chat() ChatCompletions {
	return &chatCompletions{client: c}
}

// IsBreakerOpen reports whether the error came from an open or saturated
// circuit breaker. Callers short-circuit to their fallback path without
// retrying when this is true.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// chatCompletions implements the ChatCompletions interface.
type chatCompletions struct {
	client *AIClient
}

// New makes a single chat completion request.
func (c *chatCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	// Map model name
	originalModel := params.Model
	if mappedModel, ok := c.client.modelMappings[originalModel]; ok {
		params.Model = mappedModel
	} else {
		return nil, fmt.Errorf("%w: %s", ErrNoProvidersAvailable, originalModel)
	}

	// Try to acquire semaphore
	if err := c.client.semaphore.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer c.client.semaphore.Release(1)

	return c.execute(ctx, params)
}

// NewWithRetry makes a chat completion request with retry logic. An open
// breaker aborts the retry loop immediately; every other failure retries up
// to the attempt ceiling with exponential backoff.
func (c *chatCompletions) NewWithRetry(
	ctx context.Context, params openai.ChatCompletionNewParams, callback RetryCallback,
) error {
	// Map model name
	originalModel := params.Model
	if mappedModel, ok := c.client.modelMappings[originalModel]; ok {
		params.Model = mappedModel
	} else {
		return fmt.Errorf("%w: %s", ErrNoProvidersAvailable, originalModel)
	}

	// Try to acquire semaphore
	if err := c.client.semaphore.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer c.client.semaphore.Release(1)

	var (
		attempt uint64
		lastErr error
	)

	operation := func() (struct{}, error) {
		// Check context before making request
		if err := ctx.Err(); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		attempt++

		resp, err := c.execute(ctx, params)
		if err != nil {
			lastErr = err

			if IsBreakerOpen(err) {
				return struct{}{}, backoff.Permanent(err)
			}

			c.client.logger.Warn("Failed to make request",
				zap.Error(err),
				zap.String("model", params.Model),
				zap.Uint64("attempt", attempt))

			if cbErr := callback(resp, err); cbErr != nil {
				permanentError := &backoff.PermanentError{}
				if errors.As(cbErr, &permanentError) {
					return struct{}{}, backoff.Permanent(fmt.Errorf("permanent callback error: %w", cbErr))
				}

				return struct{}{}, cbErr
			}

			return struct{}{}, err
		}

		// Callback handles the successful response; a parse failure there
		// counts as an attempt failure and retries.
		if cbErr := callback(resp, nil); cbErr != nil {
			permanentError := &backoff.PermanentError{}
			if errors.As(cbErr, &permanentError) {
				return struct{}{}, backoff.Permanent(fmt.Errorf("permanent callback error: %w", cbErr))
			}

			lastErr = cbErr

			c.client.logger.Warn("Callback error, will retry",
				zap.Error(cbErr),
				zap.Uint64("attempt", attempt))

			return struct{}{}, cbErr
		}

		return struct{}{}, nil
	}

	if _, err := utils.WithRetry(ctx, operation, utils.GetAIRetryOptions()); err != nil {
		if lastErr != nil && !errors.Is(err, lastErr) {
			return fmt.Errorf("all retry attempts failed: %w (last error: %w)", err, lastErr)
		}

		return fmt.Errorf("all retry attempts failed: %w", err)
	}

	return nil
}

// execute runs one attempt through the breaker with a hard timeout.
func (c *chatCompletions) execute(
	ctx context.Context, params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.client.requestTimeout)
	defer cancel()

	result, err := c.client.breaker.Execute(func() (any, error) {
		resp, err := c.client.client.Chat.Completions.New(attemptCtx, params)
		if err != nil {
			return nil, err
		}

		if err := checkReply(resp); err != nil {
			return nil, err
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*openai.ChatCompletion), nil
}

// checkReply rejects empty or malformed completions so they count as
// attempt failures against the breaker.
func checkReply(resp *openai.ChatCompletion) error {
	if resp == nil {
		return fmt.Errorf("%w: received nil response", utils.ErrModelResponse)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("%w: received empty choices", utils.ErrModelResponse)
	}

	if resp.Choices[0].Message.Content == "" {
		return fmt.Errorf("%w: received empty content", utils.ErrModelResponse)
	}

	return nil
}
