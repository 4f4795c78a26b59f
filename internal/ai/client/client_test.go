package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teampulse/teampulse/internal/ai/client"
	"github.com/teampulse/teampulse/internal/setup/config"
	"go.uber.org/zap/zaptest"
)

const completionBody = `{
	"id": "chatcmpl-test",
	"object": "chat.completion",
	"model": "test-model",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}]
}`

// classifierStub is an HTTP stand-in for the completion API whose failure
// mode can be flipped mid-test.
type classifierStub struct {
	server *httptest.Server
	hits   atomic.Int64
	fail   atomic.Bool
}

func newClassifierStub(t *testing.T) *classifierStub {
	t.Helper()

	stub := &classifierStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		stub.hits.Add(1)

		if stub.fail.Load() {
			http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	t.Cleanup(stub.server.Close)

	return stub
}

func newTestClient(t *testing.T, stub *classifierStub, breakerCfg *config.CircuitBreaker) client.ChatCompletions {
	t.Helper()

	logger := zaptest.NewLogger(t)
	breaker := client.NewBreaker(breakerCfg, logger)

	aiClient := client.NewClient(&config.OpenAI{
		BaseURL:        stub.server.URL,
		APIKey:         "test-key",
		MaxConcurrent:  4,
		RequestTimeout: 5,
		ModelMappings:  map[string]string{"gpt-4o-mini": "test-model"},
		SentimentModel: "gpt-4o-mini",
	}, breaker, logger)

	return aiClient.Chat()
}

func testParams() openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hi")},
		Model:    "gpt-4o-mini",
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	stub := newClassifierStub(t)
	stub.fail.Store(true)

	chat := newTestClient(t, stub, &config.CircuitBreaker{
		FailureThreshold: 3,
		CooldownSeconds:  60,
		HalfOpenRequests: 1,
	})

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := chat.New(ctx, testParams())
		require.Error(t, err)
		assert.False(t, client.IsBreakerOpen(err), "breaker must stay closed below the threshold")
	}

	hitsBefore := stub.hits.Load()
	assert.EqualValues(t, 3, hitsBefore)

	// Threshold reached: the next call short-circuits without a request.
	_, err := chat.New(ctx, testParams())
	require.Error(t, err)
	assert.True(t, client.IsBreakerOpen(err))
	assert.Equal(t, hitsBefore, stub.hits.Load())
}

func TestOpenBreakerShortCircuitsRetryLoop(t *testing.T) {
	t.Parallel()

	stub := newClassifierStub(t)
	stub.fail.Store(true)

	chat := newTestClient(t, stub, &config.CircuitBreaker{
		FailureThreshold: 1,
		CooldownSeconds:  60,
		HalfOpenRequests: 1,
	})

	ctx := context.Background()

	// One failure opens the breaker.
	_, err := chat.New(ctx, testParams())
	require.Error(t, err)

	hitsBefore := stub.hits.Load()

	// With the breaker open the retry path must not burn attempts or make
	// requests; it surfaces the open state immediately.
	err = chat.NewWithRetry(ctx, testParams(), func(_ *openai.ChatCompletion, err error) error {
		return err
	})
	require.Error(t, err)
	assert.True(t, client.IsBreakerOpen(err))
	assert.Equal(t, hitsBefore, stub.hits.Load())
}

func TestBreakerRecoversAfterCooldown(t *testing.T) {
	t.Parallel()

	stub := newClassifierStub(t)
	stub.fail.Store(true)

	chat := newTestClient(t, stub, &config.CircuitBreaker{
		FailureThreshold: 1,
		CooldownSeconds:  1,
		HalfOpenRequests: 1,
	})

	ctx := context.Background()

	_, err := chat.New(ctx, testParams())
	require.Error(t, err)

	_, err = chat.New(ctx, testParams())
	require.True(t, client.IsBreakerOpen(err))

	// After the cooldown the half-open probe goes through; a success closes
	// the breaker and normal traffic resumes.
	stub.fail.Store(false)
	time.Sleep(1100 * time.Millisecond)

	resp, err := chat.New(ctx, testParams())
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Choices[0].Message.Content)

	resp, err = chat.New(ctx, testParams())
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestUnmappedModelRejected(t *testing.T) {
	t.Parallel()

	stub := newClassifierStub(t)
	chat := newTestClient(t, stub, &config.CircuitBreaker{
		FailureThreshold: 3,
		CooldownSeconds:  60,
		HalfOpenRequests: 1,
	})

	_, err := chat.New(context.Background(), openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hi")},
		Model:    "unknown-model",
	})

	require.ErrorIs(t, err, client.ErrNoProvidersAvailable)
	assert.Zero(t, stub.hits.Load())
}

func TestEmptyCompletionCountsAsFailure(t *testing.T) {
	t.Parallel()

	stub := &classifierStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		stub.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-empty", "object": "chat.completion", "choices": []}`))
	}))
	t.Cleanup(stub.server.Close)

	chat := newTestClient(t, stub, &config.CircuitBreaker{
		FailureThreshold: 5,
		CooldownSeconds:  60,
		HalfOpenRequests: 1,
	})

	_, err := chat.New(context.Background(), testParams())
	require.Error(t, err)
	assert.False(t, client.IsBreakerOpen(err))
}
