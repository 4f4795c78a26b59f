package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teampulse/teampulse/pkg/utils"
)

var errTemporary = errors.New("temporary error")

func TestWithRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		operation     func() func() (int, error)
		expectedCalls int
		expectedErr   error
		expectedValue int
	}{
		{
			name: "succeeds first try",
			operation: func() func() (int, error) {
				return func() (int, error) { return 42, nil }
			},
			expectedCalls: 1,
			expectedErr:   nil,
			expectedValue: 42,
		},
		{
			name: "succeeds after retries",
			operation: func() func() (int, error) {
				count := 0
				return func() (int, error) {
					count++
					if count < 3 {
						return 0, errTemporary
					}
					return 7, nil
				}
			},
			expectedCalls: 3,
			expectedErr:   nil,
			expectedValue: 7,
		},
		{
			name: "fails all retries",
			operation: func() func() (int, error) {
				return func() (int, error) { return 0, errTemporary }
			},
			expectedCalls: 3, // Initial + 2 retries
			expectedErr:   errTemporary,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			op := tt.operation()

			opts := utils.RetryOptions{
				MaxElapsedTime:  time.Second,
				InitialInterval: time.Millisecond,
				MaxInterval:     5 * time.Millisecond,
				MaxRetries:      2,
			}

			result, err := utils.WithRetry(context.Background(), func() (int, error) {
				calls++
				return op()
			}, opts)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedValue, result)
			}

			assert.Equal(t, tt.expectedCalls, calls)
		})
	}
}

func TestWithRetryContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := utils.WithRetry(ctx, func() (int, error) {
		calls++
		return 0, errTemporary
	}, utils.GetAIRetryOptions())

	require.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}
