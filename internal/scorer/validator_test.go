package scorer_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teampulse/teampulse/internal/ai"
	"github.com/teampulse/teampulse/internal/scorer"
)

func TestValidateScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      float64
		expected float64
		valid    bool
	}{
		{name: "in range", raw: 0.5, expected: 0.5, valid: true},
		{name: "lower bound", raw: -1, expected: -1, valid: true},
		{name: "upper bound", raw: 1, expected: 1, valid: true},
		{name: "clamped high", raw: 3.7, expected: 1, valid: true},
		{name: "clamped low", raw: -42, expected: -1, valid: true},
		{name: "NaN", raw: math.NaN(), expected: 0, valid: false},
		{name: "positive infinity", raw: math.Inf(1), expected: 0, valid: false},
		{name: "negative infinity", raw: math.Inf(-1), expected: 0, valid: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			score, valid := scorer.ValidateScore(tt.raw)
			assert.InDelta(t, tt.expected, score, 0.0001)
			assert.Equal(t, tt.valid, valid)
			assert.GreaterOrEqual(t, score, -1.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestValidateConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      float64
		expected float64
		valid    bool
	}{
		{name: "in range", raw: 0.8, expected: 0.8, valid: true},
		{name: "clamped high", raw: 2, expected: 1, valid: true},
		{name: "clamped low", raw: -0.2, expected: 0, valid: true},
		{name: "NaN defaults", raw: math.NaN(), expected: 0.5, valid: false},
		{name: "infinity defaults", raw: math.Inf(1), expected: 0.5, valid: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confidence, valid := scorer.ValidateConfidence(tt.raw)
			assert.InDelta(t, tt.expected, confidence, 0.0001)
			assert.Equal(t, tt.valid, valid)
		})
	}
}

func TestValidateResult(t *testing.T) {
	t.Parallel()

	t.Run("missing message id applies fallback", func(t *testing.T) {
		t.Parallel()

		validated := scorer.ValidateResult(&ai.ScoreResult{Score: 0.9, Confidence: 0.9})

		assert.True(t, validated.Invalid)
		assert.InDelta(t, 0.0, validated.Score, 0.0001)
		assert.InDelta(t, 0.1, validated.Confidence, 0.0001)
		assert.NotEmpty(t, validated.Reasons)
	})

	t.Run("non-finite score applies fallback", func(t *testing.T) {
		t.Parallel()

		validated := scorer.ValidateResult(&ai.ScoreResult{MessageID: "m1", Score: math.NaN(), Confidence: 0.9})

		assert.True(t, validated.Invalid)
		assert.InDelta(t, 0.0, validated.Score, 0.0001)
		assert.InDelta(t, 0.1, validated.Confidence, 0.0001)
	})

	t.Run("nil result never panics", func(t *testing.T) {
		t.Parallel()

		validated := scorer.ValidateResult(nil)

		assert.True(t, validated.Invalid)
		assert.InDelta(t, 0.0, validated.Score, 0.0001)
	})

	t.Run("clamped values are tagged sanitized", func(t *testing.T) {
		t.Parallel()

		validated := scorer.ValidateResult(&ai.ScoreResult{MessageID: "m1", Score: 1.5, Confidence: 1.2})

		assert.False(t, validated.Invalid)
		assert.True(t, validated.Sanitized)
		assert.InDelta(t, 1.0, validated.Score, 0.0001)
		assert.InDelta(t, 1.0, validated.Confidence, 0.0001)
	})

	t.Run("valid result passes through", func(t *testing.T) {
		t.Parallel()

		validated := scorer.ValidateResult(&ai.ScoreResult{MessageID: "m1", Score: -0.4, Confidence: 0.7})

		assert.False(t, validated.Invalid)
		assert.False(t, validated.Sanitized)
		assert.InDelta(t, -0.4, validated.Score, 0.0001)
		assert.InDelta(t, 0.7, validated.Confidence, 0.0001)
	})
}

func TestValidateBatch(t *testing.T) {
	t.Parallel()

	t.Run("returns exactly one result per input", func(t *testing.T) {
		t.Parallel()

		results := []*ai.ScoreResult{
			{MessageID: "m1", Score: 0.3, Confidence: 0.8},
			{MessageID: "", Score: 0.1, Confidence: 0.5},
			{MessageID: "m3", Score: math.Inf(1), Confidence: 0.5},
			{MessageID: "m4", Score: 5, Confidence: -1},
			nil,
		}

		validation := scorer.ValidateBatch(results)

		require.Len(t, validation.Results, len(results))
		assert.Equal(t, 1, validation.ValidCount)
		assert.Equal(t, 3, validation.InvalidCount)
		assert.Equal(t, 1, validation.SanitizedCount)
		assert.NotEmpty(t, validation.Errors)
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		validation := scorer.ValidateBatch(nil)

		assert.Empty(t, validation.Results)
		assert.Zero(t, validation.ValidCount)
	})
}
