package insight_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/teampulse/teampulse/internal/insight"
	"github.com/teampulse/teampulse/internal/setup/config"
)

func defaultRisk() *config.Risk {
	risk := config.DefaultRisk()
	return &risk
}

func TestClassifyChannelRisk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		metrics       *types.WeeklyMetrics
		expectedLevel types.RiskLevel
		expectedScore float64
	}{
		{
			name: "healthy channel",
			metrics: &types.WeeklyMetrics{
				MessageCount:     40,
				AvgSentiment:     0.4,
				ThreadReplyRatio: 0.3,
				SentimentHistogram: types.SentimentHistogram{
					Positive: 30, Neutral: 8, Negative: 2,
				},
			},
			expectedLevel: types.RiskLow,
			expectedScore: 0,
		},
		{
			name: "very negative and disengaged",
			metrics: &types.WeeklyMetrics{
				MessageCount:     30,
				AvgSentiment:     -0.5,
				ThreadReplyRatio: 0.05,
				SentimentHistogram: types.SentimentHistogram{
					Positive: 10, Neutral: 10, Negative: 10,
				},
			},
			expectedLevel: types.RiskHigh,
			expectedScore: 6,
		},
		{
			name: "mildly negative only",
			metrics: &types.WeeklyMetrics{
				MessageCount:     30,
				AvgSentiment:     -0.2,
				ThreadReplyRatio: 0.3,
				SentimentHistogram: types.SentimentHistogram{
					Positive: 12, Neutral: 10, Negative: 8,
				},
			},
			expectedLevel: types.RiskLow,
			expectedScore: 2,
		},
		{
			name: "mild negative plus negative ratio",
			metrics: &types.WeeklyMetrics{
				MessageCount:     30,
				AvgSentiment:     -0.2,
				ThreadReplyRatio: 0.3,
				SentimentHistogram: types.SentimentHistogram{
					Positive: 5, Neutral: 13, Negative: 12,
				},
			},
			expectedLevel: types.RiskMedium,
			expectedScore: 4,
		},
		{
			name: "quiet channel",
			metrics: &types.WeeklyMetrics{
				MessageCount:     3,
				AvgSentiment:     0.2,
				ThreadReplyRatio: 0.0,
				SentimentHistogram: types.SentimentHistogram{
					Positive: 2, Neutral: 1,
				},
			},
			expectedLevel: types.RiskLow,
			expectedScore: 2,
		},
		{
			name: "every signal fires",
			metrics: &types.WeeklyMetrics{
				MessageCount:     0,
				AvgSentiment:     -0.8,
				ThreadReplyRatio: 0.0,
				SentimentHistogram: types.SentimentHistogram{
					Negative: 1,
				},
			},
			expectedLevel: types.RiskHigh,
			expectedScore: 8,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			level, score := insight.ClassifyChannelRisk(defaultRisk(), tt.metrics)

			assert.Equal(t, tt.expectedLevel, level)
			assert.InDelta(t, tt.expectedScore, score, 0.0001)
		})
	}
}

func TestClassifyOverallRisk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		levels   []types.RiskLevel
		expected types.RiskLevel
	}{
		{
			name:     "no channels",
			levels:   nil,
			expected: types.RiskLow,
		},
		{
			name:     "all low",
			levels:   []types.RiskLevel{types.RiskLow, types.RiskLow, types.RiskLow},
			expected: types.RiskLow,
		},
		{
			name: "more than thirty percent high",
			levels: []types.RiskLevel{
				types.RiskHigh, types.RiskHigh, types.RiskLow, types.RiskLow, types.RiskLow,
			},
			expected: types.RiskHigh,
		},
		{
			name: "some high with widespread medium",
			levels: []types.RiskLevel{
				types.RiskHigh,
				types.RiskMedium, types.RiskMedium, types.RiskMedium,
				types.RiskLow, types.RiskLow,
			},
			expected: types.RiskHigh,
		},
		{
			name: "mostly medium",
			levels: []types.RiskLevel{
				types.RiskMedium, types.RiskMedium, types.RiskMedium, types.RiskLow,
			},
			expected: types.RiskMedium,
		},
		{
			name: "a single high among many",
			levels: []types.RiskLevel{
				types.RiskHigh,
				types.RiskLow, types.RiskLow, types.RiskLow, types.RiskLow, types.RiskLow,
			},
			expected: types.RiskMedium,
		},
		{
			name: "medium exactly at half is not enough",
			levels: []types.RiskLevel{
				types.RiskMedium, types.RiskMedium, types.RiskLow, types.RiskLow,
			},
			expected: types.RiskLow,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, insight.ClassifyOverallRisk(defaultRisk(), tt.levels))
		})
	}
}
