package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teampulse/teampulse/internal/ai"
)

func TestParseInsightReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		content        string
		expectErr      bool
		expectedGlobal []string
	}{
		{
			name:           "strict JSON",
			content:        `{"globalInsights":["check in with the team"],"channelInsights":{"c1":["reduce meetings"]}}`,
			expectedGlobal: []string{"check in with the team"},
		},
		{
			name: "fenced code block",
			content: "Here are my recommendations:\n```json\n" +
				`{"globalInsights":["rebalance workload"],"channelInsights":{}}` +
				"\n```\nLet me know if you need more.",
			expectedGlobal: []string{"rebalance workload"},
		},
		{
			name: "fence without language tag",
			content: "```\n" +
				`{"globalInsights":["celebrate the launch"],"channelInsights":{}}` +
				"\n```",
			expectedGlobal: []string{"celebrate the launch"},
		},
		{
			name: "embedded object in prose",
			content: `Based on the metrics, I suggest the following: ` +
				`{"globalInsights":["watch the on-call channel"],"channelInsights":{"c2":["rotate on-call duty"]}} ` +
				`These should help.`,
			expectedGlobal: []string{"watch the on-call channel"},
		},
		{
			name: "braces inside string values",
			content: `{"globalInsights":["use {channel} conventions"],` +
				`"channelInsights":{}}`,
			expectedGlobal: []string{"use {channel} conventions"},
		},
		{
			name:      "empty reply",
			content:   "",
			expectErr: true,
		},
		{
			name:      "no JSON at all",
			content:   "I cannot produce recommendations right now.",
			expectErr: true,
		},
		{
			name:      "valid JSON but empty report",
			content:   `{"globalInsights":[],"channelInsights":{}}`,
			expectErr: true,
		},
		{
			name:      "unbalanced object",
			content:   `{"globalInsights":["never closed"`,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			report, err := ai.ParseInsightReport(tt.content)

			if tt.expectErr {
				require.ErrorIs(t, err, ai.ErrUnparseableReply)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedGlobal, report.GlobalInsights)
			assert.NotNil(t, report.ChannelInsights)
		})
	}
}
