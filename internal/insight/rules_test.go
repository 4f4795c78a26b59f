package insight_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teampulse/teampulse/internal/ai"
	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/teampulse/teampulse/internal/insight"
)

func ruleRequest(channels ...*ai.ChannelSummary) *ai.InsightRequest {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	return &ai.InsightRequest{
		WindowStart: start,
		WindowEnd:   types.WindowEnd(start),
		OverallRisk: types.RiskLow,
		Channels:    channels,
	}
}

func TestGenerateRuleBasedInsightsAlwaysEmitsGlobal(t *testing.T) {
	t.Parallel()

	// An entirely healthy week still produces the fallback line.
	report := insight.GenerateRuleBasedInsights(defaultRisk(), ruleRequest(
		&ai.ChannelSummary{
			ChannelID: "c1", DisplayName: "general", Risk: types.RiskLow,
			Metrics: &types.WeeklyMetrics{MessageCount: 50, AvgSentiment: 0.4, ThreadReplyRatio: 0.3},
		},
	))

	require.NotEmpty(t, report.GlobalInsights)
	assert.Equal(t, "All channels look healthy this week. Keep the current cadence.",
		report.GlobalInsights[0])
	assert.Empty(t, report.ChannelInsights["c1"])
}

func TestGenerateRuleBasedInsightsEmptyRequest(t *testing.T) {
	t.Parallel()

	report := insight.GenerateRuleBasedInsights(defaultRisk(), ruleRequest())

	require.Len(t, report.GlobalInsights, 1)
	assert.Empty(t, report.ChannelInsights)
}

func TestGenerateRuleBasedInsightsHighRiskLeads(t *testing.T) {
	t.Parallel()

	request := ruleRequest(
		&ai.ChannelSummary{
			ChannelID: "c1", DisplayName: "oncall", Risk: types.RiskHigh,
			Metrics: &types.WeeklyMetrics{
				MessageCount: 30, AvgSentiment: -0.5, ThreadReplyRatio: 0.05,
				RiskFactors: []string{"high negative sentiment", "low collaboration"},
			},
		},
		&ai.ChannelSummary{
			ChannelID: "c2", DisplayName: "design", Risk: types.RiskMedium,
			Metrics: &types.WeeklyMetrics{MessageCount: 25, AvgSentiment: -0.2, ThreadReplyRatio: 0.2},
		},
	)
	request.OverallRisk = types.RiskHigh

	report := insight.GenerateRuleBasedInsights(defaultRisk(), request)

	require.NotEmpty(t, report.GlobalInsights)
	assert.Contains(t, report.GlobalInsights[0], "high burnout risk")
	assert.Contains(t, report.GlobalInsights[0], "oncall")
	assert.Contains(t, report.GlobalInsights[1], "Workspace-wide risk is high")
	assert.LessOrEqual(t, len(report.GlobalInsights), 5)

	channelRecs := report.ChannelInsights["c1"]
	require.Len(t, channelRecs, 2)
	assert.Contains(t, channelRecs[0], "strongly negative")
	assert.Contains(t, channelRecs[1], "thread replies")
}

func TestGenerateRuleBasedInsightsCapsGlobal(t *testing.T) {
	t.Parallel()

	// Every global rule fires at once; the list must stay within the cap.
	channels := []*ai.ChannelSummary{}
	for i := 0; i < 4; i++ {
		channels = append(channels, &ai.ChannelSummary{
			ChannelID:   fmt.Sprintf("high-%d", i),
			DisplayName: fmt.Sprintf("team-%d", i),
			Risk:        types.RiskHigh,
			Metrics: &types.WeeklyMetrics{
				MessageCount: 30, AvgSentiment: -0.6, ThreadReplyRatio: 0.01,
			},
			Trend: types.Trend{SentimentDelta: -0.5},
		})
	}

	channels = append(channels, &ai.ChannelSummary{
		ChannelID: "medium", DisplayName: "medium", Risk: types.RiskMedium,
		Metrics: &types.WeeklyMetrics{MessageCount: 25, ThreadReplyRatio: 0.3},
	})

	request := ruleRequest(channels...)
	request.OverallRisk = types.RiskHigh

	report := insight.GenerateRuleBasedInsights(defaultRisk(), request)

	assert.Len(t, report.GlobalInsights, 5)
}

func TestChannelRecommendationsCapped(t *testing.T) {
	t.Parallel()

	// All five factors plus a declining trend map to six candidates.
	report := insight.GenerateRuleBasedInsights(defaultRisk(), ruleRequest(
		&ai.ChannelSummary{
			ChannelID: "c1", DisplayName: "support", Risk: types.RiskHigh,
			Metrics: &types.WeeklyMetrics{
				MessageCount: 30, AvgSentiment: -0.7, ThreadReplyRatio: 0.02,
				RiskFactors: []string{
					"high negative sentiment",
					"negative outweighs positive",
					"low collaboration",
					"very low volume",
				},
			},
			Trend: types.Trend{SentimentDelta: -0.4},
		},
	))

	assert.Len(t, report.ChannelInsights["c1"], 4)
}

func TestGenerateRuleBasedInsightsNamesOverflow(t *testing.T) {
	t.Parallel()

	channels := []*ai.ChannelSummary{}
	for i := 0; i < 5; i++ {
		channels = append(channels, &ai.ChannelSummary{
			ChannelID:   fmt.Sprintf("c%d", i),
			DisplayName: fmt.Sprintf("team-%d", i),
			Risk:        types.RiskHigh,
		})
	}

	report := insight.GenerateRuleBasedInsights(defaultRisk(), ruleRequest(channels...))

	require.NotEmpty(t, report.GlobalInsights)
	assert.Contains(t, report.GlobalInsights[0], "team-0, team-1, team-2 and 2 more")
}
