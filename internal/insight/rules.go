package insight

import (
	"fmt"

	"github.com/teampulse/teampulse/internal/ai"
	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/teampulse/teampulse/internal/setup/config"
)

// Recommendation caps for both the AI and the rule-based path.
const (
	maxGlobalRecommendations  = 5
	maxChannelRecommendations = 4
)

// decliningSentimentDelta marks a week-over-week drop worth calling out.
const decliningSentimentDelta = -0.2

// GenerateRuleBasedInsights produces deterministic recommendations from the
// weekly context. This is the guaranteed-available path: it always emits at
// least one global recommendation, regardless of input.
func GenerateRuleBasedInsights(risk *config.Risk, request *ai.InsightRequest) *ai.InsightReport {
	report := &ai.InsightReport{
		ChannelInsights: make(map[string][]string, len(request.Channels)),
	}

	var (
		highRisk      []string
		mediumCount   int
		lowEngagement int
		declining     int
	)

	for _, channel := range request.Channels {
		switch channel.Risk {
		case types.RiskHigh:
			highRisk = append(highRisk, channel.DisplayName)
		case types.RiskMedium:
			mediumCount++
		case types.RiskLow:
		}

		if channel.Metrics != nil &&
			channel.Metrics.MessageCount >= risk.LowCollaborationMinMessages &&
			channel.Metrics.ThreadReplyRatio < risk.LowCollaborationRatio {
			lowEngagement++
		}

		if channel.Trend.SentimentDelta <= decliningSentimentDelta {
			declining++
		}

		report.ChannelInsights[channel.ChannelID] = channelRecommendations(channel)
	}

	// Global recommendations, highest priority first
	if len(highRisk) > 0 {
		report.GlobalInsights = append(report.GlobalInsights, fmt.Sprintf(
			"%d channel(s) show high burnout risk (%s). Schedule 1:1s with their most active members this week.",
			len(highRisk), joinNames(highRisk)))
	}

	if request.OverallRisk == types.RiskHigh {
		report.GlobalInsights = append(report.GlobalInsights,
			"Workspace-wide risk is high. Consider reducing sprint commitments or adding a no-meeting day.")
	}

	if mediumCount > 0 {
		report.GlobalInsights = append(report.GlobalInsights, fmt.Sprintf(
			"%d channel(s) are at medium risk. A short pulse check in each can catch problems early.", mediumCount))
	}

	if lowEngagement > 0 {
		report.GlobalInsights = append(report.GlobalInsights, fmt.Sprintf(
			"%d channel(s) have low thread engagement. Prompting discussion with open questions can help.", lowEngagement))
	}

	if declining > 0 {
		report.GlobalInsights = append(report.GlobalInsights, fmt.Sprintf(
			"Sentiment declined noticeably in %d channel(s) compared to last week. Review what changed.", declining))
	}

	if len(report.GlobalInsights) == 0 {
		report.GlobalInsights = append(report.GlobalInsights,
			"All channels look healthy this week. Keep the current cadence.")
	}

	if len(report.GlobalInsights) > maxGlobalRecommendations {
		report.GlobalInsights = report.GlobalInsights[:maxGlobalRecommendations]
	}

	return report
}

// channelRecommendations maps one channel's risk factors and trend to
// prioritized recommendations.
func channelRecommendations(channel *ai.ChannelSummary) []string {
	var recommendations []string

	if channel.Metrics != nil {
		for _, factor := range channel.Metrics.RiskFactors {
			switch factor {
			case "no activity":
				recommendations = append(recommendations,
					"The channel was silent all week. Check whether the team has moved elsewhere or disengaged.")
			case "high negative sentiment":
				recommendations = append(recommendations,
					"Average sentiment is strongly negative. Talk to the team about current blockers and workload.")
			case "negative outweighs positive":
				recommendations = append(recommendations,
					"Negative messages clearly outnumber positive ones. Acknowledge wins publicly to rebalance tone.")
			case "low collaboration":
				recommendations = append(recommendations,
					"Few messages get thread replies. Encourage responding in threads instead of broadcasting.")
			case "very low volume":
				recommendations = append(recommendations,
					"Very few messages this week. Confirm the channel is still the team's primary space.")
			}
		}
	}

	if channel.Trend.SentimentDelta <= decliningSentimentDelta {
		recommendations = append(recommendations,
			"Sentiment dropped versus last week. Ask what changed before it becomes a pattern.")
	}

	if len(recommendations) > maxChannelRecommendations {
		recommendations = recommendations[:maxChannelRecommendations]
	}

	return recommendations
}

func joinNames(names []string) string {
	const maxNamed = 3

	if len(names) <= maxNamed {
		joined := names[0]
		for _, name := range names[1:] {
			joined += ", " + name
		}

		return joined
	}

	joined := names[0]
	for _, name := range names[1:maxNamed] {
		joined += ", " + name
	}

	return fmt.Sprintf("%s and %d more", joined, len(names)-maxNamed)
}
