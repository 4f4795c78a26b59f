package insight

import (
	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/teampulse/teampulse/internal/setup/config"
)

// Point weights for the channel risk score. The four signal groups sum to
// at most 10.
const (
	pointsHighNegativeSentiment = 4
	pointsMildNegativeSentiment = 2
	pointsNegativeOutweighs     = 2
	pointsLowCollaboration      = 2
	pointsVeryLowVolume         = 2
)

// ClassifyChannelRisk scores a channel's week on a 0-10 point scale from
// sentiment, engagement, volume, and negative-ratio signals, then maps the
// score to a risk level using the configured cutoffs.
func ClassifyChannelRisk(risk *config.Risk, metrics *types.WeeklyMetrics) (types.RiskLevel, float64) {
	var score float64

	switch {
	case metrics.AvgSentiment < risk.HighNegativeSentiment:
		score += pointsHighNegativeSentiment
	case metrics.AvgSentiment < risk.MildNegativeSentiment:
		score += pointsMildNegativeSentiment
	}

	if float64(metrics.SentimentHistogram.Negative) >
		risk.NegativeRatio*float64(metrics.SentimentHistogram.Positive) {
		score += pointsNegativeOutweighs
	}

	if metrics.MessageCount >= risk.LowCollaborationMinMessages &&
		metrics.ThreadReplyRatio < risk.LowCollaborationRatio {
		score += pointsLowCollaboration
	}

	if metrics.MessageCount < risk.VeryLowVolume {
		score += pointsVeryLowVolume
	}

	switch {
	case score >= risk.ChannelHighScore:
		return types.RiskHigh, score
	case score >= risk.ChannelMediumScore:
		return types.RiskMedium, score
	default:
		return types.RiskLow, score
	}
}

// ClassifyOverallRisk reduces the per-channel risk levels to one workspace
// level from the fraction of channels at each level.
func ClassifyOverallRisk(risk *config.Risk, levels []types.RiskLevel) types.RiskLevel {
	if len(levels) == 0 {
		return types.RiskLow
	}

	var high, medium int

	for _, level := range levels {
		switch level {
		case types.RiskHigh:
			high++
		case types.RiskMedium:
			medium++
		case types.RiskLow:
		}
	}

	total := float64(len(levels))
	highFraction := float64(high) / total
	mediumFraction := float64(medium) / total

	switch {
	case highFraction > risk.OverallHighFraction:
		return types.RiskHigh
	case highFraction > risk.OverallCombinedHighFraction && mediumFraction > risk.OverallCombinedMediumFraction:
		return types.RiskHigh
	case mediumFraction > risk.OverallMediumFraction || highFraction > risk.OverallCombinedHighFraction:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}
