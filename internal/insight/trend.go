package insight

import (
	"math"

	"github.com/teampulse/teampulse/internal/database/types"
)

// Clamp bounds keep one pathological week from producing absurd deltas.
const (
	maxSentimentDelta  = 2.0
	maxPercentageDelta = 1000.0
)

// ComputeTrend compares the current week's metrics against the previous
// week. A missing previous week yields all-zero deltas. The engagement
// delta tracks the thread-reply ratio, the activity delta the message
// count; growth from zero reads as +100%.
func ComputeTrend(current, previous *types.WeeklyMetrics) types.Trend {
	if previous == nil || current == nil {
		return types.Trend{}
	}

	return types.Trend{
		SentimentDelta: clampFloat(
			current.AvgSentiment-previous.AvgSentiment, -maxSentimentDelta, maxSentimentDelta),
		ActivityDeltaPct: percentageChange(
			float64(previous.MessageCount), float64(current.MessageCount)),
		EngagementDeltaPct: percentageChange(
			previous.ThreadReplyRatio, current.ThreadReplyRatio),
	}
}

// percentageChange computes the clamped percent change from prev to cur.
// Growth from exactly zero is reported as +100%.
func percentageChange(prev, cur float64) float64 {
	switch {
	case prev == 0 && cur > 0:
		return 100
	case prev == 0:
		return 0
	}

	change := (cur - prev) / prev * 100

	return clampFloat(change, -maxPercentageDelta, maxPercentageDelta)
}

func clampFloat(value, low, high float64) float64 {
	return math.Min(math.Max(value, low), high)
}
