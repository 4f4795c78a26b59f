package types

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel classifies burnout risk for a channel or the whole workspace.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// GeneratedBy records what triggered an insight run.
type GeneratedBy string

const (
	GeneratedBySystem GeneratedBy = "system"
	GeneratedByManual GeneratedBy = "manual"
)

// SentimentHistogram buckets scored messages by tone.
type SentimentHistogram struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// WeeklyMetrics is the reduced view of one channel's scored messages over a
// 7-day window. It is recomputed on every call and persisted only as a
// snapshot inside a WeeklyInsight.
type WeeklyMetrics struct {
	ChannelID            string             `json:"channelId"`
	WindowStart          time.Time          `json:"windowStart"`
	WindowEnd            time.Time          `json:"windowEnd"`
	AvgSentiment         float64            `json:"avgSentiment"`
	MessageCount         int                `json:"messageCount"`
	ActiveUserCount      int                `json:"activeUserCount"`
	ThreadReplyRatio     float64            `json:"threadReplyRatio"`
	AvgReactionsPerMsg   float64            `json:"avgReactionsPerMessage"`
	SentimentHistogram   SentimentHistogram `json:"sentimentHistogram"`
	RiskFactors          []string           `json:"riskFactors"`
	TruncatedAggregation bool               `json:"truncatedAggregation,omitempty"`
}

// Trend holds week-over-week deltas. Percentage deltas are clamped; a
// missing previous week yields all zeros.
type Trend struct {
	SentimentDelta     float64 `json:"sentimentDelta"`
	ActivityDeltaPct   float64 `json:"activityDeltaPct"`
	EngagementDeltaPct float64 `json:"engagementDeltaPct"`
}

// WeeklyInsight is the persisted weekly health report for one channel.
// Upserts are keyed by (channel_id, window_start) so reruns overwrite.
type WeeklyInsight struct {
	ID              uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	ChannelID       string         `bun:",notnull"      json:"channelId"`
	WindowStart     time.Time      `bun:",notnull"      json:"windowStart"`
	WindowEnd       time.Time      `bun:",notnull"      json:"windowEnd"`
	Metrics         *WeeklyMetrics `bun:",type:jsonb"   json:"metrics"`
	BurnoutRisk     RiskLevel      `bun:",notnull"      json:"burnoutRisk"`
	RiskFactors     []string       `bun:",type:jsonb"   json:"riskFactors"`
	Recommendations []string       `bun:",type:jsonb"   json:"recommendations"`
	Trend           Trend          `bun:",type:jsonb"   json:"trend"`
	GeneratedAt     time.Time      `bun:",notnull"      json:"generatedAt"`
	GeneratedBy     GeneratedBy    `bun:",notnull"      json:"generatedBy"`
}

// WindowDuration is the fixed aggregation window length.
const WindowDuration = 7 * 24 * time.Hour

// WindowEnd returns the inclusive end of the window beginning at start.
func WindowEnd(start time.Time) time.Time {
	return start.Add(WindowDuration - time.Millisecond)
}
