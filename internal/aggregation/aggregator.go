// Package aggregation reduces a channel's scored messages over one 7-day
// window into weekly metrics and heuristic risk factors.
package aggregation

import (
	"context"
	"fmt"
	"time"

	"github.com/teampulse/teampulse/internal/database/models"
	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/teampulse/teampulse/internal/setup/config"
	"go.uber.org/zap"
)

// Histogram bucket edges: scores above positive are positive, below
// negative are negative, everything else neutral.
const (
	positiveBucketEdge = 0.1
	negativeBucketEdge = -0.1
)

// WindowStore is the slice of message persistence the aggregator needs.
type WindowStore interface {
	GetChannelWindow(
		ctx context.Context, channelID string, start, end time.Time, cursor string, limit int,
	) (*models.MessagePage, error)
}

// Aggregator computes weekly metrics with bounded pagination.
type Aggregator struct {
	store       WindowStore
	risk        *config.Risk
	logger      *zap.Logger
	pageSize    int
	maxPages    int
	maxMessages int
}

// New creates a new aggregator.
func New(store WindowStore, cfg *config.Config, logger *zap.Logger) *Aggregator {
	limits := cfg.Worker.ThresholdLimits

	pageSize := limits.MetricsPageSize
	if pageSize <= 0 {
		pageSize = 200
	}

	maxPages := limits.MaxMetricsPages
	if maxPages <= 0 {
		maxPages = 50
	}

	maxMessages := limits.MaxMetricsMessages
	if maxMessages <= 0 {
		maxMessages = 5000
	}

	return &Aggregator{
		store:       store,
		risk:        &cfg.Common.Risk,
		logger:      logger.Named("aggregation"),
		pageSize:    pageSize,
		maxPages:    maxPages,
		maxMessages: maxMessages,
	}
}

// ComputeWeeklyMetrics scans the channel's scored, non-deleted messages in
// [windowStart, windowStart+7d-1ms] and reduces them. Pagination is bounded
// by both a page-count and a total-message cap; hitting a cap excludes the
// excess messages rather than failing, so the scan always terminates.
func (a *Aggregator) ComputeWeeklyMetrics(
	ctx context.Context, channelID string, windowStart time.Time,
) (*types.WeeklyMetrics, error) {
	windowEnd := types.WindowEnd(windowStart)

	var (
		collected []*types.Message
		cursor    string
		truncated bool
	)

	for page := 0; page < a.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("aggregation cancelled: %w", err)
		}

		result, err := a.store.GetChannelWindow(ctx, channelID, windowStart, windowEnd, cursor, a.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to scan window for channel %s: %w", channelID, err)
		}

		for _, msg := range result.Messages {
			if len(collected) >= a.maxMessages {
				truncated = true
				break
			}

			collected = append(collected, msg)
		}

		cursor = result.NextCursor
		if cursor == "" || truncated {
			break
		}

		if page == a.maxPages-1 {
			truncated = true
		}
	}

	if truncated {
		a.logger.Warn("Aggregation window truncated",
			zap.String("channelID", channelID),
			zap.Int("collected", len(collected)))
	}

	metrics := a.reduce(channelID, windowStart, windowEnd, collected)
	metrics.TruncatedAggregation = truncated
	metrics.RiskFactors = a.ComputeRiskFactors(metrics)

	return metrics, nil
}

// reduce folds the collected messages into a metrics record.
func (a *Aggregator) reduce(
	channelID string, windowStart, windowEnd time.Time, messages []*types.Message,
) *types.WeeklyMetrics {
	metrics := &types.WeeklyMetrics{
		ChannelID:   channelID,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}

	if len(messages) == 0 {
		return metrics
	}

	var (
		sentimentSum  float64
		threadReplies int
		reactionSum   int
		authors       = make(map[string]struct{})
	)

	for _, msg := range messages {
		sentimentSum += msg.SentimentScore
		reactionSum += msg.TotalReactions()
		authors[msg.AuthorID] = struct{}{}

		if msg.IsThreadReply() {
			threadReplies++
		}

		switch {
		case msg.SentimentScore > positiveBucketEdge:
			metrics.SentimentHistogram.Positive++
		case msg.SentimentScore < negativeBucketEdge:
			metrics.SentimentHistogram.Negative++
		default:
			metrics.SentimentHistogram.Neutral++
		}
	}

	count := len(messages)
	metrics.MessageCount = count
	metrics.ActiveUserCount = len(authors)
	metrics.AvgSentiment = sentimentSum / float64(count)
	metrics.ThreadReplyRatio = float64(threadReplies) / float64(count)
	metrics.AvgReactionsPerMsg = float64(reactionSum) / float64(count)

	return metrics
}

// ComputeRiskFactors applies the ordered heuristic rule set. Each rule is
// independent and appends zero or one factor, in rule-definition order.
func (a *Aggregator) ComputeRiskFactors(metrics *types.WeeklyMetrics) []string {
	factors := make([]string, 0, 4)

	if metrics.MessageCount == 0 {
		factors = append(factors, "no activity")
		return factors
	}

	if metrics.AvgSentiment < a.risk.HighNegativeSentiment {
		factors = append(factors, "high negative sentiment")
	}

	if float64(metrics.SentimentHistogram.Negative) >
		a.risk.NegativeRatio*float64(metrics.SentimentHistogram.Positive) {
		factors = append(factors, "negative outweighs positive")
	}

	if metrics.MessageCount >= a.risk.LowCollaborationMinMessages &&
		metrics.ThreadReplyRatio < a.risk.LowCollaborationRatio {
		factors = append(factors, "low collaboration")
	}

	if metrics.MessageCount < a.risk.VeryLowVolume {
		factors = append(factors, "very low volume")
	}

	return factors
}
