// Package insight turns weekly channel metrics into persisted health
// reports: burnout risk classification, week-over-week trends, and
// manager-facing recommendations.
package insight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/teampulse/teampulse/internal/ai"
	"github.com/teampulse/teampulse/internal/ai/client"
	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/teampulse/teampulse/internal/setup/config"
	"github.com/teampulse/teampulse/pkg/metrics"
	"go.uber.org/zap"
)

var (
	// ErrInvalidWindowStart is returned for week starts that are zero or
	// not aligned to a UTC day boundary.
	ErrInvalidWindowStart = errors.New("invalid window start")
	// ErrNoChannels is returned when no target channels could be resolved.
	ErrNoChannels = errors.New("no active channels")
)

// RunStatus is the terminal status of one insight run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunError   RunStatus = "error"
)

// RunSummary reports one weekly insight run.
type RunSummary struct {
	Status            RunStatus
	SucceededChannels []string
	FailedChannels    []string
	OverallRisk       types.RiskLevel
}

// ChannelDirectory resolves target channels.
type ChannelDirectory interface {
	GetActive(ctx context.Context) ([]*types.Channel, error)
	GetByID(ctx context.Context, id string) (*types.Channel, error)
}

// InsightStore persists weekly insights.
type InsightStore interface {
	Upsert(ctx context.Context, insight *types.WeeklyInsight) error
}

// MetricsProvider computes weekly metrics for one channel window.
type MetricsProvider interface {
	ComputeWeeklyMetrics(ctx context.Context, channelID string, windowStart time.Time) (*types.WeeklyMetrics, error)
}

// Generator produces AI-authored recommendations. Any error degrades the
// run to the rule-based path.
type Generator interface {
	GenerateInsights(ctx context.Context, request *ai.InsightRequest) (*ai.InsightReport, error)
}

// Engine orchestrates weekly insight generation.
type Engine struct {
	aggregator     MetricsProvider
	channels       ChannelDirectory
	insights       InsightStore
	generator      Generator
	risk           *config.Risk
	logger         *zap.Logger
	groupSize      int
	interGroupWait time.Duration
	runTimeout     time.Duration
}

// NewEngine creates a new insight engine.
func NewEngine(
	aggregator MetricsProvider, channels ChannelDirectory, insights InsightStore,
	generator Generator, cfg *config.Config, logger *zap.Logger,
) *Engine {
	groupSize := cfg.Worker.BatchSizes.MetricsChannels
	if groupSize <= 0 {
		groupSize = 5
	}

	runTimeout := time.Duration(cfg.Worker.ThresholdLimits.RunTimeout) * time.Second
	if runTimeout <= 0 {
		runTimeout = 10 * time.Minute
	}

	return &Engine{
		aggregator:     aggregator,
		channels:       channels,
		insights:       insights,
		generator:      generator,
		risk:           &cfg.Common.Risk,
		logger:         logger.Named("insight_engine"),
		groupSize:      groupSize,
		interGroupWait: time.Duration(cfg.Worker.ThresholdLimits.InterGroupPause) * time.Millisecond,
		runTimeout:     runTimeout,
	}
}

// channelResult is the per-channel intermediate state of one run.
type channelResult struct {
	channel  *types.Channel
	current  *types.WeeklyMetrics
	previous *types.WeeklyMetrics
	level    types.RiskLevel
	trend    types.Trend
}

// GenerateWeeklyInsights computes metrics, risk, trend, and recommendations
// for every target channel and upserts one WeeklyInsight per channel keyed
// by (channelID, windowStart). Reruns of the same window overwrite. The run
// degrades instead of failing wherever possible: a missing previous week
// drops trend data, an AI failure falls back to rule-based recommendations,
// and per-channel storage failures are isolated.
func (e *Engine) GenerateWeeklyInsights(
	ctx context.Context, windowStart time.Time, channelIDs []string, generatedBy types.GeneratedBy,
) (summary *RunSummary, err error) {
	summary = &RunSummary{Status: RunError, OverallRisk: types.RiskLow}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Insight run panicked", zap.Any("panic", r))

			summary.Status = RunError
			err = fmt.Errorf("insight run panicked: %v", r)
		}

		metrics.InsightRuns.WithLabelValues(string(summary.Status)).Inc()
	}()

	if err := validateWindowStart(windowStart); err != nil {
		return summary, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.runTimeout)
	defer cancel()

	// Resolve target channels
	channels, err := e.resolveChannels(ctx, channelIDs)
	if err != nil {
		return summary, err
	}

	// Current week metrics per channel; a failed channel drops out of the
	// run but does not fail it.
	results, failed := e.computeMetricsGrouped(ctx, channels, windowStart)
	summary.FailedChannels = append(summary.FailedChannels, failed...)

	if len(results) == 0 {
		return summary, fmt.Errorf("metrics computation failed for all %d channels", len(channels))
	}

	// Previous week is best-effort: failures degrade to "no trend data"
	e.attachPreviousWeek(ctx, results, windowStart.Add(-types.WindowDuration))

	levels := make([]types.RiskLevel, 0, len(results))

	for _, result := range results {
		result.level, _ = ClassifyChannelRisk(e.risk, result.current)
		result.trend = ComputeTrend(result.current, result.previous)
		levels = append(levels, result.level)
	}

	summary.OverallRisk = ClassifyOverallRisk(e.risk, levels)

	// Recommendations: AI-authored pass with a guaranteed rule-based fallback
	request := e.buildRequest(windowStart, summary.OverallRisk, results)
	report := e.generateReport(ctx, request)

	// Persist one insight per channel, isolating storage failures
	for _, result := range results {
		insight := e.buildInsight(result, report, windowStart, generatedBy)

		if err := e.insights.Upsert(ctx, insight); err != nil {
			summary.FailedChannels = append(summary.FailedChannels, result.channel.ID)

			e.logger.Error("Failed to upsert weekly insight",
				zap.String("channelID", result.channel.ID),
				zap.Error(err))

			continue
		}

		metrics.ChannelsProcessed.Inc()
		summary.SucceededChannels = append(summary.SucceededChannels, result.channel.ID)
	}

	switch {
	case len(summary.SucceededChannels) == 0:
		summary.Status = RunError
	case len(summary.FailedChannels) > 0:
		summary.Status = RunPartial
	default:
		summary.Status = RunSuccess
	}

	e.logger.Info("Weekly insight run finished",
		zap.String("status", string(summary.Status)),
		zap.Time("windowStart", windowStart),
		zap.Int("succeeded", len(summary.SucceededChannels)),
		zap.Int("failed", len(summary.FailedChannels)),
		zap.String("overallRisk", string(summary.OverallRisk)))

	return summary, nil
}

// resolveChannels returns the explicit targets, or all active channels.
func (e *Engine) resolveChannels(ctx context.Context, channelIDs []string) ([]*types.Channel, error) {
	if len(channelIDs) == 0 {
		channels, err := e.channels.GetActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active channels: %w", err)
		}

		if len(channels) == 0 {
			return nil, ErrNoChannels
		}

		return channels, nil
	}

	channels := make([]*types.Channel, 0, len(channelIDs))

	for _, id := range channelIDs {
		channel, err := e.channels.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve channel %s: %w", id, err)
		}

		channels = append(channels, channel)
	}

	return channels, nil
}

// computeMetricsGrouped computes current-week metrics in bounded parallel
// groups with a pause between groups, so one slow channel cannot starve the
// rest of the run.
func (e *Engine) computeMetricsGrouped(
	ctx context.Context, channels []*types.Channel, windowStart time.Time,
) ([]*channelResult, []string) {
	var (
		mu      sync.Mutex
		results []*channelResult
		failed  []string
	)

	for start := 0; start < len(channels); start += e.groupSize {
		end := min(start+e.groupSize, len(channels))
		group := channels[start:end]

		p := pool.New().WithContext(ctx)

		for _, channel := range group {
			p.Go(func(ctx context.Context) error {
				current, err := e.aggregator.ComputeWeeklyMetrics(ctx, channel.ID, windowStart)

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					failed = append(failed, channel.ID)

					e.logger.Error("Failed to compute weekly metrics",
						zap.String("channelID", channel.ID),
						zap.Error(err))

					return nil
				}

				results = append(results, &channelResult{channel: channel, current: current})

				return nil
			})
		}

		_ = p.Wait()

		if end < len(channels) && e.interGroupWait > 0 {
			time.Sleep(e.interGroupWait)
		}
	}

	return results, failed
}

// attachPreviousWeek fills in previous-week metrics best-effort. Any
// failure leaves the channel without trend data instead of failing the run.
func (e *Engine) attachPreviousWeek(ctx context.Context, results []*channelResult, previousStart time.Time) {
	for start := 0; start < len(results); start += e.groupSize {
		end := min(start+e.groupSize, len(results))

		p := pool.New().WithContext(ctx)

		for _, result := range results[start:end] {
			p.Go(func(ctx context.Context) error {
				previous, err := e.aggregator.ComputeWeeklyMetrics(ctx, result.channel.ID, previousStart)
				if err != nil {
					e.logger.Warn("No trend data for channel",
						zap.String("channelID", result.channel.ID),
						zap.Error(err))

					return nil
				}

				result.previous = previous

				return nil
			})
		}

		_ = p.Wait()

		if end < len(results) && e.interGroupWait > 0 {
			time.Sleep(e.interGroupWait)
		}
	}
}

// buildRequest assembles the weekly context handed to the generator.
func (e *Engine) buildRequest(
	windowStart time.Time, overallRisk types.RiskLevel, results []*channelResult,
) *ai.InsightRequest {
	request := &ai.InsightRequest{
		WindowStart: windowStart,
		WindowEnd:   types.WindowEnd(windowStart),
		OverallRisk: overallRisk,
		Channels:    make([]*ai.ChannelSummary, 0, len(results)),
	}

	for _, result := range results {
		request.Channels = append(request.Channels, &ai.ChannelSummary{
			ChannelID:   result.channel.ID,
			DisplayName: result.channel.DisplayName,
			Risk:        result.level,
			Metrics:     result.current,
			Trend:       result.trend,
		})
	}

	return request
}

// generateReport tries the AI pass and degrades to the rule-based
// generator on call failure, parse failure, or an open breaker. The
// rule-based path cannot fail, so a report always comes back.
func (e *Engine) generateReport(ctx context.Context, request *ai.InsightRequest) *ai.InsightReport {
	report, err := e.generator.GenerateInsights(ctx, request)
	if err != nil {
		reason := "generation failed"

		switch {
		case client.IsBreakerOpen(err):
			reason = "circuit breaker open"
		case errors.Is(err, ai.ErrUnparseableReply):
			reason = "unparseable reply"
		}

		e.logger.Warn("Falling back to rule-based insights",
			zap.String("reason", reason),
			zap.Error(err))

		metrics.InsightFallbacks.Inc()

		return GenerateRuleBasedInsights(e.risk, request)
	}

	// Enforce the same caps on the AI path
	if len(report.GlobalInsights) > maxGlobalRecommendations {
		report.GlobalInsights = report.GlobalInsights[:maxGlobalRecommendations]
	}

	for id, recommendations := range report.ChannelInsights {
		if len(recommendations) > maxChannelRecommendations {
			report.ChannelInsights[id] = recommendations[:maxChannelRecommendations]
		}
	}

	return report
}

// buildInsight builds the persisted record for one channel. Channels the
// report has no specific recommendations for fall back to the global ones.
func (e *Engine) buildInsight(
	result *channelResult, report *ai.InsightReport, windowStart time.Time, generatedBy types.GeneratedBy,
) *types.WeeklyInsight {
	recommendations := report.ChannelInsights[result.channel.ID]
	if len(recommendations) == 0 {
		recommendations = report.GlobalInsights
	}

	return &types.WeeklyInsight{
		ChannelID:       result.channel.ID,
		WindowStart:     windowStart,
		WindowEnd:       types.WindowEnd(windowStart),
		Metrics:         result.current,
		BurnoutRisk:     result.level,
		RiskFactors:     result.current.RiskFactors,
		Recommendations: recommendations,
		Trend:           result.trend,
		GeneratedBy:     generatedBy,
	}
}

// validateWindowStart rejects zero or unaligned week starts.
func validateWindowStart(windowStart time.Time) error {
	if windowStart.IsZero() {
		return fmt.Errorf("%w: zero time", ErrInvalidWindowStart)
	}

	if !windowStart.Equal(windowStart.UTC().Truncate(24 * time.Hour)) {
		return fmt.Errorf("%w: %s is not aligned to a UTC day", ErrInvalidWindowStart, windowStart)
	}

	return nil
}
