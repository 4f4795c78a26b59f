// Package insight runs the weekly insight generation schedule.
package insight

import (
	"context"
	"time"

	"github.com/teampulse/teampulse/internal/aggregation"
	"github.com/teampulse/teampulse/internal/ai"
	"github.com/teampulse/teampulse/internal/database/types"
	insightengine "github.com/teampulse/teampulse/internal/insight"
	"github.com/teampulse/teampulse/internal/setup"
	"github.com/teampulse/teampulse/internal/worker/core"
	"go.uber.org/zap"
)

// runDelay keeps the weekly run clear of the window boundary so late
// messages from the closing week still get swept and scored first.
const runDelay = 15 * time.Minute

// Worker generates weekly insights for every active channel.
type Worker struct {
	engine   *insightengine.Engine
	reporter *core.StatusReporter
	logger   *zap.Logger
}

// New creates a new insight worker.
func New(app *setup.App, logger *zap.Logger) *Worker {
	aggregator := aggregation.New(app.DB.Model().Message(), app.Config, logger)
	generator := ai.NewInsightAnalyzer(app.AIClient.Chat(), &app.Config.Common.OpenAI, logger)

	engine := insightengine.NewEngine(
		aggregator,
		app.DB.Model().Channel(),
		app.DB.Model().Insight(),
		generator,
		app.Config,
		logger,
	)

	return &Worker{
		engine:   engine,
		reporter: core.NewStatusReporter("insight", logger),
		logger:   logger.Named("insight_worker"),
	}
}

// Start begins the weekly schedule: after each week closes, the worker
// generates insights for the just-completed window.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Insight worker started")

	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	for {
		next := nextRun(time.Now().UTC())

		w.reporter.UpdateStatus("waiting for weekly run")
		w.logger.Info("Waiting for next weekly run", zap.Time("nextRun", next))

		select {
		case <-ctx.Done():
			w.logger.Info("Insight worker stopped")
			return
		case <-time.After(time.Until(next)):
		}

		windowStart := LastCompletedWindow(time.Now().UTC())
		w.RunOnce(ctx, windowStart, nil)
	}
}

// RunOnce triggers one insight run for the given window.
func (w *Worker) RunOnce(ctx context.Context, windowStart time.Time, channelIDs []string) {
	generatedBy := types.GeneratedBySystem
	if len(channelIDs) > 0 {
		generatedBy = types.GeneratedByManual
	}

	w.reporter.UpdateStatus("generating weekly insights")

	summary, err := w.engine.GenerateWeeklyInsights(ctx, windowStart, channelIDs, generatedBy)
	if err != nil {
		w.reporter.SetHealthy(false)
		w.logger.Error("Weekly insight run failed",
			zap.Time("windowStart", windowStart),
			zap.Error(err))

		return
	}

	w.reporter.SetHealthy(true)
	w.logger.Info("Weekly insight run completed",
		zap.String("status", string(summary.Status)),
		zap.Int("succeeded", len(summary.SucceededChannels)),
		zap.Int("failed", len(summary.FailedChannels)))
}

// LastCompletedWindow returns the start of the most recent fully elapsed
// 7-day window, anchored to UTC Mondays.
func LastCompletedWindow(now time.Time) time.Time {
	currentWeekStart := weekStart(now)
	return currentWeekStart.Add(-types.WindowDuration)
}

// weekStart returns the UTC Monday 00:00 of the week containing t.
func weekStart(t time.Time) time.Time {
	t = t.UTC()

	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	return day.AddDate(0, 0, -daysSinceMonday)
}

// nextRun returns the next weekly trigger time.
func nextRun(now time.Time) time.Time {
	start := weekStart(now).AddDate(0, 0, 7).Add(runDelay)
	if !start.After(now) {
		start = start.AddDate(0, 0, 7)
	}

	return start
}
