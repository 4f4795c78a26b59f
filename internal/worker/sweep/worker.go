// Package sweep runs the periodic scoring sweep over unscored messages.
package sweep

import (
	"context"
	"time"

	"github.com/teampulse/teampulse/internal/ai"
	"github.com/teampulse/teampulse/internal/scorer"
	"github.com/teampulse/teampulse/internal/setup"
	"github.com/teampulse/teampulse/internal/worker/core"
	"go.uber.org/zap"
)

// Worker periodically scores the unscored message backlog.
type Worker struct {
	scorer   *scorer.Scorer
	reporter *core.StatusReporter
	logger   *zap.Logger
	interval time.Duration
}

// New creates a new sweep worker.
func New(app *setup.App, logger *zap.Logger) *Worker {
	analyzer := ai.NewSentimentAnalyzer(app.AIClient.Chat(), &app.Config.Common.OpenAI, logger)

	interval := time.Duration(app.Config.Worker.ThresholdLimits.SweepInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	return &Worker{
		scorer:   scorer.New(app.DB.Model().Message(), analyzer, &app.Config.Worker, logger),
		reporter: core.NewStatusReporter("sweep", logger),
		logger:   logger.Named("sweep_worker"),
		interval: interval,
	}
}

// Start begins the sweep worker's main loop. A sweep that fills its page
// runs again immediately to drain the backlog; otherwise the worker sleeps
// for the configured interval.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Sweep worker started", zap.Duration("interval", w.interval))

	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	for {
		if ctx.Err() != nil {
			w.logger.Info("Sweep worker stopped")
			return
		}

		w.reporter.UpdateStatus("sweeping unscored messages")

		summary, err := w.scorer.SweepUnscored(ctx)
		if err != nil {
			w.reporter.SetHealthy(false)
			w.logger.Error("Sweep failed", zap.Error(err))
		} else {
			w.reporter.SetHealthy(true)

			if summary.ProcessedCount > 0 || summary.FailedCount > 0 {
				w.logger.Info("Sweep finished",
					zap.Int("processed", summary.ProcessedCount),
					zap.Int("failed", summary.FailedCount))

				// Backlog may be deeper than one page
				continue
			}
		}

		w.reporter.UpdateStatus("idle")

		select {
		case <-ctx.Done():
			w.logger.Info("Sweep worker stopped")
			return
		case <-time.After(w.interval):
		}
	}
}
