// Package scorer drives the sentiment scoring pipeline: it partitions
// candidate messages into classifier sub-batches, validates the raw scores,
// and persists the results with per-message failure isolation.
package scorer

import (
	"context"
	"fmt"
	"time"

	"github.com/teampulse/teampulse/internal/ai"
	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/teampulse/teampulse/internal/setup/config"
	"github.com/teampulse/teampulse/pkg/metrics"
	"go.uber.org/zap"
)

// MessageStore is the slice of message persistence the scorer needs.
type MessageStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]*types.Message, error)
	GetUnscored(ctx context.Context, limit int) ([]*types.Message, error)
	UpdateScore(ctx context.Context, id string, score float64) error
}

// Classifier scores a batch of messages. Implementations never fail
// outward; terminal failures come back as degraded outcomes.
type Classifier interface {
	ScoreBatch(ctx context.Context, batch []*ai.MessageContent) *ai.BatchOutcome
}

// Summary reports one scoring run.
type Summary struct {
	ProcessedCount int
	FailedCount    int
	FailedIDs      []string
}

// Scorer scores stored messages in classifier-sized sub-batches.
type Scorer struct {
	store           MessageStore
	classifier      Classifier
	logger          *zap.Logger
	batchSize       int
	sweepPage       int
	interBatchDelay time.Duration
}

// New creates a new scorer.
func New(store MessageStore, classifier Classifier, cfg *config.WorkerConfig, logger *zap.Logger) *Scorer {
	batchSize := cfg.BatchSizes.ScoreBatch
	if batchSize <= 0 || batchSize > ai.MaxClassifierBatch {
		batchSize = ai.MaxClassifierBatch
	}

	sweepPage := cfg.BatchSizes.SweepPage
	if sweepPage <= 0 {
		sweepPage = 100
	}

	return &Scorer{
		store:           store,
		classifier:      classifier,
		logger:          logger.Named("scorer"),
		batchSize:       batchSize,
		sweepPage:       sweepPage,
		interBatchDelay: time.Duration(cfg.ThresholdLimits.InterBatchDelay) * time.Millisecond,
	}
}

// ScoreMessages scores the given messages and persists the results. Every
// message that undergoes a scoring attempt ends up scored, with a neutral
// fallback when the classifier or validation degrades. Persistence failures
// are isolated per message and collected, never aborting the run. The
// returned error is non-nil only for catastrophic failures.
func (s *Scorer) ScoreMessages(ctx context.Context, ids []string) (summary *Summary, err error) {
	summary = &Summary{}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scoring run panicked", zap.Any("panic", r))
			err = fmt.Errorf("scoring run panicked: %v", r)
		}
	}()

	if len(ids) == 0 {
		return summary, nil
	}

	messages, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	eligible, missing := s.partitionEligible(ids, messages)
	summary.FailedCount += len(missing)
	summary.FailedIDs = append(summary.FailedIDs, missing...)

	for start := 0; start < len(eligible); start += s.batchSize {
		end := min(start+s.batchSize, len(eligible))
		s.scoreSubBatch(ctx, eligible[start:end], summary)

		// Short pause between classifier calls to respect provider limits
		if end < len(eligible) && s.interBatchDelay > 0 {
			time.Sleep(s.interBatchDelay)
		}
	}

	s.logger.Info("Scoring run finished",
		zap.Int("requested", len(ids)),
		zap.Int("processed", summary.ProcessedCount),
		zap.Int("failed", summary.FailedCount))

	return summary, nil
}

// SweepUnscored pulls one page of eligible messages and scores them. Once
// the backlog is empty it is an idempotent no-op.
func (s *Scorer) SweepUnscored(ctx context.Context) (*Summary, error) {
	messages, err := s.store.GetUnscored(ctx, s.sweepPage)
	if err != nil {
		return nil, fmt.Errorf("failed to load unscored messages: %w", err)
	}

	metrics.SweepBacklog.Set(float64(len(messages)))

	if len(messages) == 0 {
		return &Summary{}, nil
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}

	s.logger.Debug("Sweeping unscored messages", zap.Int("count", len(ids)))

	return s.ScoreMessages(ctx, ids)
}

// partitionEligible keeps messages that still need scoring and reports the
// requested IDs that could not be loaded at all.
func (s *Scorer) partitionEligible(ids []string, messages []*types.Message) ([]*types.Message, []string) {
	found := make(map[string]struct{}, len(messages))
	eligible := make([]*types.Message, 0, len(messages))

	for _, msg := range messages {
		found[msg.ID] = struct{}{}

		if msg.Scored || msg.IsDeleted || msg.Text == "" {
			s.logger.Debug("Skipping ineligible message", zap.String("messageID", msg.ID))
			continue
		}

		eligible = append(eligible, msg)
	}

	var missing []string

	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}

	return eligible, missing
}

// scoreSubBatch classifies one sub-batch and persists each validated score.
func (s *Scorer) scoreSubBatch(ctx context.Context, batch []*types.Message, summary *Summary) {
	contents := make([]*ai.MessageContent, 0, len(batch))
	for _, msg := range batch {
		contents = append(contents, &ai.MessageContent{
			ID:        msg.ID,
			Text:      msg.Text,
			Author:    msg.AuthorID,
			Timestamp: msg.PostedAt,
		})
	}

	outcome := s.classifier.ScoreBatch(ctx, contents)
	validation := ValidateBatch(outcome.Results)

	if outcome.Degraded {
		s.logger.Warn("Sub-batch degraded to fallback scores",
			zap.String("reason", outcome.Reason),
			zap.Int("batchSize", len(batch)))
	}

	if len(validation.Errors) > 0 {
		s.logger.Debug("Validation corrected classifier results",
			zap.Strings("errors", validation.Errors))
	}

	for _, validated := range validation.Results {
		if outcome.Degraded || validated.Invalid {
			metrics.ScoreFallbacks.Inc()
		}

		if err := s.store.UpdateScore(ctx, validated.MessageID, validated.Score); err != nil {
			metrics.ScoreStoreErrors.Inc()
			summary.FailedCount++
			summary.FailedIDs = append(summary.FailedIDs, validated.MessageID)

			s.logger.Error("Failed to persist message score",
				zap.String("messageID", validated.MessageID),
				zap.Error(err))

			continue
		}

		metrics.MessagesScored.Inc()
		summary.ProcessedCount++
	}
}
