package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ErrInsightNotFound is returned when no insight exists for a channel window.
var ErrInsightNotFound = errors.New("weekly insight not found")

// InsightModel handles database operations for weekly insights.
type InsightModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewInsight creates a new insight model.
func NewInsight(db *bun.DB, logger *zap.Logger) *InsightModel {
	return &InsightModel{
		db:     db,
		logger: logger.Named("db_insight"),
	}
}

// Upsert inserts or overwrites the insight for (channel_id, window_start).
// Rerunning a window keeps exactly one row per channel.
func (r *InsightModel) Upsert(ctx context.Context, insight *types.WeeklyInsight) error {
	if insight.ID == uuid.Nil {
		insight.ID = uuid.New()
	}

	insight.GeneratedAt = time.Now().UTC()

	_, err := r.db.NewInsert().
		Model(insight).
		On("CONFLICT (channel_id, window_start) DO UPDATE").
		Set("window_end = EXCLUDED.window_end").
		Set("metrics = EXCLUDED.metrics").
		Set("burnout_risk = EXCLUDED.burnout_risk").
		Set("risk_factors = EXCLUDED.risk_factors").
		Set("recommendations = EXCLUDED.recommendations").
		Set("trend = EXCLUDED.trend").
		Set("generated_at = EXCLUDED.generated_at").
		Set("generated_by = EXCLUDED.generated_by").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly insight: %w", err)
	}

	return nil
}

// GetByChannelWindow retrieves the insight for one channel and window start.
func (r *InsightModel) GetByChannelWindow(
	ctx context.Context, channelID string, windowStart time.Time,
) (*types.WeeklyInsight, error) {
	insight := new(types.WeeklyInsight)

	err := r.db.NewSelect().
		Model(insight).
		Where("channel_id = ?", channelID).
		Where("window_start = ?", windowStart).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: channel %s", ErrInsightNotFound, channelID)
		}

		return nil, fmt.Errorf("failed to get weekly insight: %w", err)
	}

	return insight, nil
}

// GetByWindow retrieves all insights generated for a window start.
func (r *InsightModel) GetByWindow(ctx context.Context, windowStart time.Time) ([]*types.WeeklyInsight, error) {
	var insights []*types.WeeklyInsight

	err := r.db.NewSelect().
		Model(&insights).
		Where("window_start = ?", windowStart).
		Order("channel_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly insights: %w", err)
	}

	return insights, nil
}
