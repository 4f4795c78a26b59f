package models

import (
	"context"
	"fmt"
	"time"

	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// MessageModel handles database operations for messages.
type MessageModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewMessage creates a new message model.
func NewMessage(db *bun.DB, logger *zap.Logger) *MessageModel {
	return &MessageModel{
		db:     db,
		logger: logger.Named("db_message"),
	}
}

// GetByIDs retrieves messages by their IDs. Missing IDs are skipped.
func (r *MessageModel) GetByIDs(ctx context.Context, ids []string) ([]*types.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var messages []*types.Message

	err := r.db.NewSelect().
		Model(&messages).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages by ids: %w", err)
	}

	return messages, nil
}

// GetUnscored retrieves up to limit messages that carry text, are not
// deleted, and have not been scored yet, oldest first.
func (r *MessageModel) GetUnscored(ctx context.Context, limit int) ([]*types.Message, error) {
	var messages []*types.Message

	err := r.db.NewSelect().
		Model(&messages).
		Where("scored = FALSE").
		Where("is_deleted = FALSE").
		Where("text != ''").
		Order("posted_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get unscored messages: %w", err)
	}

	return messages, nil
}

// UpdateScore writes the score fields of a single message. The message is
// marked scored regardless of whether the score came from the classifier or
// a fallback.
func (r *MessageModel) UpdateScore(ctx context.Context, id string, score float64) error {
	now := time.Now().UTC()

	_, err := r.db.NewUpdate().
		Model((*types.Message)(nil)).
		Set("sentiment_score = ?", score).
		Set("scored = TRUE").
		Set("scored_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update message score: %w", err)
	}

	return nil
}

// MessagePage is one page of a channel window scan.
type MessagePage struct {
	Messages   []*types.Message
	NextCursor string
}

// GetChannelWindow scans scored, non-deleted messages for a channel within
// [start, end], using keyset pagination on (posted_at, id). An empty cursor
// starts from the beginning of the window; an empty NextCursor means the
// scan is exhausted.
func (r *MessageModel) GetChannelWindow(
	ctx context.Context, channelID string, start, end time.Time, cursor string, limit int,
) (*MessagePage, error) {
	query := r.db.NewSelect().
		Model((*types.Message)(nil)).
		Where("channel_id = ?", channelID).
		Where("posted_at >= ?", start).
		Where("posted_at <= ?", end).
		Where("scored = TRUE").
		Where("is_deleted = FALSE").
		Order("posted_at ASC", "id ASC").
		Limit(limit)

	if cursor != "" {
		cursorTime, cursorID, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}

		query = query.Where("(posted_at, id) > (?, ?)", cursorTime, cursorID)
	}

	var messages []*types.Message
	if err := query.Scan(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to scan channel window: %w", err)
	}

	page := &MessagePage{Messages: messages}
	if len(messages) == limit {
		last := messages[len(messages)-1]
		page.NextCursor = encodeCursor(last.PostedAt, last.ID)
	}

	return page, nil
}
