package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ErrChannelNotFound is returned when a channel ID does not exist.
var ErrChannelNotFound = errors.New("channel not found")

// ChannelModel handles database operations for channels.
type ChannelModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewChannel creates a new channel model.
func NewChannel(db *bun.DB, logger *zap.Logger) *ChannelModel {
	return &ChannelModel{
		db:     db,
		logger: logger.Named("db_channel"),
	}
}

// GetActive retrieves all active channels ordered by display name.
func (r *ChannelModel) GetActive(ctx context.Context) ([]*types.Channel, error) {
	var channels []*types.Channel

	err := r.db.NewSelect().
		Model(&channels).
		Where("is_active = TRUE").
		Order("display_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active channels: %w", err)
	}

	return channels, nil
}

// GetByID retrieves a single channel.
func (r *ChannelModel) GetByID(ctx context.Context, id string) (*types.Channel, error) {
	channel := new(types.Channel)

	err := r.db.NewSelect().
		Model(channel).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, id)
		}

		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return channel, nil
}
