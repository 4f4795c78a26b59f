package database

import (
	"github.com/teampulse/teampulse/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	message *models.MessageModel
	channel *models.ChannelModel
	insight *models.InsightModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		message: models.NewMessage(db, logger),
		channel: models.NewChannel(db, logger),
		insight: models.NewInsight(db, logger),
	}
}

// Message returns the message model repository.
func (r *Repository) Message() *models.MessageModel {
	return r.message
}

// Channel returns the channel model repository.
func (r *Repository) Channel() *models.ChannelModel {
	return r.channel
}

// Insight returns the insight model repository.
func (r *Repository) Insight() *models.InsightModel {
	return r.insight
}
