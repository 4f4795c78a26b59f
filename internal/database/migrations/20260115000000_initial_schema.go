package migrations

import (
	"context"
	"fmt"

	"github.com/teampulse/teampulse/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// Create tables
		models := []any{
			(*types.Channel)(nil),
			(*types.Message)(nil),
			(*types.WeeklyInsight)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		// Upserts are keyed by channel and window start
		_, err := db.NewRaw(`
			CREATE UNIQUE INDEX IF NOT EXISTS idx_weekly_insights_channel_window
			ON weekly_insights (channel_id, window_start)
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create insight window index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		tables := []string{"weekly_insights", "messages", "channels"}

		for _, table := range tables {
			_, err := db.NewRaw(fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, table)).Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}

		return nil
	})
}
