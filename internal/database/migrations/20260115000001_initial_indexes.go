package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			// Sweep scans for unscored, undeleted text messages
			`CREATE INDEX IF NOT EXISTS idx_messages_unscored
				ON messages (posted_at)
				WHERE scored = FALSE AND is_deleted = FALSE`,
			// Weekly aggregation scans a channel window in keyset order
			`CREATE INDEX IF NOT EXISTS idx_messages_channel_window
				ON messages (channel_id, posted_at, id)
				WHERE scored = TRUE AND is_deleted = FALSE`,
			`CREATE INDEX IF NOT EXISTS idx_channels_active
				ON channels (display_name)
				WHERE is_active = TRUE`,
		}

		for _, index := range indexes {
			if _, err := db.NewRaw(index).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"idx_messages_unscored",
			"idx_messages_channel_window",
			"idx_channels_active",
		}

		for _, index := range indexes {
			if _, err := db.NewRaw(fmt.Sprintf(`DROP INDEX IF EXISTS %s`, index)).Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop index: %w", err)
			}
		}

		return nil
	})
}
