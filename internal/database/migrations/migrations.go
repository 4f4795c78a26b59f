// Package migrations registers the schema migrations run at startup.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every registered migration in order.
var Migrations = migrate.NewMigrations()
