package db

import "embed"

// MigrationFS embeds the SQL migration files for the documents table.
// Used by the migrate runner (cmd/migrate) to apply migrations.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
