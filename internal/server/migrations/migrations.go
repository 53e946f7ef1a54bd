// Package migrations embeds the goose SQL migrations applied at startup.
// Every statement is create-if-absent so re-running against an existing
// schema is a no-op, and the SQL stays valid for both PostgreSQL and SQLite.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
