package migrations

import "embed"

// Files holds the SQL migrations for the PostgreSQL record store.
//
//go:embed *.sql
var Files embed.FS
