// Package migrations embeds the SQLite schema migrations for catalog storage.
package migrations

import "embed"

// FS contains embedded SQLite migrations for catalog storage.
//
//go:embed *.sql
var FS embed.FS
