// Package migrations embeds the SQLite schema migrations.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
