// Package migrations embeds the PostgreSQL schema as golang-migrate
// up/down files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
