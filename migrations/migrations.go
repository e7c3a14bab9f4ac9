// Package migrations embeds the SQL migration files applied by the
// migrate CLI.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
