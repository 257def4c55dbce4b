// Package migrations embeds the SQL schema migrations for the gamestore
// database. Files are applied in lexical order by database.RunMigrations.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
