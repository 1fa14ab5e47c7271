// Package migrations embeds Accounts' schema so cmd/accounts can apply it
// at startup via platform/dbmigrate, without shipping bare .sql files
// alongside the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
