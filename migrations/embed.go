// Package migrations embeds the SQL schema for the counter state database.
//
// Importing this package for its side effect registers the files with the
// database package:
//
//	import _ "github.com/nerrad567/gray-logic-counter/migrations"
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-counter/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
