// Package db carries the SQL migrations compiled into the binary.
package db

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var content embed.FS

// MigrationsFS holds the migrations under "migrations/".
func MigrationsFS() fs.FS {
	return content
}
