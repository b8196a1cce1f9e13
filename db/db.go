// Package db holds the SQL schema migrations, embedded into the binary.
package db

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migration files rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic("db: embedded migrations missing: " + err.Error())
	}
	return sub
}
