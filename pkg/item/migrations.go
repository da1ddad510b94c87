package item

import (
	"embed"
	"io/fs"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// SQLiteMigrations returns the goose migrations for the SQLite schema.
func SQLiteMigrations() fs.FS {
	return mustSub(sqliteMigrations, "migrations/sqlite")
}

// PostgresMigrations returns the goose migrations for the Postgres schema.
func PostgresMigrations() fs.FS {
	return mustSub(postgresMigrations, "migrations/postgres")
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
