package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNoConnString = errors.New("pg: connection string is empty, set PG_CONN_URL")
	ErrParseConfig  = errors.New("pg: invalid connection string")
	ErrUnavailable  = errors.New("pg: database unavailable")
	ErrMigrate      = errors.New("pg: schema migration failed")
	ErrNoMigrations = errors.New("pg: no migrations given")
)

// IsNoRows reports whether a single-row query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
