package pg

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// Migrate brings the schema up to the newest migration at the root of
// migrations. Versions are tracked in cfg.MigrationsTable.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, cfg Config, log *slog.Logger) error {
	if migrations == nil {
		return errors.Join(ErrMigrate, ErrNoMigrations)
	}

	versions, err := database.NewStore(database.DialectPostgres, cfg.MigrationsTable)
	if err != nil {
		return errors.Join(ErrMigrate, err)
	}

	// Closing the bridge leaves the pool open.
	db := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider("", db, migrations, goose.WithStore(versions))
	if err != nil {
		_ = db.Close()
		return errors.Join(ErrMigrate, err)
	}
	defer func() {
		if err := provider.Close(); err != nil {
			log.WarnContext(ctx, "pg: close migration connection", "error", err)
		}
	}()

	applied, err := provider.Up(ctx)
	for _, r := range applied {
		log.InfoContext(ctx, "pg: migration applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration", r.Duration,
		)
	}
	if err != nil {
		return errors.Join(ErrMigrate, err)
	}
	return nil
}
