package item

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authenticator/pkg/pg"
)

// PostgresStore persists items in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	feed *changeFeed
}

// NewPostgresStore applies the schema migrations and returns a store on pool.
// The pool stays owned by the caller.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) (*PostgresStore, error) {
	if err := pg.Migrate(ctx, pool, PostgresMigrations(), cfg, log); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	s := &PostgresStore{pool: pool}
	s.feed = newChangeFeed(s.FetchAll)
	return s, nil
}

func (s *PostgresStore) Add(ctx context.Context, it Item) error {
	if err := it.Validate(); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO authenticator_items (id, favorite, name, totp_key, username)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		it.ID, it.Favorite, it.Name, it.TOTPKey, it.Username)
	if err := expectTag(tag, err, ErrItemExists); err != nil {
		return err
	}
	return s.feed.publish(ctx)
}

func (s *PostgresStore) Update(ctx context.Context, it Item) error {
	if err := it.Validate(); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE authenticator_items
		SET favorite = $2, name = $3, totp_key = $4, username = $5
		WHERE id = $1`,
		it.ID, it.Favorite, it.Name, it.TOTPKey, it.Username)
	if err := expectTag(tag, err, ErrItemNotFound); err != nil {
		return err
	}
	return s.feed.publish(ctx)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM authenticator_items WHERE id = $1`, id)
	if err := expectTag(tag, err, ErrItemNotFound); err != nil {
		return err
	}
	return s.feed.publish(ctx)
}

func (s *PostgresStore) Fetch(ctx context.Context, id string) (Item, error) {
	var it Item
	err := s.pool.QueryRow(ctx,
		`SELECT id, favorite, name, totp_key, username FROM authenticator_items WHERE id = $1`, id).
		Scan(&it.ID, &it.Favorite, &it.Name, &it.TOTPKey, &it.Username)
	if pg.IsNoRows(err) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *PostgresStore) FetchAll(ctx context.Context) ([]Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, favorite, name, totp_key, username FROM authenticator_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Item, error) {
		var it Item
		err := row.Scan(&it.ID, &it.Favorite, &it.Name, &it.TOTPKey, &it.Username)
		return it, err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *PostgresStore) Changes(ctx context.Context) (<-chan []Item, error) {
	return s.feed.subscribe(ctx)
}

// Close ends every change stream. The pool is left open.
func (s *PostgresStore) Close() error {
	return s.feed.close()
}

func expectTag(tag pgconn.CommandTag, err error, missing error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return missing
	}
	return nil
}
