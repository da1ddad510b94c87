package item

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteDriver is the database/sql driver name registered by modernc.org/sqlite.
const SQLiteDriver = "sqlite"

// SQLStore persists items in SQLite through database/sql.
type SQLStore struct {
	db   *sql.DB
	feed *changeFeed
}

// OpenSQLite opens the SQLite database at dsn (a file path, or ":memory:")
// and applies the schema migrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open(SQLiteDriver, dsn)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	// SQLite allows a single writer; one connection also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	store, err := NewSQLStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore migrates db and returns a store on top of it.
func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, SQLiteMigrations())
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	s := &SQLStore{db: db}
	s.feed = newChangeFeed(s.FetchAll)
	return s, nil
}

func (s *SQLStore) Add(ctx context.Context, it Item) error {
	if err := it.Validate(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO authenticator_items (id, favorite, name, totp_key, username)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		it.ID, it.Favorite, it.Name, it.TOTPKey, it.Username)
	if err := expectRow(res, err, ErrItemExists); err != nil {
		return err
	}
	return s.feed.publish(ctx)
}

func (s *SQLStore) Update(ctx context.Context, it Item) error {
	if err := it.Validate(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE authenticator_items
		SET favorite = ?, name = ?, totp_key = ?, username = ?
		WHERE id = ?`,
		it.Favorite, it.Name, it.TOTPKey, it.Username, it.ID)
	if err := expectRow(res, err, ErrItemNotFound); err != nil {
		return err
	}
	return s.feed.publish(ctx)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM authenticator_items WHERE id = ?`, id)
	if err := expectRow(res, err, ErrItemNotFound); err != nil {
		return err
	}
	return s.feed.publish(ctx)
}

func (s *SQLStore) Fetch(ctx context.Context, id string) (Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, favorite, name, totp_key, username FROM authenticator_items WHERE id = ?`, id)

	var it Item
	err := row.Scan(&it.ID, &it.Favorite, &it.Name, &it.TOTPKey, &it.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *SQLStore) FetchAll(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, favorite, name, totp_key, username FROM authenticator_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Favorite, &it.Name, &it.TOTPKey, &it.Username); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SQLStore) Changes(ctx context.Context) (<-chan []Item, error) {
	return s.feed.subscribe(ctx)
}

// Close ends every change stream and closes the database.
func (s *SQLStore) Close() error {
	return errors.Join(s.feed.close(), s.db.Close())
}

// expectRow turns a statement that touched no row into missing.
func expectRow(res sql.Result, err error, missing error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
