package pg_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/pg"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := pg.Connect(ctx, pg.Config{})
	assert.ErrorIs(t, err, pg.ErrNoConnString)

	_, err = pg.Connect(ctx, pg.Config{ConnectionString: "postgres://%zz"})
	assert.ErrorIs(t, err, pg.ErrParseConfig)

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = pg.Connect(ctx, pg.Config{
		ConnectionString: "postgres://nobody@127.0.0.1:1/none?connect_timeout=1",
		RetryAttempts:    3,
		RetryInterval:    time.Second,
	})
	assert.ErrorIs(t, err, pg.ErrUnavailable)
}

func TestMigrateWithoutMigrations(t *testing.T) {
	t.Parallel()

	err := pg.Migrate(context.Background(), nil, nil, pg.Config{}, logger.Discard())
	assert.ErrorIs(t, err, pg.ErrMigrate)
	assert.ErrorIs(t, err, pg.ErrNoMigrations)
}

func TestIsNoRows(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsNoRows(pgx.ErrNoRows))
	assert.True(t, pg.IsNoRows(fmt.Errorf("fetch item: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNoRows(nil))
}
