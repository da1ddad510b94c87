package authenticator_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authenticator"
	"github.com/dmitrymomot/authenticator/pkg/config"
	"github.com/dmitrymomot/authenticator/pkg/importer"
	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/secrets"
	"github.com/dmitrymomot/authenticator/pkg/shared"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults derive from data dir", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfg, err := authenticator.LoadConfig(config.WithEnviron(map[string]string{
			"AUTHENTICATOR_DATA_DIR": dir,
		}))
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.Env)
		assert.Equal(t, authenticator.StoreSQLite, cfg.Store)
		assert.Equal(t, authenticator.SharedNone, cfg.SharedSource)
		assert.Equal(t, authenticator.ExportLocal, cfg.ExportTarget)
		assert.Equal(t, filepath.Join(dir, "items.db"), cfg.SQLitePath)
		assert.Equal(t, filepath.Join(dir, "key"), cfg.KeyFile)
		assert.Equal(t, filepath.Join(dir, "flags.yaml"), cfg.FlagsFile)
		assert.Equal(t, dir, cfg.ExportDir)
		assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.ConnectionURL)
		assert.Equal(t, "authenticator_migrations", cfg.Postgres.MigrationsTable)
	})

	t.Run("explicit values win", func(t *testing.T) {
		t.Parallel()

		cfg, err := authenticator.LoadConfig(config.WithEnviron(map[string]string{
			"AUTHENTICATOR_DATA_DIR":      "/data",
			"AUTHENTICATOR_STORE":         "postgres",
			"PG_CONN_URL":                 "postgres://localhost/authenticator",
			"AUTHENTICATOR_SHARED_SOURCE": "redis",
			"AUTHENTICATOR_EXPORT_TARGET": "s3",
			"S3_BUCKET":                   "exports",
			"AUTHENTICATOR_KEY_FILE":      "/secrets/key",
		}))
		require.NoError(t, err)

		assert.Equal(t, authenticator.StorePostgres, cfg.Store)
		assert.Equal(t, authenticator.SharedRedis, cfg.SharedSource)
		assert.Equal(t, authenticator.ExportS3, cfg.ExportTarget)
		assert.Equal(t, "exports", cfg.S3.Bucket)
		assert.Equal(t, "/secrets/key", cfg.KeyFile)
	})

	t.Run("invalid selections", func(t *testing.T) {
		t.Parallel()

		tests := map[string]map[string]string{
			"unknown store":         {"AUTHENTICATOR_STORE": "mongo"},
			"postgres without url":  {"AUTHENTICATOR_STORE": "postgres"},
			"unknown shared source": {"AUTHENTICATOR_SHARED_SOURCE": "kafka"},
			"unknown export target": {"AUTHENTICATOR_EXPORT_TARGET": "ftp"},
			"s3 without bucket":     {"AUTHENTICATOR_EXPORT_TARGET": "s3"},
			"unknown log format":    {"LOG_FORMAT": "xml"},
		}
		for name, vars := range tests {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				vars["AUTHENTICATOR_DATA_DIR"] = "/data"
				_, err := authenticator.LoadConfig(config.WithEnviron(vars))
				require.ErrorIs(t, err, authenticator.ErrInvalidConfig)
			})
		}
	})
}

func testConfig(t *testing.T) authenticator.Config {
	t.Helper()

	cfg, err := authenticator.LoadConfig(config.WithEnviron(map[string]string{
		"AUTHENTICATOR_DATA_DIR": t.TempDir(),
		"AUTHENTICATOR_STORE":    "memory",
	}))
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := testConfig(t)

	app, err := authenticator.New(ctx, cfg, authenticator.WithLogger(logger.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	view := item.View{ID: "github", Name: "GitHub", TOTPKey: item.Ptr("JBSWY3DPEHPK3PXP")}
	require.NoError(t, app.Repository.Add(ctx, view))

	got, err := app.Repository.Fetch(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, view, got)

	stored, err := app.Store.Fetch(ctx, "github")
	require.NoError(t, err)
	assert.NotContains(t, stored.Name, "GitHub", "store holds sealed values")

	key, err := os.ReadFile(cfg.KeyFile)
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	location, err := app.Exporter.Export(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(location, cfg.ExportDir))

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"totpKey":"JBSWY3DPEHPK3PXP"`)
}

func TestNew_ImportThroughRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	app, err := authenticator.New(ctx, testConfig(t),
		authenticator.WithLogger(logger.Discard()),
		authenticator.WithKeyStore(secrets.NewMemoryKeyStore()),
		authenticator.WithStore(item.NewMemoryStore()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	data := []byte(`[{"issuer":"Example","account":"me","secret":"JBSWY3DPEHPK3PXP","algorithm":"SHA1","digits":"6","timer":"30","kind":"TOTP","pinned":"0"}]`)
	n, err := app.Importer.Import(ctx, importer.FormatRaivoJSON, data)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	views, err := app.Repository.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Example", views[0].Name)
}

func TestNew_SharedSourceWithoutFlag(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src := shared.NewMemorySource(shared.Item{ID: "s1", Name: "Shared", TOTPKey: item.Ptr("JBSWY3DPEHPK3PXP")})
	require.NoError(t, src.SetSyncEnabled(true))
	t.Cleanup(func() { _ = src.Close() })

	app, err := authenticator.New(ctx, testConfig(t),
		authenticator.WithLogger(logger.Discard()),
		authenticator.WithKeyStore(secrets.NewMemoryKeyStore()),
		authenticator.WithSharedSource(src),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.NoError(t, app.Repository.Add(ctx, item.View{ID: "a", Name: "Local", TOTPKey: item.Ptr("JBSWY3DPEHPK3PXP")}))

	for res := range app.Repository.ItemList(ctx) {
		require.NoError(t, res.Err)
		if len(res.Sections) == 0 {
			continue
		}
		require.Len(t, res.Sections, 1)
		assert.Equal(t, item.SectionUnorganized, res.Sections[0].ID)
		return
	}
	t.Fatal("item list closed before emitting")
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Store = "unknown"

	_, err := authenticator.New(context.Background(), cfg, authenticator.WithLogger(logger.Discard()))
	require.ErrorIs(t, err, authenticator.ErrInvalidConfig)
}

func TestNew_SetupFailureReleasesResources(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	cfg.ExportDir = filepath.Join(blocker, "exports")

	_, err := authenticator.New(context.Background(), cfg, authenticator.WithLogger(logger.Discard()))
	require.ErrorIs(t, err, authenticator.ErrSetupFailed)
}
