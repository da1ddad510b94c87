package authenticator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/authenticator/pkg/config"
	"github.com/dmitrymomot/authenticator/pkg/file"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/pg"
	"github.com/dmitrymomot/authenticator/pkg/redis"
)

// Item store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Shared item sources.
const (
	SharedNone  = "none"
	SharedRedis = "redis"
)

// Export targets.
const (
	ExportLocal = "local"
	ExportS3    = "s3"
)

// Config is the process configuration, read from the environment.
//
// Paths left empty are derived from DataDir, which itself defaults to
// <user config dir>/authenticator. A missing flags file leaves every flag off.
type Config struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
	LogFile   string `env:"LOG_FILE"`

	DataDir      string `env:"AUTHENTICATOR_DATA_DIR"`
	Store        string `env:"AUTHENTICATOR_STORE" envDefault:"sqlite"`
	SQLitePath   string `env:"AUTHENTICATOR_SQLITE_PATH"`
	KeyFile      string `env:"AUTHENTICATOR_KEY_FILE"`
	FlagsFile    string `env:"AUTHENTICATOR_FLAGS_FILE"`
	SharedSource string `env:"AUTHENTICATOR_SHARED_SOURCE" envDefault:"none"`
	SharedPrefix string `env:"AUTHENTICATOR_SHARED_PREFIX" envDefault:"authenticator:shared"`
	ExportTarget string `env:"AUTHENTICATOR_EXPORT_TARGET" envDefault:"local"`
	ExportDir    string `env:"AUTHENTICATOR_EXPORT_DIR"`

	Postgres pg.Config
	Redis    redis.Config
	S3       file.S3Config
}

// LoadConfig reads Config from the environment and fills in path defaults.
func LoadConfig(opts ...config.Option) (Config, error) {
	cfg, err := config.Load[Config](opts...)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backends are known and configured.
func (c Config) Validate() error {
	var errs []error

	switch logger.Format(c.LogFormat) {
	case "", logger.FormatJSON, logger.FormatText:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat))
	}

	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.Postgres.ConnectionString == "" {
			errs = append(errs, fmt.Errorf("%w: PG_CONN_URL is required for the postgres store", ErrInvalidConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store))
	}

	switch c.SharedSource {
	case SharedNone, SharedRedis:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown shared source %q", ErrInvalidConfig, c.SharedSource))
	}

	switch c.ExportTarget {
	case ExportLocal:
	case ExportS3:
		if c.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("%w: S3_BUCKET is required for s3 exports", ErrInvalidConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown export target %q", ErrInvalidConfig, c.ExportTarget))
	}

	return errors.Join(errs...)
}

func (c *Config) normalize() error {
	if c.DataDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
		c.DataDir = filepath.Join(dir, "authenticator")
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(c.DataDir, "items.db")
	}
	if c.KeyFile == "" {
		c.KeyFile = filepath.Join(c.DataDir, "key")
	}
	if c.FlagsFile == "" {
		c.FlagsFile = filepath.Join(c.DataDir, "flags.yaml")
	}
	if c.ExportDir == "" {
		c.ExportDir = c.DataDir
	}
	return c.Validate()
}
