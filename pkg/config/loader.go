package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option configures Load.
type Option func(*loader)

type loader struct {
	files   []string
	prefix  string
	environ map[string]string
}

// WithEnvFiles reads the given dotenv files. Missing files are skipped. A
// variable set in the environment wins over the files, and an earlier file
// wins over a later one. The process environment is never modified.
func WithEnvFiles(paths ...string) Option {
	return func(l *loader) { l.files = append(l.files, paths...) }
}

// WithPrefix prepends prefix to every variable name looked up.
func WithPrefix(prefix string) Option {
	return func(l *loader) { l.prefix = prefix }
}

// WithEnviron replaces the process environment with vars.
func WithEnviron(vars map[string]string) Option {
	return func(l *loader) { l.environ = vars }
}

// Load parses environment variables into a new T according to its env tags.
//
//	type StoreConfig struct {
//		Driver string `env:"AUTHENTICATOR_STORE" envDefault:"sqlite"`
//		Path   string `env:"AUTHENTICATOR_SQLITE_PATH"`
//	}
//
//	cfg, err := config.Load[StoreConfig](config.WithEnvFiles(".env"))
func Load[T any](opts ...Option) (T, error) {
	var l loader
	for _, opt := range opts {
		opt(&l)
	}

	var zero T
	vars, err := l.environment()
	if err != nil {
		return zero, err
	}

	v, err := env.ParseAsWithOptions[T](env.Options{
		Prefix:      l.prefix,
		Environment: vars,
	})
	if err != nil {
		return zero, errors.Join(ErrParse, err)
	}
	return v, nil
}

func (l *loader) environment() (map[string]string, error) {
	base := l.environ
	if base == nil {
		base = env.ToMap(os.Environ())
	}
	if len(l.files) == 0 {
		return base, nil
	}

	vars := make(map[string]string, len(base))
	for _, path := range l.files {
		fromFile, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrEnvFile, path, err)
		}
		for k, v := range fromFile {
			if _, ok := vars[k]; !ok {
				vars[k] = v
			}
		}
	}
	maps.Copy(vars, base)
	return vars, nil
}
