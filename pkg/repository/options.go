package repository

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/authenticator/pkg/feature"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/shared"
)

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the time source used for code generation.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithErrorReporter sets where locally handled errors are sent.
// Defaults to a reporter writing to the repository logger.
func WithErrorReporter(reporter logger.ErrorReporter) Option {
	return func(r *Repository) {
		if reporter != nil {
			r.reporter = reporter
		}
	}
}

// WithLogger sets the repository logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Repository) {
		if log != nil {
			r.log = log
		}
	}
}

// WithSharedSource merges items shared by the companion app into the list
// when sync is on.
func WithSharedSource(src shared.Source) Option {
	return func(r *Repository) {
		r.shared = src
	}
}

// WithFeatureFlags sets the provider consulted for the sync flag.
// Without one sync is treated as off.
func WithFeatureFlags(flags feature.Provider) Option {
	return func(r *Repository) {
		r.flags = flags
	}
}
