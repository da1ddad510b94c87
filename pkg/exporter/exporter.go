package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path"
	"time"

	"github.com/dmitrymomot/authenticator/pkg/file"
	"github.com/dmitrymomot/authenticator/pkg/fold"
	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/qrcode"
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

// DefaultDirectory is where exports are written inside the storage.
const DefaultDirectory = "exports"

const fileNameLayout = "20060102150405"

// Repository provides the items to export.
type Repository interface {
	FetchAll(ctx context.Context) ([]item.View, error)
}

// Exporter writes all items to a JSON file.
type Exporter struct {
	repo     Repository
	storage  file.Storage
	dir      string
	now      func() time.Time
	log      *slog.Logger
	reporter logger.ErrorReporter
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock sets the time used in file names.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDirectory overrides DefaultDirectory.
func WithDirectory(dir string) Option {
	return func(e *Exporter) {
		if dir != "" {
			e.dir = dir
		}
	}
}

// WithLogger sets the exporter logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Exporter) {
		if log != nil {
			e.log = log
		}
	}
}

// WithErrorReporter sets where cleanup failures are reported.
func WithErrorReporter(reporter logger.ErrorReporter) Option {
	return func(e *Exporter) {
		if reporter != nil {
			e.reporter = reporter
		}
	}
}

// New returns an exporter reading from repo and writing to storage.
// Panics if either is nil.
func New(repo Repository, storage file.Storage, opts ...Option) *Exporter {
	if repo == nil {
		panic("exporter: repository is required")
	}
	if storage == nil {
		panic("exporter: storage is required")
	}
	e := &Exporter{
		repo:    repo,
		storage: storage,
		dir:     DefaultDirectory,
		now:     time.Now,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reporter == nil {
		e.reporter = logger.NewErrorReporter(e.log)
	}
	return e
}

// exportedItem mirrors item.View with its fields in key order, so the
// encoded objects have sorted keys.
type exportedItem struct {
	Favorite bool    `json:"favorite"`
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	TOTPKey  *string `json:"totpKey,omitempty"`
	Username *string `json:"username,omitempty"`
}

// Contents returns every item as a JSON array sorted by name.
func (e *Exporter) Contents(ctx context.Context) ([]byte, error) {
	data, _, err := e.contents(ctx)
	return data, err
}

func (e *Exporter) contents(ctx context.Context) ([]byte, int, error) {
	views, err := e.repo.FetchAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	fold.SortFunc(views, func(v item.View) string { return v.Name })

	items := make([]exportedItem, len(views))
	for i, v := range views {
		items[i] = exportedItem{
			Favorite: v.Favorite,
			ID:       v.ID,
			Name:     v.Name,
			TOTPKey:  v.TOTPKey,
			Username: v.Username,
		}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, 0, errors.Join(ErrUnableToSerializeData, err)
	}
	return data, len(items), nil
}

// FileName returns the export file name for t.
func FileName(t time.Time) string {
	return "bitwarden_authenticator_export_" + t.Format(fileNameLayout) + ".json"
}

// Export writes the contents to a new file and returns its location.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	data, n, err := e.contents(ctx)
	if err != nil {
		return "", err
	}

	f, err := e.storage.Save(ctx, path.Join(e.dir, FileName(e.now())), data)
	if err != nil {
		return "", err
	}

	e.log.InfoContext(ctx, "items exported", logger.Location(f.Location), logger.Count(n))
	return f.Location, nil
}

// ClearTemporaryFiles removes every previous export. Failures are reported,
// not returned.
func (e *Exporter) ClearTemporaryFiles(ctx context.Context) {
	err := e.storage.DeleteDir(ctx, e.dir)
	if err == nil || errors.Is(err, file.ErrDirectoryNotFound) {
		return
	}
	e.reporter.Report(ctx, err, logger.Component("exporter"), logger.Location(e.dir))
}

// QRCode renders the item's key as a PNG QR code other authenticators can scan.
func QRCode(v item.View, size int) ([]byte, error) {
	uri, err := KeyURI(v)
	if err != nil {
		return nil, err
	}
	return qrcode.Generate(uri, size)
}

// KeyURI returns the item's key in its canonical URI form.
func KeyURI(v item.View) (string, error) {
	if v.TOTPKey == nil {
		return "", ErrMissingKey
	}
	spec, err := totp.ParseKey(*v.TOTPKey)
	if err != nil {
		return "", err
	}
	return spec.URI(), nil
}
