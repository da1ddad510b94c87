package logger

import "log/slog"

// Error returns err under "error". A nil error yields the empty Attr, which
// slog handlers skip.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func ItemID(id string) slog.Attr { return slog.String("item_id", id) }

func Count(n int) slog.Attr { return slog.Int("count", n) }

// ImportFormat names an import format or the export encoding.
func ImportFormat(name string) slog.Attr { return slog.String("format", name) }

// Location is a file path or object key written by the exporter.
func Location(path string) slog.Attr { return slog.String("location", path) }

func Component(name string) slog.Attr { return slog.String("component", name) }
