package logger

import (
	"log/slog"
	"strings"
)

// Redacted replaces the value of every attribute whose key is redacted.
const Redacted = "[REDACTED]"

// DefaultRedactedKeys are attribute keys that may carry key material.
var DefaultRedactedKeys = []string{"secret", "totp_key", "key_uri", "password", "token"}

// redactor builds a slog ReplaceAttr hook. Keys match case-insensitively at
// any group depth.
func redactor(keys []string) func(groups []string, a slog.Attr) slog.Attr {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}
	return func(_ []string, a slog.Attr) slog.Attr {
		if _, ok := set[strings.ToLower(a.Key)]; ok {
			return slog.String(a.Key, Redacted)
		}
		return a
	}
}
