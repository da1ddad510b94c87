// Package item defines authenticator items and their stores.
//
// Item is the encrypted, persisted form; View is its decrypted counterpart.
// ListItem and ListSection are the display projections built from views.
//
// A Store persists items and streams the full collection on every change.
// MemoryStore, SQLStore (SQLite) and PostgresStore implement it; the SQL
// schemas ship as embedded goose migrations.
package item
