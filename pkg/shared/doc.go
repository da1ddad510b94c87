// Package shared exposes items synced in from the companion password manager.
//
// A Source reports whether sync is on and streams the shared collection.
// MemorySource is set in process; RedisSource follows what the companion app
// writes to Redis and reloads whenever it is notified of a change.
package shared
