// Package redis opens the go-redis client used by the shared item source.
package redis
