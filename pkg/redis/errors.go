package redis

import "errors"

var (
	ErrNoConnURL = errors.New("redis: connection URL is empty, set REDIS_URL")
	ErrParseURL  = errors.New("redis: invalid connection URL")
	ErrNotReady  = errors.New("redis: server did not answer PING")
)
