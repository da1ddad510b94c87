package config

import "errors"

var (
	ErrParse   = errors.New("config: cannot parse environment")
	ErrEnvFile = errors.New("config: cannot read env file")
)
