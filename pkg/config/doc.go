// Package config loads typed configuration from environment variables.
//
// Structs declare their variables with caarlos0/env tags. Load parses them,
// optionally merging dotenv files underneath the environment:
//
//	cfg, err := config.Load[authenticator.Config](config.WithEnvFiles(".env"))
package config
