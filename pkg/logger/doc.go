// Package logger builds log/slog loggers with functional options.
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Production, "authenticator"),
//		logger.WithFileOutput("/var/log/authenticator.log"),
//	)
//
// Output is JSON or text. WithFileOutput rotates files by size. Attributes
// that may carry key material are redacted, see DefaultRedactedKeys.
//
// The package also provides attribute helpers (Error, ItemID, Component, ...)
// and ErrorReporter, the sink for errors that are handled locally but still
// need to be recorded.
package logger
