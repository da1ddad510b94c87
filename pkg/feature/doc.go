// Package feature resolves feature flags.
//
// Flags live in a YAML document loaded with LoadFile. A flag may be limited
// to some deployment environments. Callers that only need a yes or no answer
// with a fallback use Bool:
//
//	if feature.Bool(ctx, flags, feature.FlagPasswordManagerSync, false) {
//		// merge shared items
//	}
package feature
