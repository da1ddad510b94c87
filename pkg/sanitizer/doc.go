// Package sanitizer cleans text that reaches items from outside the process:
// names and usernames read from third-party export files or typed on the
// command line, and keys that are shown back to the user.
//
// Helpers are plain func(string) string values that compose into pipelines:
//
//	clean := sanitizer.Compose(
//		sanitizer.RemoveControlChars,
//		sanitizer.NormalizeWhitespace,
//		sanitizer.MaxLength(64),
//	)
//	name := clean(raw)
//
// Field is the pipeline applied to display fields.
package sanitizer
