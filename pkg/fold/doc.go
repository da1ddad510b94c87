// Package fold compares and matches display names the way people read them:
// case and diacritics are ignored.
package fold
