// Package async fans a function out over a slice and collects the results,
// failing as a whole when any element fails:
//
//	views, err := async.Map(ctx, items, decrypt)
package async
