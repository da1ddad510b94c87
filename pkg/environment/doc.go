// Package environment names the deployments the application knows about.
// The active one picks logging defaults and feature flag rollouts.
package environment
