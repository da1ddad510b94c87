// Package importer converts exports of other authenticator apps into item
// views.
//
// Import is a pure function from file contents to views and supports
// Bitwarden JSON (including this module's own exports), the Google
// Authenticator migration QR payload, Raivo OTP JSON and 2FAS backups. Keys
// built from separate fields are normalized into otpauth or steam URIs.
// Service adds the parsed views to a repository.
package importer
