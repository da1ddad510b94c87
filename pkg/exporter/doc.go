// Package exporter writes every item to a JSON file that can be imported
// again with the bitwarden-json format, and renders single items as QR codes.
//
// Export files are named bitwarden_authenticator_export_<yyyyMMddHHmmss>.json
// and contain plaintext secrets; ClearTemporaryFiles removes them once they
// have been handed off.
package exporter
