// Package qrcode renders QR codes, typically of otpauth:// URIs, as PNG images
// or as block-character art for terminals.
package qrcode
