// Package totp parses authenticator key strings and computes time-based one-time
// passwords (RFC 6238) including the Steam Guard variant.
//
// Keys arrive in three shapes: otpauth://totp/... URIs, Steam keys (either
// otpauth://steam/... or the short steam://SECRET form) and bare Base32 secrets.
// ParseKey turns any of them into a KeySpec; CurrentCode derives the Code valid for
// the window containing a given instant. Code generation is pure, which keeps tests
// deterministic: pass a fixed time and you get a fixed code.
//
// # Usage
//
//	spec, err := totp.ParseKey("otpauth://totp/Acme:alice@example.com?secret=JBSWY3DPEHPK3PXP")
//	if err != nil {
//	    // errors.Is(err, totp.ErrInvalidKeyFormat)
//	}
//	code := totp.CurrentCode(spec, time.Now())
//	fmt.Println(code.Code, code.ExpiresIn(time.Now()))
//
// Digit counts outside 5..10 and non-positive periods are coerced to the
// defaults (6 digits, 30 seconds) instead of being rejected, so keys coming from
// third-party exports still produce codes.
//
// # Error Handling
//
// Parsing failures wrap ErrInvalidKeyFormat together with the specific cause
// (ErrMissingSecret, ErrInvalidSecret, ErrUnsupportedKeyType) using errors.Join.
//
// # See Also
//
//   - RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
package totp
