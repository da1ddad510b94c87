package totp

import (
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Algorithm identifies how a code is derived from the HMAC output.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"
	// AlgorithmSteam is HMAC-SHA1 rendered into Steam Guard's 5-character alphabet.
	AlgorithmSteam Algorithm = "STEAM"
)

const (
	DefaultDigits    = 6             // Standard 6-digit TOTP codes
	DefaultPeriod    = 30            // 30-second validity window (RFC 6238 standard)
	DefaultAlgorithm = AlgorithmSHA1 // HMAC-SHA1 algorithm (RFC 6238 standard)

	MinDigits   = 5
	MaxDigits   = 10
	MaxPeriod   = 86400 // one day, in seconds
	SteamDigits = 5

	otpauthScheme = "otpauth"
	steamPrefix   = "steam://"
)

// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
var ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

// KeySpec is the parsed form of a stored TOTP key string.
// It is derived on demand and never persisted.
type KeySpec struct {
	Secret      []byte    // decoded shared secret
	Base32      string    // normalized Base32 secret, no padding
	Algorithm   Algorithm // hash or vendor variant
	Digits      int       // code length
	Period      int       // window length in seconds
	Issuer      string    // display metadata, may be empty
	AccountName string    // display metadata, may be empty
}

// ParseKey parses one of the accepted key shapes:
//
//	otpauth://totp/Issuer:account?secret=...&algorithm=...&digits=...&period=...
//	otpauth://steam/Issuer:account?secret=...
//	steam://SECRET
//	SECRET (bare Base32, SHA1, 6 digits, 30 seconds)
//
// Out-of-range digits and periods fall back to the defaults instead of failing,
// so keys from third-party exports still load.
func ParseKey(raw string) (KeySpec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return KeySpec{}, errors.Join(ErrInvalidKeyFormat, ErrMissingSecret)
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, otpauthScheme+"://"):
		return parseOTPAuthURI(s)
	case strings.HasPrefix(lower, steamPrefix):
		return newSteamSpec(s[len(steamPrefix):], "", "")
	default:
		secret, normalized, err := decodeSecret(s)
		if err != nil {
			return KeySpec{}, errors.Join(ErrInvalidKeyFormat, err)
		}
		return KeySpec{
			Secret:    secret,
			Base32:    normalized,
			Algorithm: DefaultAlgorithm,
			Digits:    DefaultDigits,
			Period:    DefaultPeriod,
		}, nil
	}
}

func parseOTPAuthURI(s string) (KeySpec, error) {
	u, err := url.Parse(s)
	if err != nil {
		return KeySpec{}, errors.Join(ErrInvalidKeyFormat, err)
	}

	issuer, account := splitLabel(strings.TrimPrefix(u.Path, "/"))
	query := u.Query()
	if v := strings.TrimSpace(query.Get("issuer")); v != "" {
		issuer = v
	}

	switch strings.ToLower(u.Host) {
	case "steam":
		return newSteamSpec(query.Get("secret"), issuer, account)
	case "totp":
	default:
		return KeySpec{}, errors.Join(ErrInvalidKeyFormat, ErrUnsupportedKeyType)
	}

	secret, normalized, err := decodeSecret(query.Get("secret"))
	if err != nil {
		return KeySpec{}, errors.Join(ErrInvalidKeyFormat, err)
	}

	return KeySpec{
		Secret:      secret,
		Base32:      normalized,
		Algorithm:   parseAlgorithm(query.Get("algorithm")),
		Digits:      ClampDigits(atoi(query.Get("digits"))),
		Period:      normalizePeriod(atoi(query.Get("period"))),
		Issuer:      issuer,
		AccountName: account,
	}, nil
}

func newSteamSpec(rawSecret, issuer, account string) (KeySpec, error) {
	secret, normalized, err := decodeSecret(rawSecret)
	if err != nil {
		return KeySpec{}, errors.Join(ErrInvalidKeyFormat, err)
	}
	return KeySpec{
		Secret:      secret,
		Base32:      normalized,
		Algorithm:   AlgorithmSteam,
		Digits:      SteamDigits,
		Period:      DefaultPeriod,
		Issuer:      issuer,
		AccountName: account,
	}, nil
}

// splitLabel splits "Issuer:account" into its parts. A label without a colon is an account name.
func splitLabel(label string) (issuer, account string) {
	label = strings.TrimSpace(label)
	if i := strings.Index(label, ":"); i >= 0 {
		return strings.TrimSpace(label[:i]), strings.TrimSpace(label[i+1:])
	}
	return "", label
}

// decodeSecret normalizes a user-supplied Base32 secret and decodes it.
// Spaces, dashes, lower case and padding are tolerated.
func decodeSecret(raw string) ([]byte, string, error) {
	s := strings.ToUpper(raw)
	s = strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(s)
	if s == "" {
		return nil, "", ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(s) {
		return nil, "", ErrInvalidSecret
	}
	s = strings.TrimRight(s, "=")

	secret, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	if err != nil || len(secret) == 0 {
		return nil, "", errors.Join(ErrInvalidSecret, err)
	}
	return secret, s, nil
}

func parseAlgorithm(v string) Algorithm {
	switch Algorithm(strings.ToUpper(strings.TrimSpace(v))) {
	case AlgorithmSHA256:
		return AlgorithmSHA256
	case AlgorithmSHA512:
		return AlgorithmSHA512
	default:
		return AlgorithmSHA1
	}
}

// ClampDigits returns digits when it is within MinDigits..MaxDigits and DefaultDigits otherwise.
func ClampDigits(digits int) int {
	if digits < MinDigits || digits > MaxDigits {
		return DefaultDigits
	}
	return digits
}

// normalizePeriod keeps windows within 1..MaxPeriod seconds so window
// arithmetic cannot overflow time.Duration.
func normalizePeriod(period int) int {
	if period <= 0 || period > MaxPeriod {
		return DefaultPeriod
	}
	return period
}

func atoi(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

// URI renders the key back into its canonical string form.
// Steam keys use the short steam:// form; everything else becomes an otpauth URI.
// The URI format follows the Key Uri Format specification:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func (k KeySpec) URI() string {
	if k.Algorithm == AlgorithmSteam {
		return steamPrefix + k.Base32
	}

	label := url.PathEscape(k.AccountName)
	if k.Issuer != "" {
		label = fmt.Sprintf("%s:%s", url.PathEscape(k.Issuer), label)
	}

	query := url.Values{}
	query.Set("secret", k.Base32)
	if k.Issuer != "" {
		query.Set("issuer", k.Issuer)
	}
	query.Set("algorithm", string(orDefault(k.Algorithm, DefaultAlgorithm)))
	query.Set("digits", strconv.Itoa(ClampDigits(k.Digits)))
	query.Set("period", strconv.Itoa(normalizePeriod(k.Period)))

	return fmt.Sprintf("%s://totp/%s?%s", otpauthScheme, label, query.Encode())
}

func orDefault(a, def Algorithm) Algorithm {
	if a == "" {
		return def
	}
	return a
}
