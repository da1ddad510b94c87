package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"math"
	"strings"
	"time"
)

// steamAlphabet is the 26-character alphabet Steam Guard renders codes with.
const steamAlphabet = "23456789BCDFGHJKMNPQRTVWXY"

// GenerateSecretKey generates a new Base32-encoded secret key for TOTP.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20) // 160-bit secret (RFC 4226 recommendation for cryptographic strength)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrRandom, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// CurrentCode computes the code for the window containing now.
// It has no hidden state: the same spec and instant always yield the same code.
func CurrentCode(spec KeySpec, now time.Time) Code {
	period := normalizePeriod(spec.Period)
	counter := counterAt(now, period)

	var value string
	if spec.Algorithm == AlgorithmSteam {
		value = steamCode(truncate(sum(spec.Secret, counter, AlgorithmSHA1)))
	} else {
		digits := ClampDigits(spec.Digits)
		code := GenerateHOTP(spec.Secret, counter, digits, spec.Algorithm)
		value = fmt.Sprintf("%0*d", digits, code)
	}

	return Code{
		Code:        value,
		GeneratedAt: now,
		Period:      period,
	}
}

// GenerateCode parses key and returns the code for now.
func GenerateCode(key string, now time.Time) (Code, error) {
	spec, err := ParseKey(key)
	if err != nil {
		return Code{}, err
	}
	return CurrentCode(spec, now), nil
}

// ValidateCode reports whether otp matches the code for now or for up to skew
// adjacent windows on either side, to tolerate clock drift.
func ValidateCode(spec KeySpec, otp string, now time.Time, skew int) (bool, error) {
	otp = strings.ToUpper(strings.TrimSpace(otp))
	want := ClampDigits(spec.Digits)
	if spec.Algorithm == AlgorithmSteam {
		want = SteamDigits
	}
	if len(otp) != want {
		return false, ErrInvalidOTP
	}

	period := time.Duration(normalizePeriod(spec.Period)) * time.Second
	for i := -skew; i <= skew; i++ {
		code := CurrentCode(spec, now.Add(time.Duration(i)*period))
		if subtle.ConstantTimeCompare([]byte(code.Code), []byte(otp)) == 1 {
			return true, nil
		}
	}
	return false, nil
}

// GenerateHOTP implements RFC 4226 HMAC-based One-Time Password algorithm
// for the given hash algorithm. Steam is treated as SHA1.
func GenerateHOTP(key []byte, counter int64, digits int, algorithm Algorithm) int {
	code := truncate(sum(key, counter, algorithm))
	return int(uint64(code) % uint64(math.Pow10(digits)))
}

func sum(key []byte, counter int64, algorithm Algorithm) []byte {
	msg := make([]byte, 8)
	binary.BigEndian.PutUint64(msg, uint64(counter))

	mac := hmac.New(hashFunc(algorithm), key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// truncate performs RFC 4226 dynamic truncation: the low nibble of the last byte
// selects a 4-byte window, the top bit is cleared.
func truncate(h []byte) uint32 {
	offset := h[len(h)-1] & 0x0f
	return binary.BigEndian.Uint32(h[offset:offset+4]) & 0x7fffffff
}

func steamCode(code uint32) string {
	out := make([]byte, SteamDigits)
	for i := range out {
		out[i] = steamAlphabet[code%uint32(len(steamAlphabet))]
		code /= uint32(len(steamAlphabet))
	}
	return string(out)
}

func hashFunc(algorithm Algorithm) func() hash.Hash {
	switch algorithm {
	case AlgorithmSHA256:
		return sha256.New
	case AlgorithmSHA512:
		return sha512.New
	default:
		return sha1.New
	}
}

func counterAt(t time.Time, period int) int64 {
	return t.Unix() / int64(period)
}
