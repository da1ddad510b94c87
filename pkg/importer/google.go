package importer

import (
	"encoding/base32"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

// Google Authenticator migration payload field numbers.
const (
	payloadOTPParameters protowire.Number = 1

	paramSecret  protowire.Number = 1
	paramName    protowire.Number = 2
	paramIssuer  protowire.Number = 3
	paramDigits  protowire.Number = 5
	paramOTPType protowire.Number = 6

	otpTypeTOTP = 2

	digitCountSix   = 1
	digitCountEight = 2
)

type otpParameters struct {
	secret  []byte
	name    string
	issuer  string
	digits  uint64
	otpType uint64
}

// importGoogleQR reads the otpauth-migration URI encoded in a Google
// Authenticator export QR code. Data that is not such a URI yields no views;
// a malformed payload is an error. Only TOTP entries are kept.
func importGoogleQR(data []byte) ([]item.View, error) {
	payload, ok := migrationPayload(string(data))
	if !ok {
		return []item.View{}, nil
	}

	params, err := parseMigrationPayload(payload)
	if err != nil {
		return nil, errors.Join(ErrInvalidData, err)
	}

	views := make([]item.View, 0, len(params))
	for _, p := range params {
		if p.otpType != otpTypeTOTP || len(p.secret) == 0 {
			continue
		}
		key, err := keyFor(totp.KeySpec{
			Base32:    base32Secret(p.secret),
			Algorithm: totp.AlgorithmSHA1,
			Digits:    googleDigits(p.digits),
			Period:    totp.DefaultPeriod,
			Issuer:    p.issuer,
		}, false)
		if err != nil {
			return nil, errors.Join(ErrInvalidData, err)
		}
		name := p.name
		if name == "" {
			name = p.issuer
		}
		views = append(views, item.View{
			ID:      uuid.NewString(),
			Name:    name,
			TOTPKey: item.Ptr(key),
		})
	}
	return views, nil
}

func migrationPayload(s string) ([]byte, bool) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme != "otpauth-migration" || u.Host != "offline" {
		return nil, false
	}
	encoded := u.Query().Get("data")
	if encoded == "" {
		return nil, false
	}
	// Query decoding turns an unescaped '+' into a space.
	encoded = strings.ReplaceAll(encoded, " ", "+")
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		payload, err = base64.RawStdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, false
	}
	return payload, true
}

func parseMigrationPayload(b []byte) ([]otpParameters, error) {
	var params []otpParameters
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		if num == payloadOTPParameters && typ == protowire.BytesType {
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			p, err := parseOTPParameters(msg)
			if err != nil {
				return nil, err
			}
			params = append(params, p)
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
	}
	return params, nil
}

func parseOTPParameters(b []byte) (otpParameters, error) {
	var p otpParameters
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return p, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && (num == paramSecret || num == paramName || num == paramIssuer):
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return p, protowire.ParseError(n)
			}
			switch num {
			case paramSecret:
				p.secret = append([]byte(nil), v...)
			case paramName:
				p.name = string(v)
			case paramIssuer:
				p.issuer = string(v)
			}
			b = b[n:]
		case typ == protowire.VarintType && (num == paramDigits || num == paramOTPType):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return p, protowire.ParseError(n)
			}
			if num == paramDigits {
				p.digits = v
			} else {
				p.otpType = v
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return p, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return p, nil
}

// googleDigits maps the payload's digit count to a length. Plain lengths in
// the valid range are accepted as well.
func googleDigits(v uint64) int {
	switch {
	case v == digitCountSix:
		return 6
	case v == digitCountEight:
		return 8
	case v >= 5 && v <= 10:
		return int(v)
	default:
		return totp.DefaultDigits
	}
}

func base32Secret(secret []byte) string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret)
}
