package importer

import (
	"errors"
	"slices"
	"strings"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/sanitizer"
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

// Format names a supported export format of another authenticator.
type Format string

const (
	FormatBitwardenJSON Format = "bitwarden-json"
	FormatGoogleQR      Format = "google-qr"
	FormatRaivoJSON     Format = "raivo-json"
	FormatTwoFAS        Format = "2fas"
)

// Formats lists every supported format in menu order.
func Formats() []Format {
	return []Format{FormatBitwardenJSON, FormatGoogleQR, FormatRaivoJSON, FormatTwoFAS}
}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats(), f) {
		return "", errors.Join(ErrUnsupportedFormat, errors.New(s))
	}
	return f, nil
}

// Import parses data exported in format into item views ready to be added.
// Views without an ID in the source get a fresh one. Names and usernames are
// cleaned with sanitizer.Field.
func Import(format Format, data []byte) ([]item.View, error) {
	var (
		views []item.View
		err   error
	)
	switch format {
	case FormatBitwardenJSON:
		views, err = importBitwardenJSON(data)
	case FormatGoogleQR:
		views, err = importGoogleQR(data)
	case FormatRaivoJSON:
		views, err = importRaivoJSON(data)
	case FormatTwoFAS:
		views, err = importTwoFAS(data)
	default:
		return nil, errors.Join(ErrUnsupportedFormat, errors.New(string(format)))
	}
	if err != nil {
		return nil, err
	}

	for i := range views {
		views[i].Name = sanitizer.Field(views[i].Name)
		if views[i].Username != nil {
			views[i].Username = item.OptionalPtr(sanitizer.Field(*views[i].Username))
		}
	}
	return views, nil
}

// keyFor builds a normalized TOTP key string from its parts. Steam secrets
// use the short steam:// form.
func keyFor(spec totp.KeySpec, steam bool) (string, error) {
	spec.Algorithm = totp.Algorithm(strings.ToUpper(string(spec.Algorithm)))
	if steam {
		spec.Algorithm = totp.AlgorithmSteam
	}
	parsed, err := totp.ParseKey(spec.URI())
	if err != nil {
		return "", err
	}
	return parsed.URI(), nil
}
