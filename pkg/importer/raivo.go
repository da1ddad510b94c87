package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

// Raivo writes numbers and booleans as strings in some versions.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*n = looseInt(v)
	return nil
}

type looseBool bool

func (f *looseBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseBool(s)
	if err != nil {
		v = false
	}
	*f = looseBool(v)
	return nil
}

type raivoItem struct {
	Issuer    string    `json:"issuer"`
	Account   string    `json:"account"`
	Secret    string    `json:"secret"`
	Algorithm string    `json:"algorithm"`
	Digits    looseInt  `json:"digits"`
	Timer     looseInt  `json:"timer"`
	Kind      string    `json:"kind"`
	Pinned    looseBool `json:"pinned"`
}

// importRaivoJSON reads a Raivo OTP export. HOTP entries are skipped.
func importRaivoJSON(data []byte) ([]item.View, error) {
	var entries []raivoItem
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Join(ErrInvalidData, err)
	}

	views := make([]item.View, 0, len(entries))
	for i, e := range entries {
		if e.Kind != "" && !strings.EqualFold(e.Kind, "TOTP") {
			continue
		}
		steam := strings.EqualFold(e.Issuer, "Steam")
		key, err := keyFor(totp.KeySpec{
			Base32:      e.Secret,
			Algorithm:   totp.Algorithm(e.Algorithm),
			Digits:      int(e.Digits),
			Period:      int(e.Timer),
			Issuer:      e.Issuer,
			AccountName: e.Account,
		}, steam)
		if err != nil {
			return nil, errors.Join(ErrInvalidData, fmt.Errorf("entry %d: %w", i, err))
		}

		name := e.Issuer
		if name == "" {
			name = e.Account
		}
		views = append(views, item.View{
			ID:       uuid.NewString(),
			Favorite: bool(e.Pinned),
			Name:     name,
			TOTPKey:  item.Ptr(key),
			Username: item.OptionalPtr(e.Account),
		})
	}
	return views, nil
}
