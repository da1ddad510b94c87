package importer

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authenticator/pkg/item"
)

type bitwardenExport struct {
	Encrypted bool            `json:"encrypted"`
	Items     []bitwardenItem `json:"items"`
}

type bitwardenItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Favorite bool            `json:"favorite"`
	Login    *bitwardenLogin `json:"login"`
}

type bitwardenLogin struct {
	TOTP     *string `json:"totp"`
	Username *string `json:"username"`
}

// importBitwardenJSON reads a Bitwarden vault export or a plain array of
// views as written by this module's exporter. Only items with a TOTP key
// are kept; keys are taken as they are.
func importBitwardenJSON(data []byte) ([]item.View, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var views []item.View
		if err := json.Unmarshal(data, &views); err != nil {
			return nil, errors.Join(ErrInvalidData, err)
		}
		return withKeys(views), nil
	}

	var export bitwardenExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, errors.Join(ErrInvalidData, err)
	}
	if export.Encrypted {
		return nil, ErrEncryptedExport
	}

	views := make([]item.View, 0, len(export.Items))
	for _, it := range export.Items {
		if it.Login == nil {
			continue
		}
		views = append(views, item.View{
			ID:       it.ID,
			Favorite: it.Favorite,
			Name:     it.Name,
			TOTPKey:  it.Login.TOTP,
			Username: it.Login.Username,
		})
	}
	return withKeys(views), nil
}

// withKeys drops views without a TOTP key and fills in missing IDs.
func withKeys(views []item.View) []item.View {
	out := views[:0]
	for _, v := range views {
		if v.TOTPKey == nil || *v.TOTPKey == "" {
			continue
		}
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		out = append(out, v)
	}
	return out
}
