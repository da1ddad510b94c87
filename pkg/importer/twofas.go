package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

type twoFASExport struct {
	Services          []twoFASService `json:"services"`
	ServicesEncrypted string          `json:"servicesEncrypted"`
}

type twoFASService struct {
	Name   string    `json:"name"`
	Secret string    `json:"secret"`
	OTP    twoFASOTP `json:"otp"`
}

type twoFASOTP struct {
	Account   string   `json:"account"`
	Issuer    string   `json:"issuer"`
	Digits    looseInt `json:"digits"`
	Period    looseInt `json:"period"`
	Algorithm string   `json:"algorithm"`
	TokenType string   `json:"tokenType"`
}

// importTwoFAS reads a 2FAS backup. Password-protected backups are rejected
// and HOTP entries are skipped.
func importTwoFAS(data []byte) ([]item.View, error) {
	var export twoFASExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, errors.Join(ErrInvalidData, err)
	}
	if export.ServicesEncrypted != "" && len(export.Services) == 0 {
		return nil, ErrEncryptedExport
	}

	views := make([]item.View, 0, len(export.Services))
	for i, s := range export.Services {
		tokenType := strings.ToUpper(s.OTP.TokenType)
		if tokenType != "" && tokenType != "TOTP" && tokenType != "STEAM" {
			continue
		}
		key, err := keyFor(totp.KeySpec{
			Base32:      s.Secret,
			Algorithm:   totp.Algorithm(s.OTP.Algorithm),
			Digits:      int(s.OTP.Digits),
			Period:      int(s.OTP.Period),
			Issuer:      s.OTP.Issuer,
			AccountName: s.OTP.Account,
		}, tokenType == "STEAM")
		if err != nil {
			return nil, errors.Join(ErrInvalidData, fmt.Errorf("service %d: %w", i, err))
		}

		name := s.Name
		if name == "" {
			name = s.OTP.Issuer
		}
		views = append(views, item.View{
			ID:       uuid.NewString(),
			Name:     name,
			TOTPKey:  item.Ptr(key),
			Username: item.OptionalPtr(s.OTP.Account),
		})
	}
	return views, nil
}
