package cryptography

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/secrets"
)

// Service encrypts and decrypts item fields at rest.
type Service interface {
	// Encrypt seals the name and, when present, the TOTP key and username of v.
	// Absent optional fields stay absent.
	Encrypt(ctx context.Context, v item.View) (item.Item, error)

	// Decrypt opens every present field of it. Any field that fails to open
	// fails the whole call.
	Decrypt(ctx context.Context, it item.Item) (item.View, error)
}

// KeyProvider hands out symmetric keys by scope.
type KeyProvider interface {
	GetOrCreateKey(ctx context.Context, scope string) ([]byte, error)
}

const (
	fieldName     = "name"
	fieldTOTPKey  = "totp_key"
	fieldUsername = "username"
)

// label binds a sealed field to its item, so fields cannot be swapped
// between items or with each other.
func label(id, field string) string {
	return id + "/" + field
}

type service struct {
	keys  KeyProvider
	scope string
}

// Option configures a Service.
type Option func(*service)

// WithScope selects the key scope. Defaults to secrets.ScopeLocal.
func WithScope(scope string) Option {
	return func(s *service) {
		if scope != "" {
			s.scope = scope
		}
	}
}

// NewService returns a Service sealing with keys from keys.
// Panics if keys is nil.
func NewService(keys KeyProvider, opts ...Option) Service {
	if keys == nil {
		panic("cryptography: key provider is required")
	}
	s := &service{keys: keys, scope: secrets.ScopeLocal}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Encrypt(ctx context.Context, v item.View) (item.Item, error) {
	key, err := s.key(ctx)
	if err != nil {
		return item.Item{}, err
	}

	if !utf8.ValidString(v.Name) {
		return item.Item{}, errors.Join(ErrUnableToEncryptRequiredField, errors.New("name is not valid UTF-8"))
	}
	name, err := secrets.Seal(key, v.Name, label(v.ID, fieldName))
	if err != nil {
		return item.Item{}, errors.Join(ErrUnableToEncryptRequiredField, err)
	}

	totpKey, err := sealOptional(key, v.ID, fieldTOTPKey, v.TOTPKey)
	if err != nil {
		return item.Item{}, err
	}
	username, err := sealOptional(key, v.ID, fieldUsername, v.Username)
	if err != nil {
		return item.Item{}, err
	}

	return item.Item{
		ID:       v.ID,
		Favorite: v.Favorite,
		Name:     name,
		TOTPKey:  totpKey,
		Username: username,
	}, nil
}

func (s *service) Decrypt(ctx context.Context, it item.Item) (item.View, error) {
	key, err := s.key(ctx)
	if err != nil {
		return item.View{}, err
	}

	name, err := open(key, it.ID, fieldName, it.Name)
	if err != nil {
		return item.View{}, err
	}
	totpKey, err := openOptional(key, it.ID, fieldTOTPKey, it.TOTPKey)
	if err != nil {
		return item.View{}, err
	}
	username, err := openOptional(key, it.ID, fieldUsername, it.Username)
	if err != nil {
		return item.View{}, err
	}

	return item.View{
		ID:       it.ID,
		Favorite: it.Favorite,
		Name:     name,
		TOTPKey:  totpKey,
		Username: username,
	}, nil
}

func (s *service) key(ctx context.Context) ([]byte, error) {
	key, err := s.keys.GetOrCreateKey(ctx, s.scope)
	if err != nil {
		return nil, errors.Join(ErrUnableToRetrieveKey, err)
	}
	return key, nil
}

func sealOptional(key []byte, id, field string, value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	sealed, err := secrets.Seal(key, *value, label(id, field))
	if err != nil {
		return nil, errors.Join(ErrUnableToEncryptField, fmt.Errorf("%s: %w", field, err))
	}
	return &sealed, nil
}

func open(key []byte, id, field, sealed string) (string, error) {
	plain, err := secrets.Open(key, sealed, label(id, field))
	if err != nil {
		return "", errors.Join(ErrUnableToReadEncryptedData, fmt.Errorf("%s: %w", field, err))
	}
	if !utf8.ValidString(plain) {
		return "", errors.Join(ErrUnableToReadDecryptedData, fmt.Errorf("%s is not valid UTF-8", field))
	}
	return plain, nil
}

func openOptional(key []byte, id, field string, sealed *string) (*string, error) {
	if sealed == nil {
		return nil, nil
	}
	plain, err := open(key, id, field, *sealed)
	if err != nil {
		return nil, err
	}
	return &plain, nil
}
