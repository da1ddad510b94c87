package item

import (
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authenticator/pkg/totp"
)

// Item is the at-rest form of an authenticator item. Name, TOTPKey and
// Username hold sealed ciphertext; only ID and Favorite are plaintext.
type Item struct {
	ID       string
	Favorite bool
	Name     string
	TOTPKey  *string
	Username *string
}

// View is the decrypted form of an Item. It is never persisted.
type View struct {
	ID       string  `json:"id"`
	Favorite bool    `json:"favorite"`
	Name     string  `json:"name"`
	TOTPKey  *string `json:"totpKey,omitempty"`
	Username *string `json:"username,omitempty"`
}

// Validate checks the fields every stored item must carry.
func (i Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return ErrInvalidItemID
	}
	return nil
}

// Key returns the TOTP key string, or "" when the view has none.
func (v View) Key() string {
	return deref(v.TOTPKey)
}

// AccountName returns the username, or "" when the view has none.
func (v View) AccountName() string {
	return deref(v.Username)
}

// Clone returns a copy that shares no pointers with v.
func (v View) Clone() View {
	v.TOTPKey = clonePtr(v.TOTPKey)
	v.Username = clonePtr(v.Username)
	return v
}

// Clone returns a copy that shares no pointers with i.
func (i Item) Clone() Item {
	i.TOTPKey = clonePtr(i.TOTPKey)
	i.Username = clonePtr(i.Username)
	return i
}

// ViewFromKey builds a new view with a fresh ID from a scanned or typed key.
// The name is taken from the key's issuer, then its account, then fallback.
// The account becomes the username unless it is already the name.
func ViewFromKey(key, fallback string) (View, error) {
	spec, err := totp.ParseKey(key)
	if err != nil {
		return View{}, err
	}

	name := fallback
	switch {
	case spec.Issuer != "":
		name = spec.Issuer
	case spec.AccountName != "":
		name = spec.AccountName
	}

	view := View{
		ID:      uuid.NewString(),
		Name:    name,
		TOTPKey: Ptr(strings.TrimSpace(key)),
	}
	if spec.AccountName != "" && spec.AccountName != name {
		view.Username = Ptr(spec.AccountName)
	}
	return view, nil
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// OptionalPtr returns nil for an empty string and a pointer to s otherwise.
func OptionalPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
