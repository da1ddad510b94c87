package item

import (
	"github.com/dmitrymomot/authenticator/pkg/totp"
)

// Kind distinguishes list item variants.
type Kind string

const KindTOTP Kind = "totp"

// Section identifiers.
const (
	SectionFavorites   = "Favorites"
	SectionUnorganized = "Unorganized"
	SectionLocalCodes  = "LocalCodes"

	syncedSectionPrefix = "BW-"
)

// Section display names.
const (
	FavoritesName  = "Favorites"
	LocalCodesName = "Local codes"
)

// SyncedSectionID returns the section identifier for a synced account.
func SyncedSectionID(account string) string {
	return syncedSectionPrefix + account
}

// TOTPModel pairs a view with the code currently shown for it.
type TOTPModel struct {
	View View
	Code totp.Code
}

// ListItem is a display-ready projection of a view.
type ListItem struct {
	ID          string
	Name        string
	AccountName string
	Kind        Kind
	TOTP        *TOTPModel
}

// NewListItem projects v with code.
func NewListItem(v View, code totp.Code) ListItem {
	return ListItem{
		ID:          v.ID,
		Name:        v.Name,
		AccountName: v.AccountName(),
		Kind:        KindTOTP,
		TOTP:        &TOTPModel{View: v, Code: code},
	}
}

// WithCode returns a copy of li showing code. The originating view is kept.
func (li ListItem) WithCode(code totp.Code) ListItem {
	if li.TOTP == nil {
		return li
	}
	model := *li.TOTP
	model.Code = code
	li.TOTP = &model
	return li
}

// Period returns the TOTP period of the item's current code, or 0.
func (li ListItem) Period() int {
	if li.TOTP == nil {
		return 0
	}
	return li.TOTP.Code.Period
}

// ListSection is an ordered group of list items.
type ListSection struct {
	ID    string
	Name  string
	Items []ListItem
}

// AllItems flattens sections in order.
func AllItems(sections []ListSection) []ListItem {
	var n int
	for _, s := range sections {
		n += len(s.Items)
	}
	items := make([]ListItem, 0, n)
	for _, s := range sections {
		items = append(items, s.Items...)
	}
	return items
}

// UpdateSections returns a copy of sections in which every item whose ID
// appears in refreshed is replaced by its refreshed version. The input is
// not modified.
func UpdateSections(sections []ListSection, refreshed []ListItem) []ListSection {
	byID := make(map[string]ListItem, len(refreshed))
	for _, li := range refreshed {
		byID[li.ID] = li
	}

	out := make([]ListSection, len(sections))
	for i, s := range sections {
		items := make([]ListItem, len(s.Items))
		for j, li := range s.Items {
			if r, ok := byID[li.ID]; ok {
				li = r
			}
			items[j] = li
		}
		out[i] = ListSection{ID: s.ID, Name: s.Name, Items: items}
	}
	return out
}
