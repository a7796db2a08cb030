package models

import "github.com/julianstephens/trackly/internal/constants"

// Preferences is per-store user state that is not part of the tracker
// domain itself.
type Preferences struct {
	// LastCategoryID pre-fills the category of the next tracker created.
	LastCategoryID string `json:"last_category_id,omitempty"`
	// Locale is a BCP-47 tag used for ordering titles and names.
	Locale string `json:"locale,omitempty"`
}

func DefaultPreferences() Preferences {
	return Preferences{Locale: constants.DefaultLocale}
}

// LocaleOrDefault returns the configured locale or the default one.
func (p Preferences) LocaleOrDefault() string {
	if p.Locale == "" {
		return constants.DefaultLocale
	}
	return p.Locale
}
