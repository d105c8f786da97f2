package media

import (
	"maps"
	"slices"
	"strings"
)

// Locale is a BCP-47 style language tag as used by the catalog.
type Locale string

const (
	LocaleZhCN Locale = "zh-CN"
	LocaleZhTW Locale = "zh-TW"
	LocaleEnUS Locale = "en-US"
)

// FallbackLocale is guaranteed present in every locale map after
// normalization.
const FallbackLocale = LocaleEnUS

// LocalePriority orders locales for display selection.
var LocalePriority = []Locale{LocaleZhCN, LocaleZhTW, LocaleEnUS}

// CanonicalLocale maps catalog language/region pairs onto the supported
// locales. Unsupported pairs return an empty locale.
func CanonicalLocale(language, region string) Locale {
	language = strings.ToLower(strings.TrimSpace(language))
	region = strings.ToUpper(strings.TrimSpace(region))
	switch language {
	case "zh":
		switch region {
		case "TW", "HK", "MO":
			return LocaleZhTW
		default:
			return LocaleZhCN
		}
	case "en":
		if region == "" || region == "US" {
			return LocaleEnUS
		}
	}
	return ""
}

// LocalizedText maps locales to text. The zero value is ready to read but
// must be created with make before writing.
type LocalizedText map[Locale]string

// Get returns the trimmed value for locale.
func (t LocalizedText) Get(locale Locale) string {
	return strings.TrimSpace(t[locale])
}

// Has reports whether locale carries non-blank text.
func (t LocalizedText) Has(locale Locale) bool {
	return t.Get(locale) != ""
}

// HasAny reports whether any of the locales carries text.
func (t LocalizedText) HasAny(locales ...Locale) bool {
	for _, l := range locales {
		if t.Has(l) {
			return true
		}
	}
	return false
}

// Preferred returns the first non-blank value in LocalePriority order, then
// any remaining locale in sorted order.
func (t LocalizedText) Preferred() string {
	for _, l := range LocalePriority {
		if v := t.Get(l); v != "" {
			return v
		}
	}
	for _, l := range sortedLocales(t) {
		if v := t.Get(l); v != "" {
			return v
		}
	}
	return ""
}

// SetIfAbsent stores value under locale unless something is already there.
// It reports whether the map changed.
func (t LocalizedText) SetIfAbsent(locale Locale, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || t.Has(locale) {
		return false
	}
	t[locale] = value
	return true
}

// Clone returns an independent copy.
func (t LocalizedText) Clone() LocalizedText {
	return maps.Clone(t)
}

func sortedLocales(t LocalizedText) []Locale {
	return slices.Sorted(maps.Keys(t))
}
