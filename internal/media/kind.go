package media

import (
	"fmt"
	"strings"
)

// Kind distinguishes movies from series.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
	// KindAuto searches both kinds; it is never stored on a record.
	KindAuto Kind = "auto"
)

// ParseKind accepts the user-facing spellings of a kind. An empty value
// yields KindAuto.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return KindAuto, nil
	case "movie", "film":
		return KindMovie, nil
	case "tv", "series", "show":
		return KindTV, nil
	default:
		return "", fmt.Errorf("unknown media type %q (want movie, tv, or auto)", value)
	}
}

// Concrete reports whether the kind names a single catalog type.
func (k Kind) Concrete() bool {
	return k == KindMovie || k == KindTV
}

// IsSeries reports whether the kind is tv.
func (k Kind) IsSeries() bool {
	return k == KindTV
}

func (k Kind) String() string {
	return string(k)
}
