package pipeline

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/textutil"
)

// dateLayouts are the release date shapes seen across catalog and
// secondary-source payloads.
var dateLayouts = []string{"2006-01-02", "2006/01/02", "02 Jan 2006", "2 Jan 2006", "2006"}

func (r *Runner) normalize(ctx context.Context, st *State) error {
	dropped := Normalize(st.Record, r.opts.MaxCast)
	if dropped > 0 {
		r.log(ctx).Debug("unparsable dates cleared", logging.Int("dates", dropped))
	}
	return nil
}

// Normalize canonicalizes rec in place and returns how many unparsable
// dates it cleared. maxCast <= 0 keeps the whole cast.
func Normalize(rec *media.Record, maxCast int) int {
	dropped := 0
	date := func(value string) string {
		out, ok := normalizeDate(value)
		if !ok {
			dropped++
		}
		return out
	}

	rec.ReleaseDate = date(rec.ReleaseDate)
	if y := yearOf(rec.ReleaseDate); y > 0 {
		rec.Year = y
	}
	rec.Runtime = max(rec.Runtime, 0)
	rec.OriginalTitle = strings.TrimSpace(rec.OriginalTitle)
	rec.Status = strings.TrimSpace(rec.Status)
	rec.Certification = strings.TrimSpace(rec.Certification)

	rec.Genres = uniqueStrings(rec.Genres)
	rec.Countries = uniqueStrings(rec.Countries)
	rec.Studios = uniqueStrings(rec.Studios)
	rec.Networks = uniqueStrings(rec.Networks)
	rec.Keywords = uniqueStrings(rec.Keywords)

	rec.Cast = normalizeCast(rec.Cast, maxCast)
	rec.Crew = normalizeCrew(rec.Crew)

	rec.Titles = withFallback(rec.Titles)
	rec.Overview = withFallback(rec.Overview)
	rec.Taglines = withFallback(rec.Taglines)
	for tag, text := range rec.LocalizedKeywords {
		rec.LocalizedKeywords[tag] = withFallback(text)
	}
	for genre, text := range rec.LocalizedGenres {
		rec.LocalizedGenres[genre] = withFallback(text)
	}
	for i := range rec.Cast {
		rec.Cast[i].Variants = withFallback(rec.Cast[i].Variants)
	}

	for category, refs := range rec.Images {
		rec.Images[category] = uniqueImages(refs)
	}

	rec.Seasons = normalizeSeasons(rec.Seasons, date)
	return dropped
}

// normalizeDate rewrites value as YYYY-MM-DD. A bare year becomes
// YYYY-01-01. The second result is false when value was present but
// unparsable; the returned date is then empty.
func normalizeDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func normalizeCast(cast []media.Person, limit int) []media.Person {
	sorted := slices.Clone(cast)
	slices.SortStableFunc(sorted, func(a, b media.Person) int { return a.Order - b.Order })
	seen := map[string]bool{}
	out := make([]media.Person, 0, len(sorted))
	for _, p := range sorted {
		p.Name = strings.TrimSpace(p.Name)
		p.Role = strings.TrimSpace(p.Role)
		key := textutil.Normalize(p.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func normalizeCrew(crew []media.CrewMember) []media.CrewMember {
	type key struct{ name, job string }
	seen := map[key]bool{}
	out := make([]media.CrewMember, 0, len(crew))
	for _, c := range crew {
		c.Name = strings.TrimSpace(c.Name)
		k := key{textutil.Normalize(c.Name), c.Job}
		if k.name == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// withFallback guarantees the fallback locale key, copying the highest
// priority value when it is missing. The key may hold an empty string.
func withFallback(text media.LocalizedText) media.LocalizedText {
	if text == nil {
		text = media.LocalizedText{}
	}
	for loc, v := range text {
		text[loc] = strings.TrimSpace(v)
	}
	if text.Has(media.FallbackLocale) {
		return text
	}
	text[media.FallbackLocale] = preferredOther(text)
	return text
}

func preferredOther(text media.LocalizedText) string {
	for _, loc := range media.LocalePriority {
		if v := text.Get(loc); v != "" {
			return v
		}
	}
	for _, loc := range slices.Sorted(maps.Keys(text)) {
		if v := text.Get(loc); v != "" {
			return v
		}
	}
	return ""
}

func uniqueImages(refs []media.ImageRef) []media.ImageRef {
	seen := map[string]bool{}
	out := make([]media.ImageRef, 0, len(refs))
	for _, ref := range refs {
		if ref.Path == "" || seen[ref.Path] {
			continue
		}
		seen[ref.Path] = true
		out = append(out, ref)
	}
	return out
}

func normalizeSeasons(seasons []media.Season, date func(string) string) []media.Season {
	sorted := slices.Clone(seasons)
	slices.SortStableFunc(sorted, func(a, b media.Season) int { return a.Number - b.Number })
	out := make([]media.Season, 0, len(sorted))
	for _, s := range sorted {
		if len(out) > 0 && out[len(out)-1].Number == s.Number {
			continue
		}
		s.AirDate = date(s.AirDate)
		eps := slices.Clone(s.Episodes)
		slices.SortStableFunc(eps, func(a, b media.Episode) int { return a.Number - b.Number })
		s.Episodes = eps[:0]
		for _, ep := range eps {
			if ep.Number <= 0 || (len(s.Episodes) > 0 && s.Episodes[len(s.Episodes)-1].Number == ep.Number) {
				continue
			}
			ep.AirDate = date(ep.AirDate)
			ep.Runtime = max(ep.Runtime, 0)
			ep.Title = withFallback(ep.Title)
			ep.Overview = withFallback(ep.Overview)
			s.Episodes = append(s.Episodes, ep)
		}
		out = append(out, s)
	}
	return out
}
