package nfo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"metascraper/internal/layout"
	"metascraper/internal/media"
)

// TextGenerator produces free text from a prompt pair.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options tunes the mapper.
type Options struct {
	// SynthesizeTagline asks the generator for a tagline when the record has
	// none.
	SynthesizeTagline bool
}

const taglineSystemPrompt = `You write film and television taglines in Simplified Chinese.
Given a plot summary, answer with one short tagline of at most twenty characters.
Answer with the tagline only, without quotes or explanation.`

const ratingTMDB = "tmdb"

// Map builds the descriptor tree from a record snapshot. It never mutates
// rec. gen may be nil; tagline synthesis then falls back to an empty
// tagline. The returned strings are non-fatal warnings.
func Map(ctx context.Context, rec *media.Record, opts Options, gen TextGenerator) (*Document, []string, error) {
	if rec == nil {
		return nil, nil, errors.New("nfo map: nil record")
	}
	var warnings []string
	tagline := rec.Taglines.Preferred()
	if tagline == "" && opts.SynthesizeTagline && gen != nil {
		var err error
		tagline, err = synthesizeTagline(ctx, gen, rec.Overview.Preferred())
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("tagline synthesis failed: %v", err))
		}
	}

	present := presentArtwork(rec)
	title := rec.DisplayTitle()
	doc := &Document{Kind: rec.Kind}

	common := commonFields{
		title:         title,
		originalTitle: originalTitle(rec, title),
		year:          rec.Year,
		premiered:     rec.ReleaseDate,
		plot:          plot(rec.Overview.Preferred()),
		tagline:       tagline,
		runtime:       rec.Runtime,
		mpaa:          rec.Certification,
		ratings:       ratings(rec.Ratings),
		uniqueIDs:     uniqueIDs(rec.Identifiers),
		credits:       rec.CrewByJob(media.JobWriter),
		directors:     rec.CrewByJob(media.JobDirector),
		tags:          tags(rec),
		actors:        actors(rec.Cast, present, ""),
		thumbs:        thumbs(present),
		fanart:        fanart(present),
	}
	legacyValue, legacyVotes := legacyRating(common.ratings)

	if !rec.Kind.IsSeries() {
		doc.Path = layout.MovieDescriptor(title, rec.Year)
		doc.Movie = &Movie{
			Title:         common.title,
			OriginalTitle: common.originalTitle,
			Year:          common.year,
			Premiered:     common.premiered,
			Plot:          common.plot,
			Tagline:       common.tagline,
			Runtime:       common.runtime,
			MPAA:          common.mpaa,
			Rating:        legacyValue,
			Votes:         legacyVotes,
			Ratings:       common.ratings,
			UniqueIDs:     common.uniqueIDs,
			Genres:        genres(rec),
			Countries:     slices.Clone(rec.Countries),
			Studios:       slices.Clone(rec.Studios),
			Credits:       common.credits,
			Directors:     common.directors,
			Tags:          common.tags,
			Actors:        common.actors,
			Thumbs:        common.thumbs,
			Fanart:        common.fanart,
		}
		return doc, warnings, nil
	}

	doc.Path = layout.ShowDescriptor
	doc.Show = &TVShow{
		Title:         common.title,
		OriginalTitle: common.originalTitle,
		Year:          common.year,
		Premiered:     common.premiered,
		Plot:          common.plot,
		Tagline:       common.tagline,
		Runtime:       common.runtime,
		MPAA:          common.mpaa,
		Rating:        legacyValue,
		Votes:         legacyVotes,
		Ratings:       common.ratings,
		UniqueIDs:     common.uniqueIDs,
		Status:        rec.Status,
		Homepage:      rec.Homepage,
		Genres:        genres(rec),
		Countries:     slices.Clone(rec.Countries),
		Studios:       slices.Clone(rec.Studios),
		Networks:      slices.Clone(rec.Networks),
		Credits:       common.credits,
		Directors:     common.directors,
		Tags:          common.tags,
		Actors:        common.actors,
		Thumbs:        common.thumbs,
		Fanart:        common.fanart,
	}

	episodeActors := actors(rec.Cast, present, "../")
	for _, season := range rec.Seasons {
		for _, ep := range season.Episodes {
			doc.Episodes = append(doc.Episodes, mapEpisode(rec, title, season.Number, ep, episodeActors, present))
		}
	}
	return doc, warnings, nil
}

type commonFields struct {
	title         string
	originalTitle string
	year          int
	premiered     string
	plot          *Plot
	tagline       string
	runtime       int
	mpaa          string
	ratings       *Ratings
	uniqueIDs     []UniqueID
	credits       []string
	directors     []string
	tags          []string
	actors        []Actor
	thumbs        []Thumb
	fanart        *Fanart
}

func mapEpisode(rec *media.Record, showTitle string, seasonNumber int, ep media.Episode, cast []Actor, present map[string]bool) EpisodeFile {
	epTitle := ep.Title.Preferred()
	fileTitle := epTitle
	if epTitle == "" {
		epTitle = fmt.Sprintf("Episode %d", ep.Number)
	}
	directors := slices.Clone(ep.Directors)
	if len(directors) == 0 {
		directors = rec.CrewByJob(media.JobDirector)
	}
	writers := slices.Clone(ep.Writers)
	if len(writers) == 0 {
		writers = rec.CrewByJob(media.JobWriter)
	}
	year := rec.Year
	if y, err := strconv.Atoi(firstN(ep.AirDate, 4)); err == nil && y > 0 {
		year = y
	}
	details := &Episode{
		Title:     epTitle,
		ShowTitle: showTitle,
		Season:    seasonNumber,
		Episode:   ep.Number,
		Year:      year,
		Aired:     ep.AirDate,
		Plot:      plot(ep.Overview.Preferred()),
		Runtime:   ep.Runtime,
		Rating:    ep.Rating,
		Votes:     ep.Votes,
		Credits:   writers,
		Directors: directors,
		Actors:    slices.Clone(cast),
	}
	if original := ep.Title.Get(media.FallbackLocale); original != "" && original != epTitle {
		details.OriginalTitle = original
	}
	thumb := layout.EpisodeThumb(showTitle, seasonNumber, ep.Number, fileTitle)
	if present[thumb] {
		details.Thumb = thumb[strings.LastIndex(thumb, "/")+1:]
	}
	return EpisodeFile{
		Path:    layout.EpisodeDescriptor(showTitle, seasonNumber, ep.Number, fileTitle),
		Details: details,
	}
}

func synthesizeTagline(ctx context.Context, gen TextGenerator, overview string) (string, error) {
	if strings.TrimSpace(overview) == "" {
		return "", nil
	}
	out, err := gen.Complete(ctx, taglineSystemPrompt, overview)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	out = strings.Trim(out, `"'“”「」`)
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return strings.TrimSpace(out), nil
}

// presentArtwork returns the target paths of assets that will exist after
// the write: fetched now or kept from an earlier run.
func presentArtwork(rec *media.Record) map[string]bool {
	out := map[string]bool{}
	for _, assets := range rec.Artwork {
		for _, a := range assets {
			if a.Status == media.ArtworkFetched || a.Status == media.ArtworkSkipped {
				out[a.TargetPath] = true
			}
		}
	}
	return out
}

func originalTitle(rec *media.Record, title string) string {
	original := strings.TrimSpace(rec.OriginalTitle)
	if original == "" {
		original = rec.Titles.Get(media.FallbackLocale)
	}
	if original == title {
		return ""
	}
	return original
}

func plot(text string) *Plot {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &Plot{Text: text}
}

func ratings(in map[string]media.Rating) *Ratings {
	if len(in) == 0 {
		return nil
	}
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if a == ratingTMDB {
			return -1
		}
		if b == ratingTMDB {
			return 1
		}
		return strings.Compare(a, b)
	})
	out := &Ratings{}
	for i, k := range keys {
		r := in[k]
		name := k
		if k == ratingTMDB {
			name = "themoviedb"
		}
		out.Entries = append(out.Entries, Rating{
			Name:    name,
			Max:     r.Max,
			Default: i == 0,
			Value:   r.Score,
			Votes:   r.Votes,
		})
	}
	return out
}

// legacyRating mirrors the default rating into the flat rating and votes
// elements older scrapers read, scaled to ten.
func legacyRating(r *Ratings) (float64, int) {
	if r == nil || len(r.Entries) == 0 || r.Entries[0].Max <= 0 {
		return 0, 0
	}
	first := r.Entries[0]
	value := first.Value * 10 / first.Max
	return float64(int(value*10+0.5)) / 10, first.Votes
}

func uniqueIDs(ids map[string]string) []UniqueID {
	var out []UniqueID
	if id := ids[media.SourceTMDB]; id != "" {
		out = append(out, UniqueID{Type: media.SourceTMDB, Default: true, Value: id})
	}
	if id := ids[media.SourceIMDb]; id != "" {
		out = append(out, UniqueID{Type: media.SourceIMDb, Value: id})
	}
	return out
}

func genres(rec *media.Record) []string {
	out := make([]string, 0, len(rec.Genres))
	seen := map[string]bool{}
	for _, g := range rec.Genres {
		name := g
		if translated := rec.LocalizedGenres[g].Preferred(); translated != "" {
			name = translated
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func tags(rec *media.Record) []string {
	var out []string
	seen := map[string]bool{}
	for _, kw := range rec.Keywords {
		tag := kw
		if translated := rec.LocalizedKeywords[kw].Preferred(); translated != "" {
			tag = translated
		}
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func actors(cast []media.Person, present map[string]bool, prefix string) []Actor {
	out := make([]Actor, 0, len(cast))
	for i, p := range cast {
		name := p.Variants.Preferred()
		if name == "" {
			name = p.Name
		}
		a := Actor{Name: name, Role: p.Role, Type: "Actor", Order: i}
		original := p.Variants.Get(media.LocaleEnUS)
		if original == "" {
			original = p.Name
		}
		if original != name {
			a.OriginalName = original
		}
		if thumb := layout.Actor(p.Name); thumb != "" && present[thumb] {
			a.Thumb = prefix + thumb
		}
		out = append(out, a)
	}
	return out
}

func thumbs(present map[string]bool) []Thumb {
	var out []Thumb
	for _, t := range []Thumb{
		{Aspect: "poster", Path: layout.Poster},
		{Aspect: "banner", Path: layout.Banner},
		{Aspect: "clearlogo", Path: layout.Logo},
	} {
		if present[t.Path] {
			out = append(out, t)
		}
	}
	return out
}

func fanart(present map[string]bool) *Fanart {
	var paths []string
	if present[layout.Fanart] {
		paths = append(paths, layout.Fanart)
	}
	for n := 1; present[layout.Backdrop(n)]; n++ {
		paths = append(paths, layout.Backdrop(n))
	}
	if len(paths) == 0 {
		return nil
	}
	return &Fanart{Thumbs: paths}
}

func firstN(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
