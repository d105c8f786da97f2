package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/services"
	"metascraper/internal/tmdb"
)

func (r *Runner) fetch(ctx context.Context, st *State) error {
	detail, err := r.deps.Catalog.FetchDetail(ctx, st.CatalogID, st.Kind)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		marker := services.ErrTransient
		if tmdb.IsNotFound(err) {
			marker = services.ErrNotFound
		}
		return services.Wrap(marker, StageFetch, "fetch detail",
			fmt.Sprintf("%s %s", st.Kind, st.CatalogID), err)
	}
	st.Detail = detail
	st.Record = RecordFromDetail(detail, st.Kind, r.opts.CatalogLocale, r.deps.Now())

	for _, se := range detail.SeasonErrors {
		r.warn(ctx, st, media.WarningEnrichment,
			fmt.Sprintf("season %d could not be fetched: %s", se.SeasonNumber, se.Message),
			logging.Int("season", se.SeasonNumber))
	}
	if st.Record.ID(media.SourceIMDb) == "" && st.Request.SecondaryID != "" {
		st.Record.Identifiers[media.SourceIMDb] = st.Request.SecondaryID
	}

	r.log(ctx).Debug("detail fetched",
		logging.String("tmdb_id", st.CatalogID),
		logging.String("title", detail.DisplayTitle()),
		logging.Int("cast", len(st.Record.Cast)),
		logging.Int("crew", len(st.Record.Crew)),
		logging.Int("seasons", len(st.Record.Seasons)),
		logging.Int("translations", len(detail.Translations.Translations)))
	return nil
}

var writerJobs = []string{"Writer", "Screenplay", "Story", "Series Composition"}

// RecordFromDetail maps a catalog payload onto a record. Fields the catalog
// returned untranslated are stored under locale.
func RecordFromDetail(d *tmdb.Detail, kind media.Kind, locale media.Locale, fetchedAt time.Time) *media.Record {
	rec := media.NewRecord(kind)
	rec.FetchedAt = fetchedAt.UTC()
	rec.Identifiers[media.SourceTMDB] = strconv.FormatInt(d.ID, 10)
	if imdb := strings.TrimSpace(d.IMDb()); imdb != "" {
		rec.Identifiers[media.SourceIMDb] = imdb
	}

	rec.Titles.SetIfAbsent(locale, d.DisplayTitle())
	rec.Overview.SetIfAbsent(locale, d.Overview)
	rec.Taglines.SetIfAbsent(locale, d.Tagline)

	// Translations only fill locales the base payload left empty.
	for _, t := range d.Translations.Translations {
		loc := media.CanonicalLocale(t.ISO639, t.ISO3166)
		if loc == "" {
			continue
		}
		title := t.Data.Title
		if title == "" {
			title = t.Data.Name
		}
		rec.Titles.SetIfAbsent(loc, title)
		rec.Overview.SetIfAbsent(loc, t.Data.Overview)
		rec.Taglines.SetIfAbsent(loc, t.Data.Tagline)
	}

	rec.OriginalTitle = strings.TrimSpace(d.Original())
	rec.ReleaseDate = strings.TrimSpace(d.Date())
	rec.Year = yearOf(rec.ReleaseDate)
	rec.Runtime = d.Runtime
	if rec.Runtime == 0 && len(d.EpisodeRunTime) > 0 {
		rec.Runtime = d.EpisodeRunTime[0]
	}
	rec.Genres = names(d.Genres)
	for _, c := range d.ProductionCountries {
		rec.Countries = append(rec.Countries, c.Name)
	}
	if len(rec.Countries) == 0 {
		rec.Countries = slices.Clone(d.OriginCountry)
	}
	rec.Studios = names(d.ProductionCompanies)
	rec.Networks = names(d.Networks)
	rec.Status = strings.TrimSpace(d.Status)
	rec.Homepage = strings.TrimSpace(d.Homepage)
	rec.Certification = d.Certification()
	rec.Keywords = names(d.Keywords.All())

	cast := slices.Clone(d.Credits.Cast)
	slices.SortStableFunc(cast, func(a, b tmdb.CastMember) int { return a.Order - b.Order })
	for _, c := range cast {
		rec.Cast = append(rec.Cast, media.Person{
			Name:        strings.TrimSpace(c.Name),
			Role:        strings.TrimSpace(c.Character),
			Variants:    media.LocalizedText{locale: strings.TrimSpace(c.Name)},
			ProfilePath: c.ProfilePath,
			Order:       c.Order,
			Source:      media.SourceTMDB,
		})
	}
	rec.Crew = crewFrom(d.Credits.Crew)

	if d.VoteAverage > 0 || d.VoteCount > 0 {
		rec.Ratings[media.SourceTMDB] = media.Rating{Score: d.VoteAverage, Max: 10, Votes: d.VoteCount}
	}

	rec.Images[media.ImagePosters] = imageRefs(d.Images.Posters)
	rec.Images[media.ImageBackdrops] = imageRefs(d.Images.Backdrops)
	rec.Images[media.ImageLogos] = imageRefs(d.Images.Logos)

	for _, sd := range d.SeasonDetails {
		if sd.SeasonNumber <= 0 {
			continue
		}
		season := media.Season{
			Number:     sd.SeasonNumber,
			Name:       sd.Name,
			Overview:   sd.Overview,
			AirDate:    sd.AirDate,
			PosterPath: sd.PosterPath,
		}
		for _, ep := range sd.Episodes {
			episode := media.Episode{
				Number:    ep.EpisodeNumber,
				Title:     media.LocalizedText{},
				Overview:  media.LocalizedText{},
				AirDate:   ep.AirDate,
				Runtime:   ep.Runtime,
				StillPath: ep.StillPath,
				Rating:    ep.VoteAverage,
				Votes:     ep.VoteCount,
			}
			episode.Title.SetIfAbsent(locale, ep.Name)
			episode.Overview.SetIfAbsent(locale, ep.Overview)
			for _, member := range crewFrom(ep.Crew) {
				switch member.Job {
				case media.JobDirector:
					episode.Directors = append(episode.Directors, member.Name)
				case media.JobWriter:
					episode.Writers = append(episode.Writers, member.Name)
				}
			}
			season.Episodes = append(season.Episodes, episode)
		}
		rec.Seasons = append(rec.Seasons, season)
	}
	return rec
}

// crewFrom keeps directing and writing credits under the two job names the
// descriptor uses.
func crewFrom(crew []tmdb.CrewMember) []media.CrewMember {
	var out []media.CrewMember
	for _, c := range crew {
		var job string
		switch {
		case c.Job == "Director" || c.Department == "Directing":
			job = media.JobDirector
		case slices.Contains(writerJobs, c.Job) || c.Department == "Writing":
			job = media.JobWriter
		default:
			continue
		}
		out = append(out, media.CrewMember{
			Name:       strings.TrimSpace(c.Name),
			Job:        job,
			Department: c.Department,
			Source:     media.SourceTMDB,
		})
	}
	return out
}

func names(in []tmdb.Named) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		out = append(out, n.Name)
	}
	return out
}

func imageRefs(in []tmdb.Image) []media.ImageRef {
	out := make([]media.ImageRef, 0, len(in))
	for _, img := range in {
		if img.FilePath == "" {
			continue
		}
		out = append(out, media.ImageRef{
			Path:        img.FilePath,
			Locale:      img.ISO639,
			VoteAverage: img.VoteAverage,
			Width:       img.Width,
			Height:      img.Height,
		})
	}
	return out
}
