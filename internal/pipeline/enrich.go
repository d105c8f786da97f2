package pipeline

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/omdb"
	"metascraper/internal/textutil"
)

// enrich adds secondary-source data without touching anything the catalog
// already supplied. Every failure is a warning.
func (r *Runner) enrich(ctx context.Context, st *State) error {
	if r.deps.Secondary == nil {
		return skipStage("secondary source disabled")
	}
	rec := st.Record
	imdbID := rec.ID(media.SourceIMDb)
	if imdbID == "" {
		r.warn(ctx, st, media.WarningEnrichment, "no imdb id; secondary source not consulted")
		return nil
	}

	sec, err := r.deps.Secondary.Lookup(ctx, imdbID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		message := fmt.Sprintf("secondary lookup for %s failed: %v", imdbID, err)
		if omdb.IsOpen(err) {
			message = fmt.Sprintf("secondary lookup for %s skipped: circuit open after repeated failures", imdbID)
		}
		r.warn(ctx, st, media.WarningEnrichment, message)
		return nil
	}

	added := mergeSecondary(rec, sec)
	r.log(ctx).Debug("secondary enrichment applied",
		logging.String("imdb_id", imdbID),
		logging.Int("cast_added", added.cast),
		logging.Int("crew_added", added.crew),
		logging.Int("ratings_added", added.ratings))
	return nil
}

type enrichCounts struct {
	cast, crew, ratings int
}

// mergeSecondary merges sec into rec additively: people are appended only when no
// existing entry has the same normalized name, ratings only under keys not
// already present, and text only where the record is empty.
func mergeSecondary(rec *media.Record, sec *omdb.Record) enrichCounts {
	var counts enrichCounts
	nextOrder := 0
	for _, p := range rec.Cast {
		nextOrder = max(nextOrder, p.Order+1)
	}
	for _, name := range sec.ActorNames() {
		if personKnown(rec.Cast, name) {
			continue
		}
		rec.Cast = append(rec.Cast, media.Person{
			Name:     name,
			Variants: media.LocalizedText{media.LocaleEnUS: name},
			Order:    nextOrder,
			Source:   media.SourceOMDb,
		})
		nextOrder++
		counts.cast++
	}

	for _, credit := range []struct {
		job   string
		names []string
	}{
		{media.JobDirector, sec.DirectorNames()},
		{media.JobWriter, sec.WriterNames()},
	} {
		for _, name := range credit.names {
			if crewKnown(rec.Crew, credit.job, name) {
				continue
			}
			rec.Crew = append(rec.Crew, media.CrewMember{Name: name, Job: credit.job, Source: media.SourceOMDb})
			counts.crew++
		}
	}

	parsed := sec.ParsedRatings()
	for _, key := range slices.Sorted(maps.Keys(parsed)) {
		if _, exists := rec.Ratings[key]; exists {
			continue
		}
		rec.Ratings[key] = parsed[key]
		counts.ratings++
	}

	rec.Overview.SetIfAbsent(media.LocaleEnUS, sec.PlotText())
	if rec.Certification == "" {
		rec.Certification = sec.Certification()
	}
	return counts
}

func personKnown(cast []media.Person, name string) bool {
	for _, p := range cast {
		if textutil.SameName(p.Name, name) {
			return true
		}
		for _, variant := range p.Variants {
			if textutil.SameName(variant, name) {
				return true
			}
		}
	}
	return false
}

func crewKnown(crew []media.CrewMember, job, name string) bool {
	for _, c := range crew {
		if c.Job == job && textutil.SameName(c.Name, name) {
			return true
		}
	}
	return false
}
