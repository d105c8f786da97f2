package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/searchassist"
	"metascraper/internal/services"
	"metascraper/internal/tmdb"
)

var catalogURLPattern = regexp.MustCompile(`themoviedb\.org/(movie|tv)/(\d+)`)

// catalogRef is a catalog id found in a search-assist hit.
type catalogRef struct {
	id   string
	kind media.Kind
}

func (r *Runner) search(ctx context.Context, st *State) error {
	if st.CatalogID != "" {
		return skipStage("catalog id supplied")
	}
	query := st.Request.Query
	candidates, err := r.deps.Catalog.Search(ctx, query, st.Kind, st.Request.YearHint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrTransient, StageSearch, "catalog search", query, err)
	}
	if len(candidates) > 0 {
		st.Candidates = candidates
		r.log(ctx).Debug("catalog search returned candidates", logging.Int("candidates", len(candidates)))
		return nil
	}

	if !st.Request.AidedSearch {
		return services.Wrap(services.ErrSearchExhausted, StageSearch, "catalog search",
			fmt.Sprintf("no catalog results for %q and aided search is off", query), nil)
	}
	if r.deps.Assist == nil {
		r.warn(ctx, st, media.WarningSearch, "aided search requested but search assist is not configured")
		return services.Wrap(services.ErrSearchExhausted, StageSearch, "aided search",
			fmt.Sprintf("no catalog results for %q", query), nil)
	}

	candidates, err = r.aidedSearch(ctx, st)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return services.Wrap(services.ErrSearchExhausted, StageSearch, "aided search",
			fmt.Sprintf("no catalog or search-assist results for %q", query), nil)
	}
	st.Candidates = candidates
	return nil
}

// aidedSearch asks the web for catalog pages and turns each referenced id
// into a candidate. Only cancellation is returned as an error; every other
// failure becomes a search warning.
func (r *Runner) aidedSearch(ctx context.Context, st *State) ([]media.Candidate, error) {
	query := st.Request.Query
	logger := r.log(ctx)
	logger.Info("catalog search empty; trying search assist",
		logging.Args(logging.DecisionAttrs("aided_search", "attempt", "primary search returned no candidates")...)...)

	hits, err := r.deps.Assist.Find(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.warn(ctx, st, media.WarningSearch, fmt.Sprintf("search assist failed: %v", err))
		return nil, nil
	}

	refs := extractCatalogRefs(hits, st.Kind, r.opts.MaxAssistIDs)
	logger.Debug("search assist returned hits",
		logging.Int("hits", len(hits)),
		logging.Int("catalog_ids", len(refs)))

	var out []media.Candidate
	for _, ref := range refs {
		detail, err := r.deps.Catalog.FetchDetail(ctx, ref.id, ref.kind)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.warn(ctx, st, media.WarningSearch, fmt.Sprintf("search assist id %s/%s: %v", ref.kind, ref.id, err))
			continue
		}
		out = append(out, candidateFromDetail(detail, ref.kind))
	}
	return out, nil
}

// extractCatalogRefs collects catalog ids from hit URLs and snippets in
// first-seen order. A concrete kind filters the other kind out; limit <= 0
// means no cap.
func extractCatalogRefs(hits []searchassist.Hit, kind media.Kind, limit int) []catalogRef {
	seen := map[catalogRef]bool{}
	var out []catalogRef
	for _, hit := range hits {
		for _, text := range []string{hit.URL, hit.Snippet} {
			for _, m := range catalogURLPattern.FindAllStringSubmatch(text, -1) {
				ref := catalogRef{id: m[2], kind: media.KindMovie}
				if m[1] == "tv" {
					ref.kind = media.KindTV
				}
				if kind.Concrete() && ref.kind != kind {
					continue
				}
				if seen[ref] {
					continue
				}
				seen[ref] = true
				out = append(out, ref)
				if limit > 0 && len(out) >= limit {
					return out
				}
			}
		}
	}
	return out
}

func candidateFromDetail(d *tmdb.Detail, kind media.Kind) media.Candidate {
	return media.Candidate{
		ExternalID:    strconv.FormatInt(d.ID, 10),
		Title:         d.DisplayTitle(),
		OriginalTitle: d.Original(),
		ReleaseYear:   yearOf(d.Date()),
		Popularity:    d.Popularity,
		Kind:          kind,
	}
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
