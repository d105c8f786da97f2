package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/services"
	"metascraper/internal/tmdb"
)

var (
	catalogIDPattern = regexp.MustCompile(`^[0-9]+$`)
	imdbIDPattern    = regexp.MustCompile(`^tt[0-9]{7,}$`)
)

// resolve canonicalizes the request and, when an id was supplied, fixes the
// catalog id so search and selection are bypassed.
func (r *Runner) resolve(ctx context.Context, st *State) error {
	req := st.Request
	req.Query = strings.Join(strings.Fields(req.Query), " ")
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	req.SecondaryID = strings.ToLower(strings.TrimSpace(req.SecondaryID))
	req.TargetDir = strings.TrimSpace(req.TargetDir)
	if req.YearHint < 0 {
		req.YearHint = 0
	}

	kind, err := media.ParseKind(string(req.Kind))
	if err != nil {
		return services.Wrap(services.ErrInput, StageResolve, "parse media type", "", err)
	}
	req.Kind = kind
	st.Request = req
	st.Kind = kind

	switch {
	case req.ExternalID != "":
		if !catalogIDPattern.MatchString(req.ExternalID) || strings.Trim(req.ExternalID, "0") == "" {
			return services.Wrap(services.ErrInput, StageResolve, "parse tmdb id",
				fmt.Sprintf("tmdb id %q must be a positive integer", req.ExternalID), nil)
		}
		if !kind.Concrete() {
			return services.Wrap(services.ErrInput, StageResolve, "parse tmdb id",
				"a tmdb id needs an explicit media type (movie or tv)", nil)
		}
		st.CatalogID = req.ExternalID
	case req.SecondaryID != "":
		if !imdbIDPattern.MatchString(req.SecondaryID) {
			return services.Wrap(services.ErrInput, StageResolve, "parse imdb id",
				fmt.Sprintf("imdb id %q must look like tt1234567", req.SecondaryID), nil)
		}
		id, found, err := r.deps.Catalog.FindByIMDbID(ctx, req.SecondaryID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, tmdb.ErrNoMatch) {
				return services.Wrap(services.ErrNotFound, StageResolve, "find by imdb id", req.SecondaryID, err)
			}
			return services.Wrap(services.ErrTransient, StageResolve, "find by imdb id", req.SecondaryID, err)
		}
		if kind.Concrete() && kind != found {
			r.log(ctx).Info("imdb id resolved to a different media type",
				logging.Args(logging.DecisionAttrs("media_type", string(found),
					fmt.Sprintf("requested %s but the catalog lists %s as %s", kind, req.SecondaryID, found))...)...)
		}
		st.CatalogID, st.Kind = id, found
	case req.Query != "":
	default:
		return services.Wrap(services.ErrInput, StageResolve, "validate request",
			"a query, a tmdb id, or an imdb id is required", nil)
	}

	r.log(ctx).Debug("request resolved",
		logging.String("query", req.Query),
		logging.String("tmdb_id", st.CatalogID),
		logging.String("kind", string(st.Kind)),
		logging.Int("year_hint", req.YearHint))
	return nil
}
