package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/services"
	"metascraper/internal/textutil"
)

const exactMatchScore = 100

func (r *Runner) selectCandidate(ctx context.Context, st *State) error {
	if st.CatalogID != "" {
		return skipStage("catalog id supplied")
	}
	best, err := SelectCandidate(r.log(ctx), st.Request.Query, st.Candidates)
	if err != nil {
		return err
	}
	st.Selected = &best
	st.CatalogID = best.ExternalID
	st.Kind = best.Kind
	st.Candidates = nil
	return nil
}

// ScoreCandidate rates how well c matches query: 100 for a case-insensitive
// exact match on the title or original title, otherwise floor(99 * s) where
// s is the best normalized similarity of the two titles.
func ScoreCandidate(query string, c media.Candidate) int {
	query = strings.TrimSpace(query)
	for _, title := range []string{c.Title, c.OriginalTitle} {
		if title = strings.TrimSpace(title); title != "" && strings.EqualFold(title, query) {
			return exactMatchScore
		}
	}
	similarity := max(textutil.Similarity(query, c.Title), textutil.Similarity(query, c.OriginalTitle))
	return int(math.Floor(99 * similarity))
}

// SelectCandidate returns the highest scoring candidate. Ties go to the
// more popular candidate, then to the lowest catalog id. The result is
// always an element of candidates.
func SelectCandidate(logger *slog.Logger, query string, candidates []media.Candidate) (media.Candidate, error) {
	if len(candidates) == 0 {
		return media.Candidate{}, services.Wrap(services.ErrNoCandidate, StageSelect, "select candidate",
			fmt.Sprintf("no candidates for %q", query), nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Debug("candidate scoring analysis",
		logging.String("query", query),
		logging.String("query_normalized", textutil.Normalize(query)),
		logging.Int("total_candidates", len(candidates)))

	bestIdx, bestScore := -1, -1
	for idx, c := range candidates {
		score := ScoreCandidate(query, c)
		logger.Debug("calculating candidate score",
			logging.Int("candidate_index", idx),
			logging.String("tmdb_id", c.ExternalID),
			logging.String("kind", string(c.Kind)),
			logging.String("title", c.Title),
			logging.String("original_title", c.OriginalTitle),
			logging.Int("release_year", c.ReleaseYear),
			logging.Float64("popularity", c.Popularity),
			logging.Int("calculated_score", score),
			logging.Bool("exact_title_match", score == exactMatchScore))
		if bestIdx < 0 || better(c, score, candidates[bestIdx], bestScore) {
			bestIdx, bestScore = idx, score
		}
	}

	best := candidates[bestIdx]
	reason := fmt.Sprintf("score %d of %d candidates", bestScore, len(candidates))
	if bestScore == exactMatchScore {
		reason = "exact title match"
	}
	logger.Info("candidate selected", logging.Args(append(
		logging.DecisionAttrs("candidate_selection", best.ExternalID, reason),
		logging.String("title", best.Title),
		logging.Int("release_year", best.ReleaseYear),
		logging.String("kind", string(best.Kind)),
		logging.Int("score", bestScore),
	)...)...)
	return best, nil
}

func better(c media.Candidate, score int, cur media.Candidate, curScore int) bool {
	if score != curScore {
		return score > curScore
	}
	if c.Popularity != cur.Popularity {
		return c.Popularity > cur.Popularity
	}
	return idLess(c.ExternalID, cur.ExternalID)
}

// idLess orders numeric ids numerically; anything unparsable sorts after
// numeric ids and then lexically.
func idLess(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
