package pipeline

import (
	"context"
	"slices"
	"strings"

	"metascraper/internal/layout"
	"metascraper/internal/logging"
	"metascraper/internal/media"
)

// maxFallbacks bounds the alternative URLs tried per asset.
const maxFallbacks = 3

func (r *Runner) planArtwork(ctx context.Context, st *State) error {
	rec := st.Record
	st.Root = st.Request.TargetDir
	if st.Root == "" {
		st.Root = layout.Root(r.opts.OutputDir, rec.DisplayTitle(), rec.Year)
	}
	rec.Artwork = PlanArtwork(rec, r.opts)

	counts := make([]any, 0, len(rec.Artwork))
	for _, category := range media.ArtworkCategories {
		if n := len(rec.Artwork[category]); n > 0 {
			counts = append(counts, logging.Int(string(category), n))
		}
	}
	r.log(ctx).Debug("artwork planned", append([]any{logging.String("root", st.Root)}, counts...)...)
	return nil
}

// PlanArtwork turns the record's image references into target assets.
// Every asset starts planned; sequence numbers follow source order.
func PlanArtwork(rec *media.Record, opts Options) map[media.ArtworkCategory][]media.ArtworkAsset {
	base := strings.TrimRight(opts.ImageBaseURL, "/")
	url := func(path string) string {
		if path == "" {
			return ""
		}
		if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			return path
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return base + path
	}
	urls := func(refs []media.ImageRef) []string {
		out := make([]string, 0, len(refs))
		for _, ref := range refs {
			out = append(out, url(ref.Path))
		}
		return out
	}

	plan := map[media.ArtworkCategory][]media.ArtworkAsset{}
	add := func(a media.ArtworkAsset) {
		if a.SourceURL == "" || a.TargetPath == "" {
			return
		}
		a.Status = media.ArtworkPlanned
		plan[a.Category] = append(plan[a.Category], a)
	}

	posters := byLocalePriority(rec.Images[media.ImagePosters])
	if len(posters) > 0 {
		add(media.ArtworkAsset{
			Category:   media.ArtworkPoster,
			SourceURL:  url(posters[0].Path),
			Fallbacks:  fallbacks(urls(posters[1:])),
			TargetPath: layout.Poster,
			Locale:     posters[0].Locale,
		})
	}

	backdrops := rec.Images[media.ImageBackdrops]
	backdropURLs := urls(backdrops)
	var fanartURL string
	if len(backdrops) > 0 {
		fanartURL = backdropURLs[0]
		add(media.ArtworkAsset{
			Category:   media.ArtworkFanart,
			SourceURL:  fanartURL,
			Fallbacks:  fallbacks(backdropURLs[1:]),
			TargetPath: layout.Fanart,
			Locale:     backdrops[0].Locale,
		})
		add(media.ArtworkAsset{
			Category:   media.ArtworkBanner,
			SourceURL:  fanartURL,
			Fallbacks:  fallbacks(backdropURLs[1:]),
			TargetPath: layout.Banner,
			Locale:     backdrops[0].Locale,
		})
	}
	for i, ref := range backdrops {
		if i >= opts.MaxBackdrops {
			break
		}
		add(media.ArtworkAsset{
			Category:   media.ArtworkBackdrop,
			SourceURL:  url(ref.Path),
			TargetPath: layout.Backdrop(i + 1),
			Locale:     ref.Locale,
			Sequence:   i + 1,
		})
	}

	logos := byLocalePriority(rec.Images[media.ImageLogos])
	if len(logos) > 0 {
		add(media.ArtworkAsset{
			Category:   media.ArtworkLogo,
			SourceURL:  url(logos[0].Path),
			Fallbacks:  fallbacks(urls(logos[1:])),
			TargetPath: layout.Logo,
			Locale:     logos[0].Locale,
		})
	}

	if rec.Kind.IsSeries() {
		planStills(rec, opts, url, fanartURL, add)
	}

	if opts.ActorThumbs {
		seen := map[string]bool{}
		for _, p := range rec.Cast {
			target := layout.Actor(p.Name)
			if p.ProfilePath == "" || target == "" || seen[target] {
				continue
			}
			seen[target] = true
			add(media.ArtworkAsset{
				Category:   media.ArtworkActor,
				SourceURL:  url(p.ProfilePath),
				TargetPath: target,
				Sequence:   len(seen),
			})
		}
	}
	return plan
}

// planStills adds the series still gallery (first season) and one thumb
// per episode. Episodes without a still fall back to the series fanart.
func planStills(rec *media.Record, opts Options, url func(string) string, fanartURL string, add func(media.ArtworkAsset)) {
	showTitle := rec.DisplayTitle()
	n := 0
	for _, season := range rec.Seasons {
		if season.Number != 1 {
			continue
		}
		for _, ep := range season.Episodes {
			if n >= opts.MaxStills {
				break
			}
			if ep.StillPath == "" {
				continue
			}
			n++
			add(media.ArtworkAsset{
				Category:   media.ArtworkStill,
				SourceURL:  url(ep.StillPath),
				TargetPath: layout.Still(n),
				Sequence:   n,
			})
		}
	}

	if !opts.EpisodeThumbs {
		return
	}
	seq := 0
	for _, season := range rec.Seasons {
		for _, ep := range season.Episodes {
			source, fallback := url(ep.StillPath), []string{}
			if source == "" {
				source = fanartURL
			} else if fanartURL != "" {
				fallback = append(fallback, fanartURL)
			}
			seq++
			add(media.ArtworkAsset{
				Category:   media.ArtworkStill,
				SourceURL:  source,
				Fallbacks:  fallback,
				TargetPath: layout.EpisodeThumb(showTitle, season.Number, ep.Number, ep.Title.Preferred()),
				Sequence:   n + seq,
			})
		}
	}
}

// byLocalePriority orders images Chinese first, then English, then
// untagged, then everything else, keeping source order within a group.
func byLocalePriority(refs []media.ImageRef) []media.ImageRef {
	rank := func(ref media.ImageRef) int {
		switch strings.ToLower(ref.Locale) {
		case "zh":
			return 0
		case "en":
			return 1
		case "":
			return 2
		default:
			return 3
		}
	}
	out := slices.Clone(refs)
	slices.SortStableFunc(out, func(a, b media.ImageRef) int { return rank(a) - rank(b) })
	return out
}

func fallbacks(urls []string) []string {
	if len(urls) > maxFallbacks {
		urls = urls[:maxFallbacks]
	}
	return slices.Clone(urls)
}
