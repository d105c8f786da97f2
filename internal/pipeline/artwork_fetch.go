package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"metascraper/internal/layout"
	"metascraper/internal/logging"
	"metascraper/internal/media"
)

var errNoSource = errors.New("no source url")

// fetchArtwork downloads every planned asset on a bounded pool and joins
// before returning. Failures stay with their asset; only cancellation fails
// the stage, after the join.
func (r *Runner) fetchArtwork(ctx context.Context, st *State) error {
	rec := st.Record
	assets := flattenArtwork(rec.Artwork)
	if len(assets) == 0 {
		return skipStage("no artwork planned")
	}

	memo := newDownloadMemo(r.deps.Downloader)
	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i := range assets {
		g.Go(func() error {
			r.fetchAsset(ctx, st.Root, &assets[i], memo)
			return nil
		})
	}
	_ = g.Wait()

	sortAssets(assets)
	rec.Artwork = groupArtwork(assets)

	fetched, skipped, failed := 0, 0, 0
	for _, a := range assets {
		switch a.Status {
		case media.ArtworkFetched:
			fetched++
		case media.ArtworkSkipped:
			skipped++
			st.Report.SkippedFiles = append(st.Report.SkippedFiles, a.TargetPath)
		case media.ArtworkFailed:
			failed++
			r.warn(ctx, st, media.WarningArtwork,
				fmt.Sprintf("%s %s not downloaded: %s", a.Category, a.TargetPath, a.Err),
				logging.String("category", string(a.Category)),
				logging.String("target", a.TargetPath))
		}
	}
	r.log(ctx).Debug("artwork fetch joined",
		logging.Int("planned", len(assets)),
		logging.Int("fetched", fetched),
		logging.Int("skipped", skipped),
		logging.Int("failed", failed),
		logging.Int("downloads", memo.downloads()))

	return ctx.Err()
}

func (r *Runner) fetchAsset(ctx context.Context, root string, a *media.ArtworkAsset, memo *downloadMemo) {
	if r.opts.SkipExisting && r.deps.Sink.Exists(layout.Abs(root, a.TargetPath)) {
		a.Status = media.ArtworkSkipped
		return
	}
	lastErr := errNoSource
	for _, url := range a.URLs() {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		data, contentType, err := memo.get(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		a.Status = media.ArtworkFetched
		a.Data = data
		a.ContentType = contentType
		a.Err = ""
		return
	}
	a.Status = media.ArtworkFailed
	a.Err = lastErr.Error()
}

// downloadMemo downloads each URL at most once per run, successful or not.
// Concurrent requests for the same URL share one download.
type downloadMemo struct {
	dl    Downloader
	group singleflight.Group

	mu      sync.Mutex
	results map[string]downloadResult
}

type downloadResult struct {
	data        []byte
	contentType string
	err         error
}

func newDownloadMemo(dl Downloader) *downloadMemo {
	return &downloadMemo{dl: dl, results: map[string]downloadResult{}}
}

func (m *downloadMemo) get(ctx context.Context, url string) ([]byte, string, error) {
	m.mu.Lock()
	res, ok := m.results[url]
	m.mu.Unlock()
	if ok {
		return res.data, res.contentType, res.err
	}
	v, _, _ := m.group.Do(url, func() (any, error) {
		data, contentType, err := m.dl.Download(ctx, url)
		res := downloadResult{data: data, contentType: contentType, err: err}
		m.mu.Lock()
		m.results[url] = res
		m.mu.Unlock()
		return res, nil
	})
	res = v.(downloadResult)
	return res.data, res.contentType, res.err
}

func (m *downloadMemo) downloads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

func flattenArtwork(plan map[media.ArtworkCategory][]media.ArtworkAsset) []media.ArtworkAsset {
	var out []media.ArtworkAsset
	for _, category := range media.ArtworkCategories {
		out = append(out, plan[category]...)
	}
	return out
}

func groupArtwork(assets []media.ArtworkAsset) map[media.ArtworkCategory][]media.ArtworkAsset {
	out := map[media.ArtworkCategory][]media.ArtworkAsset{}
	for _, a := range assets {
		out[a.Category] = append(out[a.Category], a)
	}
	return out
}

// sortAssets orders by category, sequence, then target path.
func sortAssets(assets []media.ArtworkAsset) {
	slices.SortStableFunc(assets, func(a, b media.ArtworkAsset) int {
		return cmp.Or(
			cmp.Compare(media.CategoryOrder(a.Category), media.CategoryOrder(b.Category)),
			cmp.Compare(a.Sequence, b.Sequence),
			cmp.Compare(a.TargetPath, b.TargetPath),
		)
	})
}
