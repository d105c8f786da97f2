package scan

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"metascraper/internal/layout"
	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/services"
)

// Item is one title found in a scanned directory.
type Item struct {
	// Path is the folder, or the first file of a group of loose files.
	Path  string
	Files []string
	Name  Name
	// TargetDir is set in in-place mode: metadata is written next to the
	// media instead of under the output directory.
	TargetDir string
	// Local is the catalog id read from a descriptor already in the folder.
	Local *LocalRef
}

// Request builds the pipeline request for the item.
// A folder with a known catalog id resolves by id and skips the search.
func (it Item) Request(aided bool) media.Request {
	req := media.Request{
		Query:       it.Name.Title,
		Kind:        it.Name.Kind,
		YearHint:    it.Name.Year,
		AidedSearch: aided,
		TargetDir:   it.TargetDir,
	}
	if it.Local != nil {
		req.ExternalID = it.Local.TMDBID
		req.Kind = it.Local.Kind
	}
	return req
}

// Options controls a scan.
type Options struct {
	// Kind overrides the kind derived from names when concrete.
	Kind    media.Kind
	InPlace bool
	// UseLocalNFO takes the catalog id from descriptors already in a title
	// folder.
	UseLocalNFO bool
}

var seasonDirPattern = regexp.MustCompile(`(?i)^season\s*\d{1,2}$`)

// excludedDirs are library roots and output folders, never titles.
var excludedDirs = map[string]bool{
	"tv": true, "movies": true, "shows": true, "films": true, "series": true, "output": true,
}

// Dir lists the titles in dir, one level deep. Each non-excluded subfolder
// holding media is one item; loose media files are grouped by parsed title.
// In place, dir itself is the only item and its metadata goes into dir.
func Dir(dir string, opts Options, logger *slog.Logger) ([]Item, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrInput, "scan", "resolve dir", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, services.Wrap(services.ErrInput, "scan", "stat dir", abs, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrInput, "scan", "stat dir", fmt.Sprintf("%s is not a directory", abs), nil)
	}

	if opts.InPlace {
		item, ok, err := folderItem(abs, opts, logger)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, services.Wrap(services.ErrInput, "scan", "scan dir", fmt.Sprintf("no media found in %s", abs), nil)
		}
		item.TargetDir = abs
		return []Item{item}, nil
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, services.Wrap(services.ErrInput, "scan", "read dir", abs, err)
	}
	var (
		items  []Item
		groups = map[string]int{}
	)
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(abs, name)
		switch {
		case strings.HasPrefix(name, "."):
			continue
		case entry.IsDir():
			if excludedDirs[strings.ToLower(name)] {
				logger.Debug("skipping excluded directory", logging.String("path", path))
				continue
			}
			item, ok, err := folderItem(path, opts, logger)
			if err != nil {
				return nil, err
			}
			if !ok {
				logger.Debug("skipping directory without media", logging.String("path", path))
				continue
			}
			items = append(items, item)
		case IsMedia(name):
			parsed := ParseName(name)
			applyKind(&parsed, opts.Kind)
			key := strings.ToLower(parsed.Title)
			if idx, ok := groups[key]; ok {
				grouped := &items[idx]
				grouped.Files = append(grouped.Files, path)
				mergeName(&grouped.Name, parsed)
				continue
			}
			groups[key] = len(items)
			items = append(items, Item{Path: path, Files: []string{path}, Name: parsed})
		}
	}

	for _, it := range items {
		logger.Debug("scanned item",
			logging.String("path", it.Path),
			logging.String("query", it.Name.Title),
			logging.Int("year_hint", it.Name.Year),
			logging.String("kind", string(it.Name.Kind)),
			logging.Bool("local_id", it.Local != nil),
			logging.Int("files", len(it.Files)))
	}
	return items, nil
}

// folderItem inspects a title folder. It is a series when its name says so,
// when it holds season folders or episode files, or when it holds more than
// one video. The second result is false when the folder has no media.
func folderItem(path string, opts Options, logger *slog.Logger) (Item, bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return Item{}, false, services.Wrap(services.ErrInput, "scan", "read dir", path, err)
	}
	item := Item{Path: path, Name: ParseName(filepath.Base(path))}
	seasons := 0
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir() && seasonDirPattern.MatchString(name):
			seasons++
		case !entry.IsDir() && IsMedia(name):
			item.Files = append(item.Files, filepath.Join(path, name))
			if ParseName(name).Kind == media.KindTV {
				item.Name.Kind = media.KindTV
			}
		case !entry.IsDir() && name == layout.ShowDescriptor:
			item.Name.Kind = media.KindTV
		}
	}
	if seasons > 0 || len(item.Files) > 1 {
		item.Name.Kind = media.KindTV
	}
	applyKind(&item.Name, opts.Kind)
	hasMedia := seasons > 0 || len(item.Files) > 0
	if opts.UseLocalNFO && hasMedia {
		ref, found, err := LocalID(path)
		if err != nil {
			logger.Debug("local descriptor unreadable", logging.String("path", path), logging.Error(err))
		}
		if found {
			logger.Info("catalog id read from local descriptor",
				logging.String(logging.FieldEventType, "local_nfo_id"),
				logging.String("path", ref.Path),
				logging.String("tmdb_id", ref.TMDBID),
				logging.String("kind", string(ref.Kind)))
			item.Local = &ref
		}
	}
	return item, hasMedia, nil
}

func applyKind(n *Name, forced media.Kind) {
	if forced.Concrete() {
		n.Kind = forced
	}
}

func mergeName(dst *Name, src Name) {
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if src.Kind == media.KindTV {
		dst.Kind = media.KindTV
	}
}
