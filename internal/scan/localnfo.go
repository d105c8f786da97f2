package scan

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"metascraper/internal/layout"
	"metascraper/internal/media"
)

// LocalRef is the catalog id recorded in an existing descriptor.
type LocalRef struct {
	TMDBID string
	Kind   media.Kind
	Path   string
}

var errNoLocalID = errors.New("no tmdb id")

// LocalID looks for a TMDB id in the descriptors already in dir:
// tvshow.nfo first, then the other .nfo files in name order. Episode
// descriptors are ignored since their ids name episodes. Unreadable files
// are skipped; the error joins what went wrong with each.
func LocalID(dir string) (LocalRef, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return LocalRef{}, false, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".nfo") || name == layout.ShowDescriptor {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	if slices.ContainsFunc(entries, func(e os.DirEntry) bool { return !e.IsDir() && e.Name() == layout.ShowDescriptor }) {
		names = append([]string{layout.ShowDescriptor}, names...)
	}

	var errs []error
	for _, name := range names {
		path := filepath.Join(dir, name)
		ref, err := readLocalID(path)
		if err == nil {
			ref.Path = path
			return ref, true, nil
		}
		if !errors.Is(err, errNoLocalID) {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return LocalRef{}, false, errors.Join(errs...)
}

// readLocalID reads <uniqueid type="tmdb"> or the older <tmdbid> element
// from a movie or tvshow descriptor.
func readLocalID(path string) (LocalRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return LocalRef{}, err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	dec.Strict = false
	var ref LocalRef
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return LocalRef{}, errNoLocalID
		}
		if err != nil {
			return LocalRef{}, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				switch strings.ToLower(el.Name.Local) {
				case "movie":
					ref.Kind = media.KindMovie
				case "tvshow":
					ref.Kind = media.KindTV
				default:
					return LocalRef{}, errNoLocalID
				}
				continue
			}
			if depth != 2 || !isTMDBElement(el) {
				continue
			}
			var value string
			if err := dec.DecodeElement(&value, &el); err != nil {
				return LocalRef{}, err
			}
			depth--
			if value = strings.TrimSpace(value); isDigits(value) {
				ref.TMDBID = value
				return ref, nil
			}
		case xml.EndElement:
			depth--
		}
	}
}

func isTMDBElement(el xml.StartElement) bool {
	switch strings.ToLower(el.Name.Local) {
	case "tmdbid":
		return true
	case "uniqueid":
		for _, attr := range el.Attr {
			if attr.Name.Local == "type" && strings.EqualFold(attr.Value, "tmdb") {
				return true
			}
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
