package scan

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"metascraper/internal/media"
)

// Name is what a folder or file name says about its content.
type Name struct {
	Title   string
	Year    int
	Kind    media.Kind
	Season  int
	Episode int
}

var (
	bracketPattern  = regexp.MustCompile(`\[[^\]]*\]|【[^】]*】`)
	yearPattern     = regexp.MustCompile(`^\(?((?:19|20)\d{2})\)?$`)
	episodePattern  = regexp.MustCompile(`(?i)^S(\d{1,2})E(\d{1,3})`)
	seasonPattern   = regexp.MustCompile(`(?i)^S(\d{1,2})$`)
	numberPattern   = regexp.MustCompile(`^\d{1,3}$`)
	releasePattern  = regexp.MustCompile(`(?i)^(\d{3,4}[pi]|4k|uhd|hdr10?|x26[45]|h26[45]|hevc|avc|xvid|divx|aac|ac3|eac3|dts|truehd|flac|10bit|8bit|bluray|blu-ray|bdrip|brrip|bd|web-?dl|webrip|hdtv|dvdrip|remux|repack)$`)
	separatorRunes  = " ._"
	trailingPunct   = " -–—·:："
	mediaExtensions = map[string]bool{
		".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true,
		".webm": true, ".rmvb": true, ".rm": true, ".asf": true, ".mpg": true, ".mpeg": true,
		".m4v": true, ".3gp": true, ".m2ts": true, ".mts": true, ".vob": true, ".ogv": true,
		".divx": true, ".f4v": true, ".m2v": true, ".ts": true, ".iso": true,
	}
)

// IsMedia reports whether name carries a video extension.
func IsMedia(name string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(name))]
}

// ParseName derives a search title from a folder or file name. The title
// ends at the first year, episode tag, season marker, or release token that
// follows it; bracketed groups are dropped wherever they appear. A name
// with an episode tag or season marker is a series.
func ParseName(name string) Name {
	out := Name{Kind: media.KindAuto}
	if IsMedia(name) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	name = bracketPattern.ReplaceAllString(name, " ")
	name = strings.NewReplacer("(", " (", ")", ") ").Replace(name)
	// Scene names separate words with dots, so a trailing year there is a
	// release year rather than part of the title.
	dotted := !strings.Contains(strings.TrimSpace(name), " ") && strings.ContainsAny(name, "._")
	tokens := strings.FieldsFunc(name, func(r rune) bool {
		return strings.ContainsRune(separatorRunes, r) || unicode.IsSpace(r)
	})

	cut := len(tokens)
	mark := func(i int) {
		if i > 0 && i < cut {
			cut = i
		}
	}
	for i, tok := range tokens {
		next := ""
		if i+1 < len(tokens) {
			next = tokens[i+1]
		}
		switch {
		case episodePattern.MatchString(tok):
			m := episodePattern.FindStringSubmatch(tok)
			out.Kind = media.KindTV
			if out.Season == 0 {
				out.Season, _ = strconv.Atoi(m[1])
				out.Episode, _ = strconv.Atoi(m[2])
			}
			mark(i)
		case seasonPattern.MatchString(tok):
			out.Kind = media.KindTV
			if out.Season == 0 {
				out.Season, _ = strconv.Atoi(seasonPattern.FindStringSubmatch(tok)[1])
			}
			mark(i)
		case strings.EqualFold(tok, "season") && numberPattern.MatchString(next):
			out.Kind = media.KindTV
			if out.Season == 0 {
				out.Season, _ = strconv.Atoi(next)
			}
			mark(i)
		case strings.EqualFold(tok, "episode") && numberPattern.MatchString(next):
			out.Kind = media.KindTV
			if out.Episode == 0 {
				out.Episode, _ = strconv.Atoi(next)
			}
			mark(i)
		case yearPattern.MatchString(tok) && i > 0 && (strings.HasPrefix(tok, "(") || i+1 < len(tokens) || dotted):
			// Otherwise a trailing year is part of the title ("Blade Runner 2049").
			if out.Year == 0 {
				out.Year, _ = strconv.Atoi(yearPattern.FindStringSubmatch(tok)[1])
			}
			mark(i)
		case releasePattern.MatchString(releaseHead(tok)):
			mark(i)
		}
	}

	title := strings.Join(tokens[:cut], " ")
	title = strings.Trim(title, trailingPunct)
	if !hasUpper(title) {
		title = cases.Title(language.Und).String(title)
	}
	out.Title = title
	return out
}

// releaseHead drops a trailing "-GROUP" suffix from scene tokens such as
// "x264-GROUP".
func releaseHead(tok string) string {
	if releasePattern.MatchString(tok) {
		return tok
	}
	head, _, _ := strings.Cut(tok, "-")
	return head
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
