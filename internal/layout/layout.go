package layout

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"metascraper/internal/textutil"
)

// Fixed names inside an item root. Paths are slash-separated and relative to
// the root; FromSlash is applied when joining with the root.
const (
	ShowDescriptor = "tvshow.nfo"
	ImagesDir      = "images"
	ActorsDir      = "actors"
	Poster         = "images/poster.jpg"
	Fanart         = "images/fanart.jpg"
	Banner         = "images/banner.jpg"
	Logo           = "images/logo.png"
	// Marker exists while a write is in progress or after one failed.
	Marker = ".metascraper-incomplete"
)

const untitled = "Untitled"

// Title returns the filesystem-safe form of a display title.
func Title(title string) string {
	clean := textutil.SanitizeFileName(title)
	if clean == "" {
		return untitled
	}
	return clean
}

// FolderName is "<Title> (<Year>)", or just the title when the year is
// unknown.
func FolderName(title string, year int) string {
	if year <= 0 {
		return Title(title)
	}
	return fmt.Sprintf("%s (%d)", Title(title), year)
}

// Root returns the item directory under outputDir.
func Root(outputDir, title string, year int) string {
	return filepath.Join(outputDir, FolderName(title, year))
}

// MovieDescriptor is the movie NFO file name.
func MovieDescriptor(title string, year int) string {
	return FolderName(title, year) + ".nfo"
}

// SeasonDir is "Season NN".
func SeasonDir(season int) string {
	return fmt.Sprintf("Season %02d", season)
}

// EpisodeTitle cleans an episode title for use in a file name. Titles with
// alternatives separated by "/" keep only the first one.
func EpisodeTitle(title string) string {
	if before, _, found := strings.Cut(title, "/"); found {
		title = before
	}
	return textutil.SanitizeFileName(title)
}

// EpisodeBase is "<Title> - SxxEyy - <Episode>" without an extension. The
// episode suffix is omitted when the episode has no usable title.
func EpisodeBase(showTitle string, season, episode int, episodeTitle string) string {
	base := fmt.Sprintf("%s - S%02dE%02d", Title(showTitle), season, episode)
	if clean := EpisodeTitle(episodeTitle); clean != "" {
		base += " - " + clean
	}
	return base
}

// EpisodeDescriptor is the episode NFO path relative to the show root.
func EpisodeDescriptor(showTitle string, season, episode int, episodeTitle string) string {
	return path.Join(SeasonDir(season), EpisodeBase(showTitle, season, episode, episodeTitle)+".nfo")
}

// EpisodeThumb is the episode still path relative to the show root.
func EpisodeThumb(showTitle string, season, episode int, episodeTitle string) string {
	return path.Join(SeasonDir(season), EpisodeBase(showTitle, season, episode, episodeTitle)+"-thumb.jpg")
}

// Backdrop is "images/backdropN.jpg", N counted from 1.
func Backdrop(n int) string {
	return fmt.Sprintf("images/backdrop%d.jpg", n)
}

// Still is "images/stills/NN.jpg".
func Still(n int) string {
	return fmt.Sprintf("images/stills/%02d.jpg", n)
}

// Actor returns the actor thumbnail path, or "" when the name has no usable
// characters.
func Actor(name string) string {
	base := textutil.ActorFileName(name)
	if base == "" {
		return ""
	}
	return ActorsDir + "/" + base + ".jpg"
}

// Abs joins a slash-separated relative path onto root.
func Abs(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
