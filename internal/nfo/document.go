package nfo

import (
	"encoding/xml"

	"metascraper/internal/media"
)

// Plot is rendered as a CDATA section.
type Plot struct {
	Text string `xml:",cdata"`
}

// UniqueID is a catalog identifier.
type UniqueID struct {
	Type    string `xml:"type,attr" validate:"oneof=tmdb imdb"`
	Default bool   `xml:"default,attr,omitempty"`
	Value   string `xml:",chardata" validate:"required"`
}

// Rating is one entry of the ratings block.
type Rating struct {
	Name    string  `xml:"name,attr" validate:"required"`
	Max     float64 `xml:"max,attr" validate:"gt=0"`
	Default bool    `xml:"default,attr,omitempty"`
	Value   float64 `xml:"value" validate:"gte=0"`
	Votes   int     `xml:"votes,omitempty" validate:"gte=0"`
}

// Ratings wraps rating entries.
type Ratings struct {
	Entries []Rating `xml:"rating" validate:"dive"`
}

// Actor is a cast entry.
type Actor struct {
	Name         string `xml:"name" validate:"required"`
	Role         string `xml:"role,omitempty"`
	Type         string `xml:"type" validate:"eq=Actor"`
	OriginalName string `xml:"originalname,omitempty"`
	Order        int    `xml:"order" validate:"gte=0"`
	Thumb        string `xml:"thumb,omitempty"`
}

// Thumb is an image reference with a Kodi aspect hint.
type Thumb struct {
	Aspect string `xml:"aspect,attr,omitempty"`
	Path   string `xml:",chardata"`
}

// Fanart lists background images.
type Fanart struct {
	Thumbs []string `xml:"thumb"`
}

// Movie is the <movie> descriptor.
type Movie struct {
	XMLName       xml.Name   `xml:"movie"`
	Title         string     `xml:"title" validate:"required"`
	OriginalTitle string     `xml:"originaltitle,omitempty"`
	SortTitle     string     `xml:"sorttitle,omitempty"`
	Year          int        `xml:"year" validate:"gte=0"`
	Premiered     string     `xml:"premiered,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Plot          *Plot      `xml:"plot,omitempty"`
	Tagline       string     `xml:"tagline,omitempty"`
	Runtime       int        `xml:"runtime" validate:"gte=0"`
	MPAA          string     `xml:"mpaa,omitempty"`
	Rating        float64    `xml:"rating,omitempty" validate:"gte=0"`
	Votes         int        `xml:"votes,omitempty" validate:"gte=0"`
	Ratings       *Ratings   `xml:"ratings,omitempty"`
	UniqueIDs     []UniqueID `xml:"uniqueid" validate:"min=1,dive"`
	Genres        []string   `xml:"genre"`
	Countries     []string   `xml:"country"`
	Studios       []string   `xml:"studio"`
	Credits       []string   `xml:"credits"`
	Directors     []string   `xml:"director"`
	Tags          []string   `xml:"tag"`
	Actors        []Actor    `xml:"actor" validate:"dive"`
	Thumbs        []Thumb    `xml:"thumb"`
	Fanart        *Fanart    `xml:"fanart,omitempty"`
}

// TVShow is the <tvshow> descriptor.
type TVShow struct {
	XMLName       xml.Name   `xml:"tvshow"`
	Title         string     `xml:"title" validate:"required"`
	OriginalTitle string     `xml:"originaltitle,omitempty"`
	SortTitle     string     `xml:"sorttitle,omitempty"`
	Year          int        `xml:"year" validate:"gte=0"`
	Premiered     string     `xml:"premiered,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Plot          *Plot      `xml:"plot,omitempty"`
	Tagline       string     `xml:"tagline,omitempty"`
	Runtime       int        `xml:"runtime" validate:"gte=0"`
	MPAA          string     `xml:"mpaa,omitempty"`
	Rating        float64    `xml:"rating,omitempty" validate:"gte=0"`
	Votes         int        `xml:"votes,omitempty" validate:"gte=0"`
	Ratings       *Ratings   `xml:"ratings,omitempty"`
	UniqueIDs     []UniqueID `xml:"uniqueid" validate:"min=1,dive"`
	Status        string     `xml:"status,omitempty" validate:"omitempty,oneof='Returning Series' Planned 'In Production' Ended Canceled Pilot"`
	Homepage      string     `xml:"homepage,omitempty" validate:"omitempty,url"`
	Genres        []string   `xml:"genre"`
	Countries     []string   `xml:"country"`
	Studios       []string   `xml:"studio"`
	Networks      []string   `xml:"network"`
	Credits       []string   `xml:"credits"`
	Directors     []string   `xml:"director"`
	Tags          []string   `xml:"tag"`
	Actors        []Actor    `xml:"actor" validate:"dive"`
	Thumbs        []Thumb    `xml:"thumb"`
	Fanart        *Fanart    `xml:"fanart,omitempty"`
}

// Episode is the <episodedetails> descriptor.
type Episode struct {
	XMLName       xml.Name `xml:"episodedetails"`
	Title         string   `xml:"title" validate:"required"`
	OriginalTitle string   `xml:"originaltitle,omitempty"`
	ShowTitle     string   `xml:"showtitle" validate:"required"`
	Season        int      `xml:"season" validate:"gte=0"`
	Episode       int      `xml:"episode" validate:"gt=0"`
	Year          int      `xml:"year,omitempty" validate:"gte=0"`
	Aired         string   `xml:"aired,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Plot          *Plot    `xml:"plot,omitempty"`
	Runtime       int      `xml:"runtime" validate:"gte=0"`
	Rating        float64  `xml:"rating,omitempty" validate:"gte=0"`
	Votes         int      `xml:"votes,omitempty" validate:"gte=0"`
	Credits       []string `xml:"credits"`
	Directors     []string `xml:"director"`
	Actors        []Actor  `xml:"actor" validate:"dive"`
	Thumb         string   `xml:"thumb,omitempty"`
}

// EpisodeFile pairs an episode descriptor with its path relative to the
// show root.
type EpisodeFile struct {
	Path    string
	Details *Episode
}

// Document is the full descriptor tree for one item: a movie, or a show
// with its episodes.
type Document struct {
	Kind media.Kind
	// Path of the main descriptor relative to the item root.
	Path     string
	Movie    *Movie
	Show     *TVShow
	Episodes []EpisodeFile
}
