package media

import "time"

// Identifier sources.
const (
	SourceTMDB = "tmdb"
	SourceIMDb = "imdb"
	SourceOMDb = "omdb"
)

// Rating sources written by the enricher.
const (
	RatingIMDb           = "imdb"
	RatingRottenTomatoes = "rottentomatoes"
	RatingMetacritic     = "metacritic"
)

// Person is a cast member. Variants holds per-locale spellings of the name;
// Name is the catalog spelling.
type Person struct {
	Name        string
	Role        string
	Variants    LocalizedText
	ProfilePath string
	Order       int
	Source      string
}

// CrewMember is a non-cast credit.
type CrewMember struct {
	Name       string
	Job        string
	Department string
	Source     string
}

// Crew jobs the descriptor cares about.
const (
	JobDirector = "Director"
	JobWriter   = "Writer"
)

// Rating is a score on a source-specific scale.
type Rating struct {
	Score float64
	Max   float64
	Votes int
}

// ImageRef is an unplanned catalog image reference.
type ImageRef struct {
	Path        string
	Locale      string
	VoteAverage float64
	Width       int
	Height      int
}

// Episode describes one episode of a season.
type Episode struct {
	Number    int
	Title     LocalizedText
	Overview  LocalizedText
	AirDate   string
	Runtime   int
	StillPath string
	Rating    float64
	Votes     int
	Directors []string
	Writers   []string
}

// Season groups episodes.
type Season struct {
	Number     int
	Name       string
	Overview   string
	AirDate    string
	PosterPath string
	Episodes   []Episode
}

// Image categories in catalog terms.
const (
	ImagePosters   = "posters"
	ImageBackdrops = "backdrops"
	ImageLogos     = "logos"
)

// Record is the canonical metadata record assembled by the pipeline.
type Record struct {
	Kind          Kind
	Identifiers   map[string]string
	Titles        LocalizedText
	Overview      LocalizedText
	Taglines      LocalizedText
	OriginalTitle string
	ReleaseDate   string
	Year          int
	Runtime       int
	Genres        []string
	Countries     []string
	Studios       []string
	Networks      []string
	Status        string
	Homepage      string
	Certification string
	Keywords      []string
	// LocalizedKeywords maps an original keyword to its translation.
	LocalizedKeywords map[string]LocalizedText
	// LocalizedGenres maps a catalog genre name to its translation.
	LocalizedGenres   map[string]LocalizedText
	Cast              []Person
	Crew              []CrewMember
	Ratings           map[string]Rating
	Images            map[string][]ImageRef
	Artwork           map[ArtworkCategory][]ArtworkAsset
	Seasons           []Season
	FetchedAt         time.Time
}

// NewRecord returns a record with every map allocated.
func NewRecord(kind Kind) *Record {
	return &Record{
		Kind:              kind,
		Identifiers:       map[string]string{},
		Titles:            LocalizedText{},
		Overview:          LocalizedText{},
		Taglines:          LocalizedText{},
		LocalizedKeywords: map[string]LocalizedText{},
		LocalizedGenres:   map[string]LocalizedText{},
		Ratings:           map[string]Rating{},
		Images:            map[string][]ImageRef{},
		Artwork:           map[ArtworkCategory][]ArtworkAsset{},
	}
}

// ID returns the identifier for source or an empty string.
func (r *Record) ID(source string) string {
	if r == nil || r.Identifiers == nil {
		return ""
	}
	return r.Identifiers[source]
}

// DisplayTitle picks a title by locale priority, falling back to the
// original title.
func (r *Record) DisplayTitle() string {
	if r == nil {
		return ""
	}
	if title := r.Titles.Preferred(); title != "" {
		return title
	}
	return r.OriginalTitle
}

// CrewByJob returns crew names credited with job, in record order.
func (r *Record) CrewByJob(job string) []string {
	var out []string
	for _, member := range r.Crew {
		if member.Job == job {
			out = append(out, member.Name)
		}
	}
	return out
}

// Snapshot returns a deep copy so later consumers cannot mutate the record.
func (r *Record) Snapshot() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Identifiers = cloneStringMap(r.Identifiers)
	out.Titles = r.Titles.Clone()
	out.Overview = r.Overview.Clone()
	out.Taglines = r.Taglines.Clone()
	out.Genres = append([]string(nil), r.Genres...)
	out.Countries = append([]string(nil), r.Countries...)
	out.Studios = append([]string(nil), r.Studios...)
	out.Networks = append([]string(nil), r.Networks...)
	out.Keywords = append([]string(nil), r.Keywords...)
	out.LocalizedKeywords = make(map[string]LocalizedText, len(r.LocalizedKeywords))
	for k, v := range r.LocalizedKeywords {
		out.LocalizedKeywords[k] = v.Clone()
	}
	out.LocalizedGenres = make(map[string]LocalizedText, len(r.LocalizedGenres))
	for k, v := range r.LocalizedGenres {
		out.LocalizedGenres[k] = v.Clone()
	}
	out.Cast = make([]Person, len(r.Cast))
	for i, p := range r.Cast {
		p.Variants = p.Variants.Clone()
		out.Cast[i] = p
	}
	out.Crew = append([]CrewMember(nil), r.Crew...)
	out.Ratings = make(map[string]Rating, len(r.Ratings))
	for k, v := range r.Ratings {
		out.Ratings[k] = v
	}
	out.Images = make(map[string][]ImageRef, len(r.Images))
	for k, v := range r.Images {
		out.Images[k] = append([]ImageRef(nil), v...)
	}
	out.Artwork = make(map[ArtworkCategory][]ArtworkAsset, len(r.Artwork))
	for k, v := range r.Artwork {
		assets := make([]ArtworkAsset, len(v))
		for i, a := range v {
			a.Fallbacks = append([]string(nil), a.Fallbacks...)
			a.Data = nil
			assets[i] = a
		}
		out.Artwork[k] = assets
	}
	out.Seasons = make([]Season, len(r.Seasons))
	for i, s := range r.Seasons {
		eps := make([]Episode, len(s.Episodes))
		for j, e := range s.Episodes {
			e.Title = e.Title.Clone()
			e.Overview = e.Overview.Clone()
			e.Directors = append([]string(nil), e.Directors...)
			e.Writers = append([]string(nil), e.Writers...)
			eps[j] = e
		}
		s.Episodes = eps
		out.Seasons[i] = s
	}
	return &out
}

func cloneStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
