package tmdb

// Result represents a single TMDB search match.
type Result struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	OriginalTitle string  `json:"original_title"`
	OriginalName  string  `json:"original_name"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	MediaType     string  `json:"media_type"`
	Popularity    float64 `json:"popularity"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int64   `json:"vote_count"`
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// FindResponse is the /find payload.
type FindResponse struct {
	MovieResults []Result `json:"movie_results"`
	TVResults    []Result `json:"tv_results"`
}

// Named is the {id, name} pair TMDB uses for genres, companies, keywords.
type Named struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Country is a production country.
type Country struct {
	ISO3166 string `json:"iso_3166_1"`
	Name    string `json:"name"`
}

// CastMember is one credited performer.
type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	Order       int    `json:"order"`
	ProfilePath string `json:"profile_path"`
}

// CrewMember is one non-cast credit.
type CrewMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits groups cast and crew.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Keywords covers both shapes: movies use "keywords", series use "results".
type Keywords struct {
	Keywords []Named `json:"keywords"`
	Results  []Named `json:"results"`
}

// All returns keywords regardless of which field carried them.
func (k Keywords) All() []Named {
	if len(k.Keywords) > 0 {
		return k.Keywords
	}
	return k.Results
}

// Image is one entry of the images payload.
type Image struct {
	FilePath    string  `json:"file_path"`
	ISO639      string  `json:"iso_639_1"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Images groups image lists by category.
type Images struct {
	Posters   []Image `json:"posters"`
	Backdrops []Image `json:"backdrops"`
	Logos     []Image `json:"logos"`
	Stills    []Image `json:"stills"`
}

// ExternalIDs carries cross-catalog identifiers.
type ExternalIDs struct {
	IMDbID string `json:"imdb_id"`
	TVDBID int64  `json:"tvdb_id"`
}

// TranslationData is the translated subset of a record.
type TranslationData struct {
	Title    string `json:"title"`
	Name     string `json:"name"`
	Overview string `json:"overview"`
	Tagline  string `json:"tagline"`
	Homepage string `json:"homepage"`
}

// Translation is one language/region translation.
type Translation struct {
	ISO3166 string          `json:"iso_3166_1"`
	ISO639  string          `json:"iso_639_1"`
	Name    string          `json:"english_name"`
	Data    TranslationData `json:"data"`
}

// Translations wraps the translation list.
type Translations struct {
	Translations []Translation `json:"translations"`
}

// ReleaseDates carries per-country movie certifications.
type ReleaseDates struct {
	Results []struct {
		ISO3166      string `json:"iso_3166_1"`
		ReleaseDates []struct {
			Certification string `json:"certification"`
			Type          int    `json:"type"`
		} `json:"release_dates"`
	} `json:"results"`
}

// ContentRatings carries per-country series ratings.
type ContentRatings struct {
	Results []struct {
		ISO3166 string `json:"iso_3166_1"`
		Rating  string `json:"rating"`
	} `json:"results"`
}

// SeasonSummary is the season entry embedded in series details.
type SeasonSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
	PosterPath   string `json:"poster_path"`
}

// Episode describes a single TMDB episode entry.
type Episode struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Overview      string       `json:"overview"`
	SeasonNumber  int          `json:"season_number"`
	EpisodeNumber int          `json:"episode_number"`
	Runtime       int          `json:"runtime"`
	AirDate       string       `json:"air_date"`
	StillPath     string       `json:"still_path"`
	VoteAverage   float64      `json:"vote_average"`
	VoteCount     int          `json:"vote_count"`
	Crew          []CrewMember `json:"crew"`
}

// SeasonDetails captures the full TMDB season payload (episodes included).
type SeasonDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview"`
	AirDate      string    `json:"air_date"`
	PosterPath   string    `json:"poster_path"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

// SeasonError records a season that could not be fetched.
type SeasonError struct {
	SeasonNumber int    `json:"season_number"`
	Message      string `json:"message"`
}

// Detail is a movie or series with every appended sub-resource. Movie and
// series field names differ upstream (title/name, release_date/
// first_air_date); both are kept and read through accessors.
type Detail struct {
	MediaType           string          `json:"media_type"`
	ID                  int64           `json:"id"`
	Title               string          `json:"title"`
	Name                string          `json:"name"`
	OriginalTitle       string          `json:"original_title"`
	OriginalName        string          `json:"original_name"`
	OriginalLanguage    string          `json:"original_language"`
	Overview            string          `json:"overview"`
	Tagline             string          `json:"tagline"`
	ReleaseDate         string          `json:"release_date"`
	FirstAirDate        string          `json:"first_air_date"`
	Runtime             int             `json:"runtime"`
	EpisodeRunTime      []int           `json:"episode_run_time"`
	Genres              []Named         `json:"genres"`
	ProductionCountries []Country       `json:"production_countries"`
	OriginCountry       []string        `json:"origin_country"`
	ProductionCompanies []Named         `json:"production_companies"`
	Networks            []Named         `json:"networks"`
	Status              string          `json:"status"`
	Homepage            string          `json:"homepage"`
	IMDbID              string          `json:"imdb_id"`
	Popularity          float64         `json:"popularity"`
	VoteAverage         float64         `json:"vote_average"`
	VoteCount           int             `json:"vote_count"`
	Seasons             []SeasonSummary `json:"seasons"`
	Credits             Credits         `json:"credits"`
	Keywords            Keywords        `json:"keywords"`
	Images              Images          `json:"images"`
	ExternalIDs         ExternalIDs     `json:"external_ids"`
	Translations        Translations    `json:"translations"`
	ReleaseDates        ReleaseDates    `json:"release_dates"`
	ContentRatings      ContentRatings  `json:"content_ratings"`

	// Populated by Catalog for series.
	SeasonDetails []SeasonDetails `json:"season_details,omitempty"`
	SeasonErrors  []SeasonError   `json:"season_errors,omitempty"`
}

// DisplayTitle returns title for movies and name for series.
func (d *Detail) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// Original returns the original-language title.
func (d *Detail) Original() string {
	if d.OriginalTitle != "" {
		return d.OriginalTitle
	}
	return d.OriginalName
}

// Date returns the release or first-air date.
func (d *Detail) Date() string {
	if d.ReleaseDate != "" {
		return d.ReleaseDate
	}
	return d.FirstAirDate
}

// IMDb returns the IMDb id from either location TMDB reports it.
func (d *Detail) IMDb() string {
	if d.IMDbID != "" {
		return d.IMDbID
	}
	return d.ExternalIDs.IMDbID
}

// Certification returns the US certification when present, else the first
// non-empty one.
func (d *Detail) Certification() string {
	var first string
	for _, r := range d.ReleaseDates.Results {
		for _, rd := range r.ReleaseDates {
			if rd.Certification == "" {
				continue
			}
			if r.ISO3166 == "US" {
				return rd.Certification
			}
			if first == "" {
				first = rd.Certification
			}
		}
	}
	for _, r := range d.ContentRatings.Results {
		if r.Rating == "" {
			continue
		}
		if r.ISO3166 == "US" {
			return r.Rating
		}
		if first == "" {
			first = r.Rating
		}
	}
	return first
}
