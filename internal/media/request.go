package media

// Request is the input to one pipeline run. Exactly one of Query,
// ExternalID, or SecondaryID must lead to a catalog id before details are
// fetched.
type Request struct {
	Query       string
	ExternalID  string
	SecondaryID string
	Kind        Kind
	AidedSearch bool
	YearHint    int
	// TargetDir overrides the derived output root.
	TargetDir string
}

// Label returns a short human-readable identifier for logs and reports.
func (r Request) Label() string {
	switch {
	case r.Query != "":
		return r.Query
	case r.ExternalID != "":
		return "tmdb:" + r.ExternalID
	case r.SecondaryID != "":
		return "imdb:" + r.SecondaryID
	default:
		return "(empty)"
	}
}

// Candidate is one catalog search hit.
type Candidate struct {
	ExternalID    string
	Title         string
	OriginalTitle string
	ReleaseYear   int
	Popularity    float64
	Kind          Kind
}
