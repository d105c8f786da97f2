package pipeline

import (
	"metascraper/internal/media"
	"metascraper/internal/nfo"
	"metascraper/internal/tmdb"
)

// State is the single mutable value the stages of one run share. Only the
// runner goroutine touches it; the artwork fetch works on its own copy of
// the asset list and stores the result after joining.
type State struct {
	Request media.Request
	// CatalogID and Kind identify the catalog record once resolved.
	CatalogID string
	Kind      media.Kind

	Candidates []media.Candidate
	Selected   *media.Candidate
	Detail     *tmdb.Detail
	Record     *media.Record
	Document   *nfo.Document
	Files      []nfo.File
	Root       string
	Report     *media.Report
}
