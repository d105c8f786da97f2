package media

import (
	"time"
)

// Warning kinds.
const (
	WarningEnrichment  = "enrichment"
	WarningArtwork     = "artwork"
	WarningTranslation = "translation"
	WarningSearch      = "search"
)

// Warning is a non-fatal problem recorded during a run.
type Warning struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Report statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Failure describes the fatal error that ended a run.
type Failure struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

// StageTiming records how long one stage ran.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Report is the run summary produced for every item.
type Report struct {
	RunID          string        `json:"run_id"`
	Query          string        `json:"query"`
	Title          string        `json:"title,omitempty"`
	Year           int           `json:"year,omitempty"`
	TMDBID         string        `json:"tmdb_id,omitempty"`
	Kind           Kind          `json:"kind,omitempty"`
	Root           string        `json:"root,omitempty"`
	WrittenFiles   []string      `json:"written_files"`
	SkippedFiles   []string      `json:"skipped_files"`
	Warnings       []Warning     `json:"warnings"`
	StageDurations []StageTiming `json:"stage_durations"`
	SkippedStages  []string      `json:"skipped_stages"`
	Status         string        `json:"status"`
	Failure        *Failure      `json:"failure,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Elapsed        time.Duration `json:"elapsed_ns"`
}

// NewReport starts a report for runID.
func NewReport(runID, query string, started time.Time) *Report {
	return &Report{
		RunID:     runID,
		Query:     query,
		StartedAt: started.UTC(),
		Status:    StatusSucceeded,
	}
}

// Warn appends a warning.
func (r *Report) Warn(kind, stage, message string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, Stage: stage, Message: message})
}

// Skip records that stage did not run.
func (r *Report) Skip(stage string) {
	r.SkippedStages = append(r.SkippedStages, stage)
}

// Time records the duration of stage.
func (r *Report) Time(stage string, d time.Duration) {
	r.StageDurations = append(r.StageDurations, StageTiming{Stage: stage, Duration: d})
}

// Fail marks the report failed. Only the first failure is kept.
func (r *Report) Fail(kind, stage, message string) {
	r.Status = StatusFailed
	if r.Failure == nil {
		r.Failure = &Failure{Kind: kind, Stage: stage, Message: message}
	}
}

// Finalize stamps the finish time and normalizes nil slices so JSON output
// always carries arrays.
func (r *Report) Finalize(finished time.Time) {
	r.FinishedAt = finished.UTC()
	r.Elapsed = r.FinishedAt.Sub(r.StartedAt)
	if r.WrittenFiles == nil {
		r.WrittenFiles = []string{}
	}
	if r.SkippedFiles == nil {
		r.SkippedFiles = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []Warning{}
	}
	if r.StageDurations == nil {
		r.StageDurations = []StageTiming{}
	}
	if r.SkippedStages == nil {
		r.SkippedStages = []string{}
	}
	if r.Failure != nil {
		r.Status = StatusFailed
	}
}

// Succeeded reports whether the run completed without a fatal error.
func (r *Report) Succeeded() bool {
	return r != nil && r.Status == StatusSucceeded
}

// WarningsOf returns warnings of the given kind.
func (r *Report) WarningsOf(kind string) []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}
