package pipeline

import (
	"context"

	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/services"
)

// finishReport is the reporter stage. It runs for every request, after the
// last stage or after the first fatal error.
func (r *Runner) finishReport(ctx context.Context, st *State, runErr error, failedStage string) {
	started := r.deps.Now()
	ctx = services.WithStage(ctx, StageReport)
	logger := r.log(ctx)
	report := st.Report

	if rec := st.Record; rec != nil {
		report.Title = rec.DisplayTitle()
		report.Year = rec.Year
		report.TMDBID = rec.ID(media.SourceTMDB)
		report.Kind = rec.Kind
	} else if st.Kind.Concrete() {
		report.Kind = st.Kind
	}
	if report.Root == "" {
		report.Root = st.Root
	}
	if runErr != nil {
		report.Fail(services.Classify(runErr), failedStage, runErr.Error())
	}
	report.Time(StageReport, r.deps.Now().Sub(started))
	report.Finalize(r.deps.Now())

	for _, w := range report.Warnings {
		logging.WarnWithContext(logger, "run warning", "run_warning",
			logging.String("warning_kind", w.Kind),
			logging.String("warning_stage", w.Stage),
			logging.String("warning", w.Message))
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_summary"),
		logging.String("status", report.Status),
		logging.String("title", report.Title),
		logging.Int("year", report.Year),
		logging.String("tmdb_id", report.TMDBID),
		logging.String("root", report.Root),
		logging.Int("files_written", len(report.WrittenFiles)),
		logging.Int("warnings", len(report.Warnings)),
		logging.Int("stages_skipped", len(report.SkippedStages)),
		logging.Duration("elapsed", report.Elapsed),
	}
	if report.Failure != nil {
		attrs = append(attrs,
			logging.String("failure_kind", report.Failure.Kind),
			logging.String("failure_stage", report.Failure.Stage),
			logging.String("failure", report.Failure.Message))
		logger.Error("run failed", logging.Args(attrs...)...)
		return
	}
	logger.Info("run completed", logging.Args(attrs...)...)
}
