package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/services"
)

// Stage names, in execution order.
const (
	StageResolve            = "resolve"
	StageSearch             = "search"
	StageSelect             = "select"
	StageFetch              = "fetch"
	StageTranslate          = "translate"
	StageEnrich             = "enrich"
	StageNormalize          = "normalize"
	StageArtworkPlan        = "artwork_plan"
	StageArtworkFetch       = "artwork_fetch"
	StageDescriptorMap      = "descriptor_map"
	StageDescriptorValidate = "descriptor_validate"
	StageDescriptorRender   = "descriptor_render"
	StageWrite              = "write"
	StageReport             = "report"
)

type stage struct {
	name string
	run  func(context.Context, *State) error
}

// skipError marks a stage that decided not to run.
type skipError struct{ reason string }

func (e *skipError) Error() string { return "stage skipped: " + e.reason }

func skipStage(reason string) error { return &skipError{reason: reason} }

// Runner executes the pipeline.
type Runner struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// NewRunner validates deps and returns a runner.
func NewRunner(deps Deps, opts Options) (*Runner, error) {
	switch {
	case deps.Catalog == nil:
		return nil, fmt.Errorf("%w: catalog client required", services.ErrConfiguration)
	case deps.Sink == nil:
		return nil, fmt.Errorf("%w: file sink required", services.ErrConfiguration)
	case deps.Downloader == nil:
		return nil, fmt.Errorf("%w: downloader required", services.ErrConfiguration)
	}
	deps.setDefaults()
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.CatalogLocale == "" {
		opts.CatalogLocale = media.FallbackLocale
	}
	return &Runner{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(deps.Logger, "pipeline"),
	}, nil
}

func (r *Runner) stages() []stage {
	return []stage{
		{StageResolve, r.resolve},
		{StageSearch, r.search},
		{StageSelect, r.selectCandidate},
		{StageFetch, r.fetch},
		{StageTranslate, r.translate},
		{StageEnrich, r.enrich},
		{StageNormalize, r.normalize},
		{StageArtworkPlan, r.planArtwork},
		{StageArtworkFetch, r.fetchArtwork},
		{StageDescriptorMap, r.mapDescriptor},
		{StageDescriptorValidate, r.validateDescriptor},
		{StageDescriptorRender, r.renderDescriptor},
		{StageWrite, r.write},
	}
}

// Run resolves one request. The returned report is never nil; err is the
// fatal error that ended the run, already recorded in the report.
func (r *Runner) Run(ctx context.Context, req media.Request) (*media.Report, error) {
	runID := r.deps.NewRunID()
	st := &State{
		Request: req,
		Report:  media.NewReport(runID, req.Label(), r.deps.Now()),
	}
	ctx = services.WithRequestID(ctx, runID)
	ctx = services.WithItem(ctx, req.Label())
	if r.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RunTimeout)
		defer cancel()
	}

	logging.WithContext(ctx, r.logger).Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("query", strings.TrimSpace(req.Query)),
		logging.String("tmdb_id", strings.TrimSpace(req.ExternalID)),
		logging.String("imdb_id", strings.TrimSpace(req.SecondaryID)),
		logging.String("kind", string(req.Kind)),
		logging.Bool("aided_search", req.AidedSearch))

	var (
		runErr      error
		failedStage string
	)
	defer func() {
		r.finishReport(ctx, st, runErr, failedStage)
	}()

	for _, s := range r.stages() {
		if err := r.runStage(ctx, s, st); err != nil {
			runErr, failedStage = err, s.name
			return st.Report, err
		}
	}
	return st.Report, nil
}

func (r *Runner) runStage(ctx context.Context, s stage, st *State) error {
	stageCtx := services.WithStage(ctx, s.name)
	logger := logging.WithContext(stageCtx, r.logger)
	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := r.deps.Now()
	err := s.run(stageCtx, st)
	elapsed := r.deps.Now().Sub(started)

	var skip *skipError
	if errors.As(err, &skip) {
		st.Report.Skip(s.name)
		logger.Info("stage skipped", logging.Args(logging.DecisionAttrs("stage_skip", "skipped", skip.reason)...)...)
		return nil
	}
	st.Report.Time(s.name, elapsed)
	if err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("failure_kind", services.Classify(err)),
			logging.Duration("stage_duration", elapsed),
			logging.Error(err))
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", elapsed))
	return nil
}

// RunBatch runs requests one after another. A failed item is recorded in
// its own report and does not stop the batch; cancellation does, returning
// the reports gathered so far.
func (r *Runner) RunBatch(ctx context.Context, reqs []media.Request) ([]*media.Report, error) {
	reports := make([]*media.Report, 0, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := r.Run(ctx, req)
		reports = append(reports, report)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return reports, ctxErr
		}
		logging.WarnWithContext(r.logger, "batch item failed", "batch_item_failed",
			logging.Int("index", i),
			logging.String(logging.FieldItem, req.Label()),
			logging.String("failure_kind", services.Classify(err)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "item skipped; remaining items continue"))
	}
	return reports, nil
}

// warn records a non-fatal problem. The report stage logs every warning at
// warn level once the run ends; here it is only traced.
func (r *Runner) warn(ctx context.Context, st *State, kind, message string, attrs ...logging.Attr) {
	stageName, _ := services.StageFromContext(ctx)
	st.Report.Warn(kind, stageName, message)
	all := append([]logging.Attr{
		logging.String("warning_kind", kind),
		logging.String("warning", message),
	}, attrs...)
	r.log(ctx).Debug("warning recorded", logging.Args(all...)...)
}

func (r *Runner) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, r.logger)
}
