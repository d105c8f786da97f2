package pipeline

import (
	"context"
	"fmt"

	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/nfo"
	"metascraper/internal/services"
)

// mapDescriptor builds the descriptor tree from a snapshot, so nothing the
// mapper does can reach back into the record.
func (r *Runner) mapDescriptor(ctx context.Context, st *State) error {
	var gen nfo.TextGenerator
	if r.deps.Generator != nil {
		gen = r.deps.Generator
	}
	opts := nfo.Options{SynthesizeTagline: r.opts.SynthesizeTagline && gen != nil}
	doc, warnings, err := nfo.Map(ctx, st.Record.Snapshot(), opts, gen)
	if err != nil {
		return services.Wrap(services.ErrValidation, StageDescriptorMap, "map descriptor", "", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, w := range warnings {
		r.warn(ctx, st, media.WarningTranslation, w)
	}
	st.Document = doc
	r.log(ctx).Debug("descriptor mapped",
		logging.String("path", doc.Path),
		logging.Int("episodes", len(doc.Episodes)))
	return nil
}

func (r *Runner) validateDescriptor(_ context.Context, st *State) error {
	if err := nfo.Validate(st.Document); err != nil {
		return fmt.Errorf("%s: %w", StageDescriptorValidate, err)
	}
	return nil
}

func (r *Runner) renderDescriptor(ctx context.Context, st *State) error {
	files, err := nfo.Render(st.Document)
	if err != nil {
		return services.Wrap(services.ErrValidation, StageDescriptorRender, "render descriptor", "", err)
	}
	st.Files = files
	r.log(ctx).Debug("descriptors rendered", logging.Int("files", len(files)))
	return nil
}
