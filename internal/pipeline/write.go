package pipeline

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"metascraper/internal/fileutil"
	"metascraper/internal/layout"
	"metascraper/internal/logging"
	"metascraper/internal/media"
	"metascraper/internal/services"
)

// itemWriter tracks what one write created or replaced so a failure can
// be undone.
type itemWriter struct {
	sink        FileSink
	root        string
	createdDirs []string
	written     []string
	// backups maps a replaced file to the sibling holding its previous
	// contents until the write commits.
	backups map[string]string
}

func (w *itemWriter) mkdir(dir string) error {
	created, err := w.sink.MkdirAll(dir)
	w.createdDirs = append(w.createdDirs, created...)
	return err
}

func (w *itemWriter) put(rel string, data []byte) error {
	abs := layout.Abs(w.root, rel)
	if err := w.mkdir(filepath.Dir(abs)); err != nil {
		return err
	}
	if err := w.backup(abs); err != nil {
		return err
	}
	if err := w.sink.Write(abs, data); err != nil {
		return err
	}
	w.written = append(w.written, rel)
	return nil
}

// backup moves an existing file aside before it is replaced.
func (w *itemWriter) backup(abs string) error {
	if _, ok := w.backups[abs]; ok || !w.sink.Exists(abs) {
		return nil
	}
	saved := backupPath(abs)
	if err := w.sink.Rename(abs, saved); err != nil {
		return fmt.Errorf("keep previous %s: %w", filepath.Base(abs), err)
	}
	if w.backups == nil {
		w.backups = map[string]string{}
	}
	w.backups[abs] = saved
	return nil
}

func backupPath(abs string) string {
	return filepath.Join(filepath.Dir(abs), "."+filepath.Base(abs)+".prev")
}

// commit drops the previous contents of replaced files.
func (w *itemWriter) commit() []error {
	var errs []error
	for _, saved := range w.backups {
		if err := w.sink.Remove(saved); err != nil {
			errs = append(errs, err)
		}
	}
	w.backups = nil
	return errs
}

func (w *itemWriter) createdRoot() bool {
	return slices.Contains(w.createdDirs, filepath.Clean(w.root))
}

// rollback removes everything this write created and puts replaced files
// back. Directories go deepest first and only when empty.
func (w *itemWriter) rollback() []error {
	var errs []error
	for _, rel := range slices.Backward(w.written) {
		if err := w.sink.Remove(layout.Abs(w.root, rel)); err != nil {
			errs = append(errs, err)
		}
	}
	for _, abs := range slices.Sorted(maps.Keys(w.backups)) {
		if err := w.sink.Rename(w.backups[abs], abs); err != nil {
			errs = append(errs, err)
		}
	}
	w.backups = nil
	if w.createdRoot() {
		if err := w.sink.Remove(layout.Abs(w.root, layout.Marker)); err != nil {
			errs = append(errs, err)
		}
	}
	dirs := slices.Clone(w.createdDirs)
	slices.SortFunc(dirs, func(a, b string) int { return len(b) - len(a) })
	for _, dir := range dirs {
		if err := w.sink.Remove(dir); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// write commits descriptors then artwork under the item root. A marker file
// exists for the duration of the write; on failure this run's files are
// removed, files it replaced are restored, and the marker is left with the
// reason unless the root itself was created by this run, in which case the
// root goes too.
func (r *Runner) write(ctx context.Context, st *State) error {
	root := filepath.Clean(st.Root)
	if err := fileutil.CheckWritable(filepath.Dir(root)); err != nil {
		return services.Wrap(services.ErrWrite, StageWrite, "preflight", root, err)
	}

	w := &itemWriter{sink: r.deps.Sink, root: root}
	if err := w.mkdir(root); err != nil {
		return r.abortWrite(ctx, st, w, services.Wrap(services.ErrWrite, StageWrite, "create root", root, err))
	}
	marker := layout.Abs(root, layout.Marker)
	if err := w.sink.Write(marker, markerBody(st, "in progress", r.deps.Now())); err != nil {
		return r.abortWrite(ctx, st, w, services.Wrap(services.ErrWrite, StageWrite, "write marker", marker, err))
	}

	for _, f := range st.Files {
		if err := ctx.Err(); err != nil {
			return r.abortWrite(ctx, st, w, services.Wrap(services.ErrWrite, StageWrite, "write descriptor", f.Path, err))
		}
		if err := w.put(f.Path, f.Data); err != nil {
			return r.abortWrite(ctx, st, w, services.Wrap(services.ErrWrite, StageWrite, "write descriptor", f.Path, err))
		}
	}
	for _, a := range flattenArtwork(st.Record.Artwork) {
		if a.Status != media.ArtworkFetched {
			continue
		}
		if err := ctx.Err(); err != nil {
			return r.abortWrite(ctx, st, w, services.Wrap(services.ErrWrite, StageWrite, "write artwork", a.TargetPath, err))
		}
		if err := w.put(a.TargetPath, a.Data); err != nil {
			return r.abortWrite(ctx, st, w, services.Wrap(services.ErrWrite, StageWrite, "write artwork", a.TargetPath, err))
		}
	}

	if err := w.sink.Remove(marker); err != nil {
		return r.abortWrite(ctx, st, w, services.Wrap(services.ErrWrite, StageWrite, "remove marker", marker, err))
	}
	replaced := len(w.backups)
	for _, err := range w.commit() {
		r.log(ctx).Debug("previous file not removed", logging.Error(err))
	}
	st.Report.Root = root
	st.Report.WrittenFiles = slices.Clone(w.written)
	r.log(ctx).Info("item written",
		logging.String("root", root),
		logging.Int("files", len(w.written)),
		logging.Int("files_replaced", replaced),
		logging.Bool("root_created", w.createdRoot()))
	return nil
}

func (r *Runner) abortWrite(ctx context.Context, st *State, w *itemWriter, cause error) error {
	logger := r.log(ctx)
	restored := len(w.backups)
	for _, err := range w.rollback() {
		logger.Debug("rollback step failed", logging.Error(err))
	}
	if !w.createdRoot() {
		marker := layout.Abs(w.root, layout.Marker)
		body := markerBody(st, "failed: "+cause.Error(), r.deps.Now())
		if err := w.sink.Write(marker, body); err != nil {
			logger.Debug("failure marker not written", logging.Error(err))
		}
	}
	logging.WarnWithContext(logger, "write rolled back", "write_rollback",
		logging.String("root", w.root),
		logging.Int("files_removed", len(w.written)),
		logging.Int("files_restored", restored),
		logging.Bool("root_removed", w.createdRoot()),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "check free space and permissions on the output directory"),
		logging.String(logging.FieldImpact, "no partial item left behind; earlier output kept"))
	return cause
}

func markerBody(st *State, status string, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "run_id=%s\n", st.Report.RunID)
	fmt.Fprintf(&b, "query=%s\n", st.Report.Query)
	fmt.Fprintf(&b, "time=%s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "status=%s\n", status)
	return []byte(b.String())
}
