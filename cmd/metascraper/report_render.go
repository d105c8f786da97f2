package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"metascraper/internal/media"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func renderField(label, value string) string {
	return fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", value)
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func reportStatus(r *media.Report) (statusKind, string) {
	switch {
	case r.Failure != nil:
		msg := r.Failure.Kind
		if r.Failure.Stage != "" {
			msg += " at " + r.Failure.Stage
		}
		return statusError, msg
	case len(r.Warnings) > 0:
		return statusWarn, fmt.Sprintf("%s with %d warnings", r.Status, len(r.Warnings))
	default:
		return statusOK, r.Status
	}
}

// renderReport writes the human-readable form of one run report.
func renderReport(w io.Writer, r *media.Report, colorize bool) {
	var lines []string
	lines = append(lines, renderSectionHeader(r.Query, colorize)...)
	kind, msg := reportStatus(r)
	lines = append(lines, renderStatusLine("Status", kind, msg, colorize))
	if r.Title != "" {
		title := r.Title
		if r.Year > 0 {
			title = fmt.Sprintf("%s (%d)", title, r.Year)
		}
		lines = append(lines, renderField("Title", title))
	}
	if r.Kind != "" {
		lines = append(lines, renderField("Type", string(r.Kind)))
	}
	if r.TMDBID != "" {
		lines = append(lines, renderField("TMDB ID", r.TMDBID))
	}
	if r.Root != "" {
		lines = append(lines, renderField("Folder", r.Root))
	}
	lines = append(lines,
		renderField("Files", filesSummary(r)),
		renderField("Elapsed", r.Elapsed.Round(time.Millisecond).String()),
		renderField("Run ID", r.RunID))
	if r.Failure != nil {
		lines = append(lines, renderStatusLine("Error", statusError, r.Failure.Message, colorize))
	}
	if len(r.SkippedStages) > 0 {
		lines = append(lines, renderField("Skipped", strings.Join(r.SkippedStages, ", ")))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))

	if len(r.Warnings) > 0 {
		rows := make([][]string, 0, len(r.Warnings))
		for _, warn := range r.Warnings {
			rows = append(rows, []string{warn.Kind, warn.Stage, warn.Message})
		}
		fmt.Fprintln(w, renderTable([]string{"Warning", "Stage", "Message"}, rows, nil, colorize))
	}
	if len(r.StageDurations) > 0 {
		rows := make([][]string, 0, len(r.StageDurations))
		for _, st := range r.StageDurations {
			rows = append(rows, []string{st.Stage, st.Duration.Round(time.Microsecond).String()})
		}
		fmt.Fprintln(w, renderTable([]string{"Stage", "Duration"}, rows, []columnAlignment{alignLeft, alignRight}, colorize))
	}
}

func filesSummary(r *media.Report) string {
	out := strconv.Itoa(len(r.WrittenFiles))
	if n := len(r.SkippedFiles); n > 0 {
		out += fmt.Sprintf(" (%d kept)", n)
	}
	return out
}

// renderBatchSummary writes one row per item and a closing count.
func renderBatchSummary(w io.Writer, reports []*media.Report, colorize bool) {
	rows := make([][]string, 0, len(reports))
	failed := 0
	for i, r := range reports {
		status := r.Status
		detail := r.Root
		if r.Failure != nil {
			failed++
			status = r.Failure.Kind
			detail = r.Failure.Message
		}
		title := r.Title
		if title == "" {
			title = r.Query
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			title,
			status,
			strconv.Itoa(len(r.Warnings)),
			detail,
		})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "Title", "Status", "Warnings", "Folder / Error"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}, colorize))

	kind := statusOK
	if failed > 0 {
		kind = statusError
	}
	fmt.Fprintln(w, renderStatusLine("Batch", kind,
		fmt.Sprintf("%d succeeded, %d failed", len(reports)-failed, failed), colorize))
}
