// Package pipeline turns one resolution request into a written media item.
//
// A Runner executes fourteen stages in fixed order over a single State:
// input resolution, catalog search (with the optional search-assist branch),
// candidate selection, detail fetch, translation, secondary-source
// enrichment, normalization, artwork planning and fetching, descriptor
// mapping, validation and rendering, the output write, and the report.
// Stages are sequential; only the artwork fetch runs work in parallel and it
// joins fully before the next stage starts. The report stage always runs,
// including after a fatal error, so every request yields a media.Report.
//
// External collaborators (catalog, secondary source, search assist, text
// generator, cache, file sink, downloader) are injected through Deps as
// small interfaces so tests can substitute stubs. RunBatch processes a list
// of requests sequentially, isolating per-item failures.
package pipeline
