// Package logging builds the slog loggers used across metascraper.
//
// Two formats are supported: a single-line console format with the stage and
// component lifted into a prefix, and JSON with a `ts` key for machine
// ingestion. Correlation fields (run id, item, stage) are attached through
// WithContext from values stored by the services context helpers.
package logging
