// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp item labels, stage names, and run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, and Classify which turns
//     a failure into the kind recorded in run reports.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
