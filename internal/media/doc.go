// Package media holds the data model shared by the resolution pipeline:
// requests, catalog candidates, the canonical metadata record, planned
// artwork, and the per-run report.
package media
