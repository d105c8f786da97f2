// Package main hosts the metascraper CLI.
//
// The Cobra command tree resolves single titles (resolve), scans folders for
// batch runs (batch), scaffolds and checks configuration (config, check),
// maintains the response cache (cache), and reads the log file (logs).
// Configuration is loaded lazily once per invocation; commands that do not
// need it opt out with the skipConfigLoad annotation.
//
// Keep this package thin: wiring and rendering live here, behavior lives in
// internal/pipeline and the client packages.
package main
