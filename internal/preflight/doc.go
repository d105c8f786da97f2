// Package preflight verifies that configured directories are usable and that
// the external services metascraper talks to answer with the configured
// credentials. Each check returns a Result instead of an error so callers can
// render every outcome at once.
package preflight
