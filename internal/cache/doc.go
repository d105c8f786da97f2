// Package cache provides the response cache shared by catalog lookups and
// keyword translations.
//
// Two backends implement Cache: File keeps one JSON document per key under a
// flock-guarded directory and writes through temp files plus rename; SQLite
// keeps a WAL-mode table updated with INSERT ... ON CONFLICT. Open selects
// the backend from configuration and returns Nop when caching is disabled.
package cache
