// Package config loads, normalizes, and validates metascraper configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY, OMDB_API_KEY, GOOGLE_API_KEY, GOOGLE_CSE_ID and LLM_API_KEY.
// Optional collaborators (OMDb, search assist, the LLM) are considered
// disabled when their credentials are absent rather than failing validation.
package config
