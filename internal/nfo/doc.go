// Package nfo maps a metadata record to Kodi-style NFO descriptors
// (movie, tvshow, episodedetails), validates them and renders XML.
//
// Map is a one-shot conversion from a record snapshot; the document shares
// no mutable state with the record. Validate uses go-playground/validator
// struct tags and reports the first offending field as a
// DescriptorValidationError. Render is deterministic: the same document
// always produces the same bytes.
package nfo
