// Package textutil provides the text helpers shared by the pipeline: title
// and name normalization, Levenshtein-based similarity, Han script
// detection, and filename sanitization for item folders and artwork.
package textutil
