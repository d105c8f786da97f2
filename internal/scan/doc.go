// Package scan finds titles in a media folder for batch runs and turns
// folder and file names into search queries with year and kind hints.
package scan
