// Package omdb fetches secondary ratings and credits from the OMDb API.
package omdb
