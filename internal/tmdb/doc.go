// Package tmdb talks to The Movie Database.
//
// Client is a thin HTTP wrapper over the search, detail, season, and find
// endpoints with a token-bucket limiter in front of every request. Catalog
// layers caching on top and adapts results to the pipeline's candidate and
// detail shapes.
package tmdb
