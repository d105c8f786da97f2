// Package searchassist finds catalog pages through a web search engine,
// either the Custom Search JSON API or the public results page.
package searchassist
