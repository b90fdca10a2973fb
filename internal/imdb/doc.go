// Package imdb reads the two public IMDb pages the pipeline needs: user list
// pages (the show registry source) and a title's full-credits page (the
// scrape strategy for episode and season counts).
package imdb
