// Package tmdb is a small client for the TMDb v3 and v4 endpoints the
// pipeline reads: lists, show lookup and details, aggregate credits, people
// and per-credit episode detail.
//
// Every call goes through httpretry, so rate limits and transient failures
// are retried and a missing resource surfaces as services.ErrNotFound.
package tmdb
