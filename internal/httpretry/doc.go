// Package httpretry wraps an http.Client with request pacing and retries for
// transient upstream failures.
//
// Rate limits (429), server errors and timeouts are retried with exponential
// backoff that honours Retry-After. A 404 is reported as services.ErrNotFound
// so callers can treat missing records as empty results.
package httpretry
