// Package tmdb provides the minimal TMDB API client used to attribute watched
// movies to production countries.
//
// It authenticates with a bearer token and exposes title+year movie search and
// movie detail retrieval. Failures are tagged with services markers: non-2xx
// and transport errors become ErrServiceUnavailable, aborted requests
// ErrCancelled, and undecodable bodies ErrMalformedResponse, so callers can
// tell expected cancellation apart from genuine lookup failures. Options allow
// tests to supply custom HTTP clients and an optional request rate limit.
package tmdb
