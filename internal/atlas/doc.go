// Package atlas holds the country aggregate produced by a pipeline run and the
// Merge reducer that builds it.
//
// An Aggregate is a value threaded through the pipeline: Merge takes the
// current aggregate plus one lookup result and returns the next aggregate.
// Merging is idempotent per (country, title, year) and order-independent up
// to list order, which keeps the count/list invariant easy to check in
// isolation.
package atlas
