// Package pipeline turns parsed watch records into a per-country aggregate.
//
// Records are processed in fixed-size batches. Lookups inside a batch run
// concurrently; batches run one after another with a short delay between
// them so the catalog service's rate limit is respected. Cancellation via the
// run context stops scheduling and returns the partial aggregate.
package pipeline
