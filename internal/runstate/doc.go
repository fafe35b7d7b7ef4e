// Package runstate owns the single live aggregation run.
//
// The Manager starts runs in the background, exposes a read-only snapshot of
// their progress, and publishes the final aggregate. Starting a new run
// cancels and discards the previous one; a run that was replaced can never
// publish its result.
package runstate
