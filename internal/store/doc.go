// Package store persists the history of finished aggregation runs in SQLite.
//
// Each row in runs summarizes one run; run_movies holds the per-country movie
// lists so an aggregate can be rebuilt with LoadAggregate. The store is
// write-once per run and is never consulted for catalog lookups.
package store
