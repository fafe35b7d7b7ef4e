// Package watchlist parses watch-history exports (Letterboxd watched.csv and
// compatible files) into records for the aggregation pipeline.
package watchlist
