// Package config loads, normalizes, and validates filmatlas configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_TOKEN. The Config type centralizes every knob the CLI and the HTTP
// surface need, from the TMDB credential to the pipeline batch size.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
