// Package services defines shared utilities consumed by the pipeline, the
// metadata client, and the outer surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and correlation identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper that separate fatal
//     categories (configuration, parse, empty input) from per-record lookup
//     failures and the expected cancellation signal.
//
// Use these helpers when wiring new components so error classification stays
// uniform: only fatal markers may escape a run.
package services
