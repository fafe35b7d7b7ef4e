// Package main hosts the filmatlas CLI entrypoint and command graph.
//
// The Cobra command tree aggregates a watch-history export into per-country
// counts (map), inspects recorded runs (show, history), serves the HTTP
// surface for a map front end (serve), and scaffolds configuration (config).
// Configuration resolution and logger setup live in commandContext so
// subcommands only deal with presentation.
package main
