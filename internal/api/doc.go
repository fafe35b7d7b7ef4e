// Package api serves the run state and aggregate over HTTP for a map front
// end.
//
// # Routes
//
//	POST   /api/runs             upload a watch-history CSV and start a run
//	GET    /api/run              current run snapshot
//	DELETE /api/run              cancel the live run, keeping its partial result
//	POST   /api/run/reset        cancel and discard everything
//	GET    /api/aggregate        final aggregate (409 until the run is on the map)
//	GET    /api/countries/{code} one country's movies
//	POST   /api/resolve          resolve a map feature to tooltip data
//	GET    /api/history          recorded runs
//
// DTOs use snake_case JSON tags. Movies without a poster carry "poster": null.
package api
