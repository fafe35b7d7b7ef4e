package api

import (
	"time"

	"filmatlas/internal/atlas"
	"filmatlas/internal/geo"
	"filmatlas/internal/store"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// StartResponse acknowledges an accepted upload.
type StartResponse struct {
	RunID   string `json:"run_id"`
	Records int    `json:"records"`
}

// Movie is a MovieRef in transport form.
type Movie struct {
	Title  string  `json:"title"`
	Year   string  `json:"year"`
	URI    string  `json:"uri,omitempty"`
	Poster *string `json:"poster"`
	TMDBID int64   `json:"tmdb_id,omitempty"`
}

// CountryCount names a country alongside its movie count.
type CountryCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AggregateResponse is the published aggregate plus summary stats.
type AggregateResponse struct {
	RunID          string             `json:"run_id"`
	Cancelled      bool               `json:"cancelled"`
	Counts         map[string]int     `json:"counts"`
	Movies         map[string][]Movie `json:"movies"`
	TotalMovies    int                `json:"total_movies"`
	TotalCountries int                `json:"total_countries"`
	TopCountry     *CountryCount      `json:"top_country"`
}

// CountryResponse lists the movies attributed to one country.
type CountryResponse struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Movies []Movie `json:"movies"`
}

// ResolveResponse is tooltip data for one map feature.
type ResolveResponse struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// HistoryRun is a recorded run in transport form.
type HistoryRun struct {
	ID               string `json:"id"`
	Source           string `json:"source"`
	Status           string `json:"status"`
	TotalRecords     int    `json:"total_records"`
	ProcessedRecords int    `json:"processed_records"`
	CountryCount     int    `json:"country_count"`
	MovieCount       int    `json:"movie_count"`
	TopCountry       string `json:"top_country,omitempty"`
	StartedAt        string `json:"started_at"`
	FinishedAt       string `json:"finished_at"`
}

// HistoryResponse wraps the run list.
type HistoryResponse struct {
	Runs []HistoryRun `json:"runs"`
}

// FromMovieRefs converts movies, mapping empty posters to null.
func FromMovieRefs(movies []atlas.MovieRef) []Movie {
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		movie := Movie{Title: m.Title, Year: m.Year, URI: m.SourceURI, TMDBID: m.CatalogID}
		if m.PosterURL != "" {
			poster := m.PosterURL
			movie.Poster = &poster
		}
		out = append(out, movie)
	}
	return out
}

// FromAggregate builds the aggregate payload.
func FromAggregate(runID string, cancelled bool, agg atlas.Aggregate) AggregateResponse {
	resp := AggregateResponse{
		RunID:          runID,
		Cancelled:      cancelled,
		Counts:         make(map[string]int, len(agg.Counts)),
		Movies:         make(map[string][]Movie, len(agg.Movies)),
		TotalMovies:    agg.UniqueMovies(),
		TotalCountries: len(agg.Counts),
	}
	for code, count := range agg.Counts {
		resp.Counts[code] = count
	}
	for code, movies := range agg.Movies {
		resp.Movies[code] = FromMovieRefs(movies)
	}
	if top, ok := agg.Top(); ok {
		resp.TopCountry = &CountryCount{Code: top.Code, Name: countryName(top.Code), Count: top.Count}
	}
	return resp
}

// FromCountry builds the per-country payload. Codes absent from agg yield an
// empty movie list.
func FromCountry(code string, agg atlas.Aggregate) CountryResponse {
	return CountryResponse{
		Code:   code,
		Name:   countryName(code),
		Count:  agg.Counts[code],
		Movies: FromMovieRefs(agg.Movies[code]),
	}
}

// FromRuns converts recorded runs.
func FromRuns(runs []store.Run) []HistoryRun {
	out := make([]HistoryRun, 0, len(runs))
	for _, run := range runs {
		out = append(out, HistoryRun{
			ID:               run.ID,
			Source:           run.Source,
			Status:           run.Status,
			TotalRecords:     run.TotalRecords,
			ProcessedRecords: run.ProcessedRecords,
			CountryCount:     run.CountryCount,
			MovieCount:       run.MovieCount,
			TopCountry:       run.TopCountry,
			StartedAt:        formatTime(run.StartedAt),
			FinishedAt:       formatTime(run.FinishedAt),
		})
	}
	return out
}

func countryName(code string) string {
	if name := geo.NameForCode(code); name != "" {
		return name
	}
	return geo.UnknownName
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
