package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"filmatlas/internal/pipeline"
	"filmatlas/internal/services"
	"filmatlas/internal/testsupport"
	"filmatlas/internal/tmdb"
	"filmatlas/internal/watchlist"
)

type stubCatalog struct {
	search    map[string][]tmdb.Result
	details   map[int64]*tmdb.MovieDetails
	searchErr error
	fetched   []int64
}

func (s *stubCatalog) SearchMovie(_ context.Context, title, _ string) (*tmdb.SearchResponse, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return &tmdb.SearchResponse{Results: s.search[title]}, nil
}

func (s *stubCatalog) GetMovieDetails(_ context.Context, id int64) (*tmdb.MovieDetails, error) {
	s.fetched = append(s.fetched, id)
	return s.details[id], nil
}

func TestCatalogLookupUsesFirstMatch(t *testing.T) {
	catalog := &stubCatalog{
		search: map[string][]tmdb.Result{"Solaris": {{ID: 1}, {ID: 2}}},
		details: map[int64]*tmdb.MovieDetails{
			1: {PosterPath: "/s.jpg", ProductionCountries: []tmdb.ProductionCountry{{Code: "su"}}},
			2: {ProductionCountries: []tmdb.ProductionCountry{{Code: "US"}}},
		},
	}
	lookup := pipeline.NewCatalogLookup(catalog, "https://image.tmdb.org/t/p/w300")

	results, err := lookup.Lookup(context.Background(), watchlist.Record{Title: "Solaris", Year: "1972", SourceURI: "https://boxd.it/x"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(catalog.fetched) != 1 || catalog.fetched[0] != 1 {
		t.Fatalf("expected details for first match only, fetched %v", catalog.fetched)
	}
	if len(results) != 1 || results[0].CountryCode != "SU" {
		t.Fatalf("unexpected results %#v", results)
	}
	movie := results[0].Movie
	if movie.PosterURL != "https://image.tmdb.org/t/p/w300/s.jpg" || movie.CatalogID != 1 || movie.SourceURI != "https://boxd.it/x" {
		t.Fatalf("unexpected movie %#v", movie)
	}
}

func TestCatalogLookupOneResultPerCountry(t *testing.T) {
	catalog := &stubCatalog{
		search: map[string][]tmdb.Result{"Amélie": {{ID: 194}}},
		details: map[int64]*tmdb.MovieDetails{
			194: {ProductionCountries: []tmdb.ProductionCountry{{Code: "FR"}, {Code: "DE"}, {Code: ""}}},
		},
	}
	results, err := pipeline.NewCatalogLookup(catalog, "").Lookup(context.Background(), watchlist.Record{Title: "Amélie", Year: "2001"})
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected FR and DE, got %#v", results)
	}
	if results[0].Movie.PosterURL != "" {
		t.Fatalf("expected no poster, got %q", results[0].Movie.PosterURL)
	}
}

func TestCatalogLookupNoMatches(t *testing.T) {
	catalog := &stubCatalog{}
	results, err := pipeline.NewCatalogLookup(catalog, "").Lookup(context.Background(), watchlist.Record{Title: "Nothing", Year: "1900"})
	if err != nil || len(results) != 0 {
		t.Fatalf("expected no results and no error, got %#v %v", results, err)
	}
	if len(catalog.fetched) != 0 {
		t.Fatalf("details should not be fetched without a match")
	}
}

func TestCatalogLookupPropagatesErrors(t *testing.T) {
	catalog := &stubCatalog{searchErr: services.ErrServiceUnavailable}
	_, err := pipeline.NewCatalogLookup(catalog, "").Lookup(context.Background(), watchlist.Record{Title: "X", Year: "1"})
	if !errors.Is(err, services.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
}

func TestPipelineAgainstTMDBServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search/movie":
			if r.URL.Query().Get("query") == "Parasite" {
				_, _ = w.Write([]byte(`{"results":[{"id":496243,"title":"Parasite"}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"results":[]}`))
		case "/movie/496243":
			_, _ = w.Write([]byte(`{"id":496243,"poster_path":"/p.jpg","production_countries":[{"iso_3166_1":"KR","name":"South Korea"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("token", server.URL, "en-US")
	if err != nil {
		t.Fatalf("tmdb.New: %v", err)
	}
	p := pipeline.New(pipeline.NewCatalogLookup(client, "https://img"), fastOptions())
	agg, err := p.Run(context.Background(), []watchlist.Record{
		{Title: "Parasite", Year: "2019"},
		{Title: "Unknown Film", Year: "2001"},
	}, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if agg.Counts["KR"] != 1 || len(agg.Counts) != 1 {
		t.Fatalf("unexpected counts %#v", agg.Counts)
	}
	if got := agg.Movies["KR"][0]; got.Title != "Parasite" || got.PosterURL != "https://img/p.jpg" || got.CatalogID != 496243 {
		t.Fatalf("unexpected movie %#v", got)
	}
}

func TestNewFromConfigRequiresToken(t *testing.T) {
	t.Setenv("TMDB_TOKEN", "")
	t.Setenv("TMDB_API_KEY", "")
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBToken(""))
	if _, err := pipeline.NewFromConfig(cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
