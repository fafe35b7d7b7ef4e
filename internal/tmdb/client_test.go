package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"filmatlas/internal/services"
	"filmatlas/internal/tmdb"
)

func TestNewRequiresToken(t *testing.T) {
	_, err := tmdb.New("  ", "https://example.com", "en-US")
	if err == nil {
		t.Fatal("expected error when token missing")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSearchMovieSendsBearerAndYear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("query") != "Parasite" || q.Get("year") != "2019" || q.Get("language") != "en-US" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":496243,"title":"Parasite"},{"id":7,"title":"Parasite (Remake)"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("token", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchMovie(context.Background(), "Parasite", "2019")
	if err != nil {
		t.Fatalf("SearchMovie returned error: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[0].ID != 496243 {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestSearchMovieOmitsBlankYear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("year") {
			t.Errorf("expected no year parameter, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("token", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	resp, err := client.SearchMovie(context.Background(), "Nothing", " ")
	if err != nil {
		t.Fatalf("SearchMovie returned error: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("expected empty results, got %#v", resp.Results)
	}
}

func TestGetMovieDetailsParsesCountries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/496243" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":496243,"poster_path":"/p.jpg","production_countries":[{"iso_3166_1":"KR","name":"South Korea"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("token", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	details, err := client.GetMovieDetails(context.Background(), 496243)
	if err != nil {
		t.Fatalf("GetMovieDetails returned error: %v", err)
	}
	if details.PosterPath != "/p.jpg" {
		t.Fatalf("unexpected poster path %q", details.PosterPath)
	}
	if len(details.ProductionCountries) != 1 || details.ProductionCountries[0].Code != "KR" {
		t.Fatalf("unexpected countries %#v", details.ProductionCountries)
	}
}

func TestGetMovieDetailsRejectsInvalidID(t *testing.T) {
	client, err := tmdb.New("token", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.GetMovieDetails(context.Background(), 0); err == nil {
		t.Fatal("expected error for non-positive id")
	}
}

func TestHTTPErrorIsServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_code":7}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("token", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.SearchMovie(context.Background(), "fail", "")
	if !errors.Is(err, services.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("token", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.SearchMovie(context.Background(), "broken", "")
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestCancelledRequestIsTypedAsCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client, err := tmdb.New("token", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = client.SearchMovie(ctx, "hung", "")
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if !services.IsCancelled(err) {
		t.Fatal("expected IsCancelled to recognise the error")
	}
}

func TestWithTimeoutLeavesSuppliedClientUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	shared := &http.Client{}
	client, err := tmdb.New("token", server.URL, "", tmdb.WithHTTPClient(shared), tmdb.WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if shared.Timeout != 0 {
		t.Fatalf("shared client timeout changed to %v", shared.Timeout)
	}

	_, err = client.SearchMovie(context.Background(), "Heat", "")
	if !errors.Is(err, services.ErrServiceUnavailable) {
		t.Fatalf("expected timeout to surface as service unavailable, got %v", err)
	}
}

func TestPosterURL(t *testing.T) {
	cases := []struct {
		base, path, want string
	}{
		{"https://image.tmdb.org/t/p/w300", "/abc.jpg", "https://image.tmdb.org/t/p/w300/abc.jpg"},
		{"https://image.tmdb.org/t/p/w300/", "abc.jpg", "https://image.tmdb.org/t/p/w300/abc.jpg"},
		{"https://image.tmdb.org/t/p/w300", "", ""},
	}
	for _, tc := range cases {
		if got := tmdb.PosterURL(tc.base, tc.path); got != tc.want {
			t.Fatalf("PosterURL(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
}
