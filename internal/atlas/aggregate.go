package atlas

import (
	"fmt"
	"sort"
)

// MovieRef is a movie attributed to a country. Title and Year form the
// deduplication key within one country's list.
type MovieRef struct {
	Title     string `json:"title"`
	Year      string `json:"year"`
	SourceURI string `json:"uri,omitempty"`
	PosterURL string `json:"poster"`
	CatalogID int64  `json:"tmdb_id"`
}

func (m MovieRef) key() movieKey {
	return movieKey{title: m.Title, year: m.Year}
}

type movieKey struct {
	title string
	year  string
}

// LookupResult attributes one movie to one production country.
type LookupResult struct {
	CountryCode string
	Movie       MovieRef
}

// Aggregate maps country codes to watch counts and contributing movies.
// For every code, Counts[code] == len(Movies[code]).
type Aggregate struct {
	Counts map[string]int        `json:"counts"`
	Movies map[string][]MovieRef `json:"movies"`
}

// New returns an empty aggregate.
func New() Aggregate {
	return Aggregate{
		Counts: map[string]int{},
		Movies: map[string][]MovieRef{},
	}
}

// Merge folds one lookup result into agg and returns the updated aggregate.
// agg's maps are updated in place; callers keep using the returned value. A
// result whose (title, year) is already listed for the country is dropped,
// so merging the same result twice is a no-op. Results without a country
// code are ignored.
func Merge(agg Aggregate, result LookupResult) Aggregate {
	if agg.Counts == nil || agg.Movies == nil {
		agg = agg.Clone()
	}
	code := result.CountryCode
	if code == "" {
		return agg
	}
	key := result.Movie.key()
	for _, existing := range agg.Movies[code] {
		if existing.key() == key {
			return agg
		}
	}
	agg.Movies[code] = append(agg.Movies[code], result.Movie)
	agg.Counts[code] = len(agg.Movies[code])
	return agg
}

// MergeAll folds results in order.
func MergeAll(agg Aggregate, results []LookupResult) Aggregate {
	for _, result := range results {
		agg = Merge(agg, result)
	}
	return agg
}

// Clone returns a deep copy that shares no maps or slices with agg.
func (a Aggregate) Clone() Aggregate {
	out := Aggregate{
		Counts: make(map[string]int, len(a.Counts)),
		Movies: make(map[string][]MovieRef, len(a.Movies)),
	}
	for code, count := range a.Counts {
		out.Counts[code] = count
	}
	for code, movies := range a.Movies {
		out.Movies[code] = append([]MovieRef(nil), movies...)
	}
	return out
}

// Validate checks the count/list invariant.
func (a Aggregate) Validate() error {
	if len(a.Counts) != len(a.Movies) {
		return fmt.Errorf("aggregate has %d counted countries but %d listed", len(a.Counts), len(a.Movies))
	}
	for code, movies := range a.Movies {
		if a.Counts[code] != len(movies) {
			return fmt.Errorf("country %s: count %d != %d movies", code, a.Counts[code], len(movies))
		}
	}
	return nil
}

// CountryCount is one row of a ranked aggregate.
type CountryCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Ranked returns countries ordered by descending count, then code.
func (a Aggregate) Ranked() []CountryCount {
	rows := make([]CountryCount, 0, len(a.Counts))
	for code, count := range a.Counts {
		rows = append(rows, CountryCount{Code: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Code < rows[j].Code
	})
	return rows
}

// Top returns the country with the most movies, if any.
func (a Aggregate) Top() (CountryCount, bool) {
	ranked := a.Ranked()
	if len(ranked) == 0 {
		return CountryCount{}, false
	}
	return ranked[0], true
}

// UniqueMovies counts distinct (title, year) pairs across all countries.
func (a Aggregate) UniqueMovies() int {
	seen := make(map[movieKey]struct{})
	for _, movies := range a.Movies {
		for _, m := range movies {
			seen[m.key()] = struct{}{}
		}
	}
	return len(seen)
}
