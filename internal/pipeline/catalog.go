package pipeline

import (
	"context"
	"strings"

	"filmatlas/internal/atlas"
	"filmatlas/internal/tmdb"
	"filmatlas/internal/watchlist"
)

// Catalog is the subset of the TMDB client the pipeline depends on.
type Catalog interface {
	SearchMovie(ctx context.Context, title, year string) (*tmdb.SearchResponse, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error)
}

// CatalogLookup resolves records by searching the catalog and reading the
// production countries of the first match.
type CatalogLookup struct {
	catalog   Catalog
	imageBase string
}

// NewCatalogLookup wraps catalog. imageBase is prefixed to poster paths.
func NewCatalogLookup(catalog Catalog, imageBase string) *CatalogLookup {
	return &CatalogLookup{catalog: catalog, imageBase: imageBase}
}

// Lookup implements Lookup. A search without matches yields no results and
// no error. The first search result is used as-is.
func (c *CatalogLookup) Lookup(ctx context.Context, record watchlist.Record) ([]atlas.LookupResult, error) {
	search, err := c.catalog.SearchMovie(ctx, record.Title, record.Year)
	if err != nil {
		return nil, err
	}
	if search == nil || len(search.Results) == 0 {
		return nil, nil
	}
	details, err := c.catalog.GetMovieDetails(ctx, search.Results[0].ID)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, nil
	}

	movie := atlas.MovieRef{
		Title:     record.Title,
		Year:      record.Year,
		SourceURI: record.SourceURI,
		PosterURL: tmdb.PosterURL(c.imageBase, details.PosterPath),
		CatalogID: search.Results[0].ID,
	}
	results := make([]atlas.LookupResult, 0, len(details.ProductionCountries))
	for _, country := range details.ProductionCountries {
		code := strings.ToUpper(strings.TrimSpace(country.Code))
		if code == "" {
			continue
		}
		results = append(results, atlas.LookupResult{CountryCode: code, Movie: movie})
	}
	return results, nil
}
