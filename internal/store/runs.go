package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"filmatlas/internal/atlas"
	"filmatlas/internal/services"
)

// Run statuses recorded in history.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Run summarizes one finished aggregation run.
type Run struct {
	ID               string    `json:"id"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
	TotalRecords     int       `json:"total_records"`
	ProcessedRecords int       `json:"processed_records"`
	CountryCount     int       `json:"country_count"`
	MovieCount       int       `json:"movie_count"`
	TopCountry       string    `json:"top_country,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// Cancelled reports whether the run stopped before processing every record.
func (r Run) Cancelled() bool {
	return r.Status == StatusCancelled
}

const runColumns = `id, source, status, total_records, processed_records,
    country_count, movie_count, top_country, started_at, finished_at`

// SaveRun writes run and its aggregate. The country, movie and top-country
// summary fields are derived from agg and override whatever run carries.
func (s *Store) SaveRun(ctx context.Context, run Run, agg atlas.Aggregate) (Run, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(run.ID) == "" {
		return Run{}, errors.New("save run: id is required")
	}
	if err := agg.Validate(); err != nil {
		return Run{}, fmt.Errorf("save run %s: %w", run.ID, err)
	}
	if run.Status == "" {
		run.Status = StatusCompleted
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	run.CountryCount = len(agg.Counts)
	run.MovieCount = agg.UniqueMovies()
	run.TopCountry = ""
	if top, ok := agg.Top(); ok {
		run.TopCountry = top.Code
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Source,
			run.Status,
			run.TotalRecords,
			run.ProcessedRecords,
			run.CountryCount,
			run.MovieCount,
			nullableString(run.TopCountry),
			formatTime(run.StartedAt),
			formatTime(run.FinishedAt),
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_movies (
            run_id, country_code, position, title, year, source_uri, poster_url, catalog_id
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare movie insert: %w", err)
		}
		defer stmt.Close()

		for code, movies := range agg.Movies {
			for position, movie := range movies {
				if _, err := stmt.ExecContext(ctx,
					run.ID,
					code,
					position,
					movie.Title,
					movie.Year,
					nullableString(movie.SourceURI),
					nullableString(movie.PosterURL),
					movie.CatalogID,
				); err != nil {
					return fmt.Errorf("insert movie %q for %s: %w", movie.Title, code, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY finished_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches one run. Unknown ids yield an error wrapping services.ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, services.Wrap(services.ErrNotFound, "store", "get run", "no run with id "+id, nil)
	}
	return run, err
}

// LatestRun returns the most recently finished run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, services.Wrap(services.ErrNotFound, "store", "latest run", "no runs recorded", nil)
	}
	return runs[0], nil
}

// LoadAggregate rebuilds the aggregate saved with run id, preserving each
// country's movie order.
func (s *Store) LoadAggregate(ctx context.Context, id string) (atlas.Aggregate, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return atlas.Aggregate{}, err
	}
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT country_code, title, year, source_uri, poster_url, catalog_id
        FROM run_movies WHERE run_id = ? ORDER BY country_code, position`, id)
	if err != nil {
		return atlas.Aggregate{}, fmt.Errorf("load aggregate: %w", err)
	}
	defer rows.Close()

	agg := atlas.New()
	for rows.Next() {
		var (
			code      string
			movie     atlas.MovieRef
			sourceURI sql.NullString
			posterURL sql.NullString
			catalogID sql.NullInt64
		)
		if err := rows.Scan(&code, &movie.Title, &movie.Year, &sourceURI, &posterURL, &catalogID); err != nil {
			return atlas.Aggregate{}, fmt.Errorf("scan movie: %w", err)
		}
		movie.SourceURI = sourceURI.String
		movie.PosterURL = posterURL.String
		movie.CatalogID = catalogID.Int64
		agg = atlas.Merge(agg, atlas.LookupResult{CountryCode: code, Movie: movie})
	}
	return agg, rows.Err()
}

// DeleteRun removes one run and its movies.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM run_movies WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("delete movies: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "delete run", "no run with id "+id, nil)
	}
	return nil
}

// Clear removes every run and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM run_movies`); err != nil {
			return fmt.Errorf("clear movies: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM runs`)
		if err != nil {
			return fmt.Errorf("clear runs: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		topCountry sql.NullString
		startedAt  string
		finishedAt string
	)
	if err := row.Scan(
		&run.ID,
		&run.Source,
		&run.Status,
		&run.TotalRecords,
		&run.ProcessedRecords,
		&run.CountryCount,
		&run.MovieCount,
		&topCountry,
		&startedAt,
		&finishedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.TopCountry = topCountry.String
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finishedAt)
	return run, nil
}

// timeLayout has fixed-width fractions so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
