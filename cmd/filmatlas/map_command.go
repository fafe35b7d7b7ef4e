package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"filmatlas/internal/api"
	"filmatlas/internal/atlas"
	"filmatlas/internal/geo"
	"filmatlas/internal/logging"
	"filmatlas/internal/pipeline"
	"filmatlas/internal/services"
	"filmatlas/internal/store"
	"filmatlas/internal/watchlist"
)

func newMapCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON bool
		limit  int
		noSave bool
	)

	cmd := &cobra.Command{
		Use:   "map <watched.csv>",
		Short: "Aggregate a watch history by production country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// The credential is checked before reading anything.
			if err := cfg.RequireTMDB(); err != nil {
				return userError(services.Wrap(services.ErrConfiguration, "cli", "map", "", err))
			}

			source := args[0]
			records, err := watchlist.ParseFile(source)
			if err == nil {
				err = watchlist.RequireRecords(records)
			}
			if err != nil {
				return userError(err)
			}
			if limit > 0 && limit < len(records) {
				records = records[:limit]
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another filmatlas run is using %s", cfg.Paths.DataDir)
			}
			defer func() { _ = lock.Unlock() }()

			logger := ctx.ensureLogger()
			p, err := pipeline.NewFromConfig(cfg, logger)
			if err != nil {
				return userError(err)
			}

			runID := uuid.NewString()
			runCtx := services.WithRunID(cmd.Context(), runID)
			reporter := newProgressReporter(cmd.ErrOrStderr(), logging.WithContext(runCtx, logger))

			started := time.Now()
			agg, err := p.Run(runCtx, records, reporter.update)
			reporter.finish()
			if err != nil {
				return userError(err)
			}
			cancelled := stoppedEarly(cmd.Context(), reporter.last, len(records))

			if !noSave {
				if err := saveMapRun(ctx, runID, filepath.Base(source), len(records), reporter.last.Completed, cancelled, started, agg); err != nil {
					logging.WarnWithContext(logger, "run not recorded", "history_write_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "run is missing from history"),
					)
				}
			}

			if asJSON {
				return writeJSON(cmd, api.FromAggregate(runID, cancelled, agg))
			}
			printAggregate(cmd, agg, len(records), reporter.last.Completed, cancelled)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the aggregate as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "Only look up the first N records")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not record the run in history")
	return cmd
}

func saveMapRun(ctx *commandContext, id, source string, total, processed int, cancelled bool, started time.Time, agg atlas.Aggregate) error {
	st, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	status := store.StatusCompleted
	if cancelled {
		status = store.StatusCancelled
	}
	_, err = st.SaveRun(context.Background(), store.Run{
		ID:               id,
		Source:           source,
		Status:           status,
		TotalRecords:     total,
		ProcessedRecords: processed,
		StartedAt:        started,
		FinishedAt:       time.Now(),
	}, agg)
	return err
}

func printAggregate(cmd *cobra.Command, agg atlas.Aggregate, total, processed int, cancelled bool) {
	out := cmd.OutOrStdout()
	if len(agg.Counts) == 0 {
		fmt.Fprintln(out, "No production countries found")
	} else {
		ranked := agg.Ranked()
		rows := make([][]string, 0, len(ranked))
		for _, row := range ranked {
			rows = append(rows, []string{row.Code, countryLabel(row.Code), fmt.Sprint(row.Count)})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Code", "Country", "Movies"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight},
		))
	}

	fmt.Fprintf(out, "Movies watched: %d\n", agg.UniqueMovies())
	fmt.Fprintf(out, "Countries: %d\n", len(agg.Counts))
	if top, ok := agg.Top(); ok {
		fmt.Fprintf(out, "Top country: %s (%s, %d movies)\n", countryLabel(top.Code), top.Code, top.Count)
	}
	if cancelled {
		fmt.Fprintf(out, "Cancelled after %d of %d records; results are partial\n", processed, total)
	}
}

// stoppedEarly reports whether an interrupt cut the run short. An interrupt
// that arrives after the last batch merged leaves a complete result.
func stoppedEarly(ctx context.Context, last pipeline.Progress, total int) bool {
	return errors.Is(ctx.Err(), context.Canceled) && last.Completed < total
}

func countryLabel(code string) string {
	if name := geo.NameForCode(code); name != "" {
		return name
	}
	return geo.UnknownName
}
