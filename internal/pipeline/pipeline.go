package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"filmatlas/internal/atlas"
	"filmatlas/internal/logging"
	"filmatlas/internal/services"
	"filmatlas/internal/watchlist"
)

const (
	component = "pipeline"

	// DefaultBatchSize is the number of lookups issued concurrently.
	DefaultBatchSize = 5
	// DefaultBatchDelay separates consecutive batches.
	DefaultBatchDelay = 250 * time.Millisecond
)

// Lookup resolves one record to zero or more country attributions.
type Lookup interface {
	Lookup(ctx context.Context, record watchlist.Record) ([]atlas.LookupResult, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, record watchlist.Record) ([]atlas.LookupResult, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, record watchlist.Record) ([]atlas.LookupResult, error) {
	return f(ctx, record)
}

// Progress is emitted once per settled batch. Completed counts records that
// entered processing, not records that resolved successfully.
type Progress struct {
	Completed    int    `json:"current"`
	Total        int    `json:"total"`
	CurrentTitle string `json:"current_title"`
}

// ProgressFunc receives progress updates on the pipeline goroutine.
type ProgressFunc func(Progress)

// Options tune batching. Zero values select the defaults; a negative
// BatchDelay disables the inter-batch wait.
type Options struct {
	BatchSize  int
	BatchDelay time.Duration
	Logger     *slog.Logger
}

// Pipeline drives a Lookup over records in rate-limited batches.
type Pipeline struct {
	lookup     Lookup
	batchSize  int
	batchDelay time.Duration
	logger     *slog.Logger
}

// New constructs a pipeline around lookup.
func New(lookup Lookup, opts Options) *Pipeline {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	delay := opts.BatchDelay
	switch {
	case delay == 0:
		delay = DefaultBatchDelay
	case delay < 0:
		delay = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		lookup:     lookup,
		batchSize:  size,
		batchDelay: delay,
		logger:     logging.NewComponentLogger(logger, component),
	}
}

// Run aggregates records and returns the result. ctx is the run's cancel
// token: once it is done no further batch starts, the results of the batch in
// flight are discarded, and the aggregate built so far is returned with a nil
// error. Per-record lookup failures are logged and contribute nothing. The
// only error is services.ErrEmptyInput for an empty record list.
func (p *Pipeline) Run(ctx context.Context, records []watchlist.Record, progress ProgressFunc) (atlas.Aggregate, error) {
	if len(records) == 0 {
		return atlas.Aggregate{}, services.Wrap(services.ErrEmptyInput, component, "run", "no records to aggregate", nil)
	}
	logger := logging.WithContext(ctx, p.logger)
	total := len(records)
	agg := atlas.New()
	started := time.Now()

	logger.Info("aggregation started",
		logging.Int("records", total),
		logging.Int("batch_size", p.batchSize),
		logging.String(logging.FieldEventType, "run_start"),
	)

	for start := 0; start < total; start += p.batchSize {
		if ctx.Err() != nil {
			return p.stopped(logger, agg, start, total), nil
		}
		end := min(start+p.batchSize, total)
		batch := records[start:end]

		results := p.runBatch(ctx, logger, batch)
		if ctx.Err() != nil {
			return p.stopped(logger, agg, start, total), nil
		}
		for _, slot := range results {
			agg = atlas.MergeAll(agg, slot)
		}

		if progress != nil {
			progress(Progress{
				Completed:    end,
				Total:        total,
				CurrentTitle: batch[len(batch)-1].Title,
			})
		}

		if end < total {
			if err := sleep(ctx, p.batchDelay); err != nil {
				return p.stopped(logger, agg, end, total), nil
			}
		}
	}

	logger.Info("aggregation completed",
		logging.Int("records", total),
		logging.Int("countries", len(agg.Counts)),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	return agg, nil
}

// runBatch fans out one lookup per record and waits for all of them. Each
// goroutine writes only its own slot, so the merge after Wait sees results
// in input order regardless of completion order.
func (p *Pipeline) runBatch(ctx context.Context, logger *slog.Logger, batch []watchlist.Record) [][]atlas.LookupResult {
	results := make([][]atlas.LookupResult, len(batch))
	var group errgroup.Group
	for i, record := range batch {
		group.Go(func() error {
			found, err := p.lookup.Lookup(ctx, record)
			if err != nil {
				p.logLookupFailure(ctx, logger, record, err)
				return nil
			}
			results[i] = found
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (p *Pipeline) logLookupFailure(ctx context.Context, logger *slog.Logger, record watchlist.Record, err error) {
	if services.IsCancelled(err) || ctx.Err() != nil {
		logger.Debug("lookup abandoned after cancellation",
			logging.String("title", record.Title),
			logging.String("year", record.Year),
		)
		return
	}
	logging.WarnWithContext(logger, "lookup failed; movie skipped", "lookup_failed",
		logging.String("title", record.Title),
		logging.String("year", record.Year),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check TMDB connectivity and token"),
		logging.String(logging.FieldImpact, "movie contributes no countries"),
	)
}

func (p *Pipeline) stopped(logger *slog.Logger, agg atlas.Aggregate, processed, total int) atlas.Aggregate {
	logger.Info("aggregation cancelled",
		logging.Int("processed", processed),
		logging.Int("records", total),
		logging.Int("countries", len(agg.Counts)),
		logging.String(logging.FieldEventType, "run_cancelled"),
	)
	return agg
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
