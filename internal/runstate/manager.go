package runstate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"filmatlas/internal/atlas"
	"filmatlas/internal/logging"
	"filmatlas/internal/pipeline"
	"filmatlas/internal/services"
	"filmatlas/internal/store"
	"filmatlas/internal/watchlist"
)

const component = "runstate"

// Status is the coarse phase of the live run.
type Status string

const (
	StatusUpload  Status = "upload"
	StatusLoading Status = "loading"
	StatusMap     Status = "map"
)

// Snapshot is a read-only copy of the run state.
type Snapshot struct {
	RunID  string `json:"run_id,omitempty"`
	Status Status `json:"status"`
	Source string `json:"source,omitempty"`
	pipeline.Progress
	Cancelled  bool      `json:"cancelled"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Runner executes one aggregation. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, records []watchlist.Record, progress pipeline.ProgressFunc) (atlas.Aggregate, error)
}

// Recorder persists finished runs. *store.Store satisfies it.
type Recorder interface {
	SaveRun(ctx context.Context, run store.Run, agg atlas.Aggregate) (store.Run, error)
}

type liveRun struct {
	id        string
	cancel    context.CancelFunc
	done      chan struct{}
	cancelled bool
}

// Manager coordinates aggregation runs. Exactly one run is live at a time.
type Manager struct {
	runner   Runner
	recorder Recorder
	logger   *slog.Logger

	startMu sync.Mutex

	mu     sync.Mutex
	live   *liveRun
	latest *liveRun
	state  Snapshot
	result atlas.Aggregate
}

// NewManager constructs a manager. recorder may be nil to skip history.
func NewManager(runner Runner, recorder Recorder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		runner:   runner,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, component),
		state:    Snapshot{Status: StatusUpload},
	}
}

// Start cancels and discards any live run, then aggregates records in the
// background. source names the input for history.
func (m *Manager) Start(records []watchlist.Record, source string) (string, error) {
	if len(records) == 0 {
		return "", services.Wrap(services.ErrEmptyInput, component, "start", "no usable records", nil)
	}

	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.mu.Lock()
	prev := m.live
	m.live = nil
	m.mu.Unlock()
	if prev != nil {
		m.logger.Info("replacing live run", logging.String(logging.FieldRunID, prev.id))
		prev.cancel()
		<-prev.done
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(services.WithRunID(context.Background(), id))
	run := &liveRun{id: id, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.live = run
	m.latest = run
	m.result = atlas.Aggregate{}
	m.state = Snapshot{
		RunID:     id,
		Status:    StatusLoading,
		Source:    source,
		Progress:  pipeline.Progress{Total: len(records)},
		StartedAt: time.Now().UTC(),
	}
	m.mu.Unlock()

	go m.execute(ctx, run, records)
	return id, nil
}

// Cancel stops the live run. Its partial aggregate is published with
// Cancelled set unless every record had already been processed. It reports
// whether a run was live.
func (m *Manager) Cancel() bool {
	m.mu.Lock()
	run := m.live
	if run != nil {
		run.cancelled = true
	}
	m.mu.Unlock()
	if run == nil {
		return false
	}
	run.cancel()
	return true
}

// Reset cancels the live run, waits for it, and discards all state.
func (m *Manager) Reset() {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.mu.Lock()
	run := m.live
	m.live = nil
	m.result = atlas.Aggregate{}
	m.state = Snapshot{Status: StatusUpload}
	m.mu.Unlock()

	if run != nil {
		run.cancel()
		<-run.done
	}
}

// Close cancels the live run and waits for it to settle.
func (m *Manager) Close() {
	m.Cancel()
	_ = m.Wait(context.Background())
}

// Snapshot returns a copy of the current run state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Result returns a copy of the published aggregate once the run reached the
// map status.
func (m *Manager) Result() (atlas.Aggregate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Status != StatusMap {
		return atlas.Aggregate{}, false
	}
	return m.result.Clone(), true
}

// Wait blocks until the most recently started run settles, including
// history recording.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	run := m.latest
	m.mu.Unlock()
	if run == nil {
		return nil
	}
	select {
	case <-run.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) execute(ctx context.Context, run *liveRun, records []watchlist.Record) {
	defer close(run.done)
	defer run.cancel()

	agg, err := m.runner.Run(ctx, records, func(p pipeline.Progress) {
		m.mu.Lock()
		if m.live == run {
			m.state.Progress = p
		}
		m.mu.Unlock()
	})
	m.finish(ctx, run, agg, err)
}

func (m *Manager) finish(ctx context.Context, run *liveRun, agg atlas.Aggregate, err error) {
	logger := logging.WithContext(ctx, m.logger)

	m.mu.Lock()
	if m.live != run {
		m.mu.Unlock()
		logger.Debug("discarding result of replaced run")
		return
	}
	m.live = nil
	m.state.FinishedAt = time.Now().UTC()
	if err != nil {
		m.state.Status = StatusUpload
		m.state.Error = services.UserMessage(err)
		m.mu.Unlock()
		logging.ErrorWithContext(logger, "aggregation failed", "run_failed", logging.Error(err))
		return
	}
	m.result = agg
	m.state.Status = StatusMap
	// A cancel that lands after the final batch merged leaves a complete run.
	m.state.Cancelled = run.cancelled && m.state.Completed < m.state.Total
	snapshot := m.state
	m.mu.Unlock()

	m.record(logger, snapshot, agg)
}

func (m *Manager) record(logger *slog.Logger, snapshot Snapshot, agg atlas.Aggregate) {
	if m.recorder == nil {
		return
	}
	status := store.StatusCompleted
	if snapshot.Cancelled {
		status = store.StatusCancelled
	}
	saved, err := m.recorder.SaveRun(context.Background(), store.Run{
		ID:               snapshot.RunID,
		Source:           snapshot.Source,
		Status:           status,
		TotalRecords:     snapshot.Total,
		ProcessedRecords: snapshot.Completed,
		StartedAt:        snapshot.StartedAt,
		FinishedAt:       snapshot.FinishedAt,
	}, agg)
	if err != nil {
		logging.WarnWithContext(logger, "failed to record run history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check data_dir permissions and disk space"),
			logging.String(logging.FieldImpact, "run is not listed in history"),
		)
		return
	}
	logger.Info("run recorded",
		logging.String("status", saved.Status),
		logging.Int("countries", saved.CountryCount),
		logging.Int("movies", saved.MovieCount),
	)
}
