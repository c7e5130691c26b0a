package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/meteo-precip-etl/internal/domain"
	"github.com/couchcryptid/meteo-precip-etl/internal/observability"
)

// ArchiveSource lists the archive files to process.
type ArchiveSource interface {
	ListArchives(ctx context.Context) ([]string, error)
}

// StationSource loads the station directory.
type StationSource interface {
	LoadStations(ctx context.Context) ([]domain.Station, error)
}

// ArchiveReader extracts the observations of one archive file.
type ArchiveReader interface {
	ReadArchive(ctx context.Context, path string) (domain.ArchiveResult, error)
}

// GridSink persists a finished grid and its shape.
type GridSink interface {
	WriteGrid(ctx context.Context, grid domain.Grid, shape domain.ExportedShape) (domain.WriteSummary, error)
}

// Pipeline runs one discover-aggregate-build-encode pass.
type Pipeline struct {
	archives ArchiveSource
	stations StationSource
	reader   ArchiveReader
	sink     GridSink
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	workers  int

	mu     sync.Mutex
	status Status
}

// State is the lifecycle stage of a pipeline run.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Status is a snapshot of the most recent run.
type Status struct {
	State         State     `json:"state"`
	StartedAt     time.Time `json:"startedAt,omitzero"`
	FinishedAt    time.Time `json:"finishedAt,omitzero"`
	Archives      int       `json:"archives"`
	Observations  int       `json:"observations"`
	Rows          int       `json:"rows"`
	Columns       int       `json:"columns"`
	PositiveCells int       `json:"positiveCells"`
	Error         string    `json:"error,omitempty"`
}

// New creates a Pipeline with the given stages and observability. A nil clock
// uses real time.
func New(archives ArchiveSource, stations StationSource, reader ArchiveReader, sink GridSink,
	logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, workers int,
) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		archives: archives,
		stations: stations,
		reader:   reader,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
		workers:  workers,
		status:   Status{State: StatePending},
	}
}

// CheckReadiness returns nil once a run has written its output.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	st := p.Status()
	switch st.State {
	case StateSucceeded:
		return nil
	case StateFailed:
		return fmt.Errorf("last run failed: %s", st.Error)
	default:
		return errors.New("grid has not been written yet")
	}
}

// Status returns a snapshot of the most recent run.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Pipeline) update(fn func(*Status)) {
	p.mu.Lock()
	fn(&p.status)
	p.mu.Unlock()
}

// Run executes the whole compaction. Output is written only after the grid
// is complete in memory; any error before that leaves no output behind.
func (p *Pipeline) Run(ctx context.Context) error {
	start := p.clock.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.update(func(s *Status) { *s = Status{State: StateRunning, StartedAt: start} })

	err := p.run(ctx, start)
	p.update(func(s *Status) {
		s.FinishedAt = p.clock.Now()
		if err != nil {
			s.State = StateFailed
			s.Error = err.Error()
			return
		}
		s.State = StateSucceeded
	})
	return err
}

func (p *Pipeline) run(ctx context.Context, start time.Time) error {

	stations, err := p.stations.LoadStations(ctx)
	if err != nil {
		return fmt.Errorf("load stations: %w", err)
	}
	stations = domain.SortStations(stations)

	paths, err := p.archives.ListArchives(ctx)
	if err != nil {
		return fmt.Errorf("list archives: %w", err)
	}
	p.logger.Info("pipeline started", "archives", len(paths), "stations", len(stations), "workers", p.workers)

	p.update(func(s *Status) { s.Archives = len(paths) })

	aggStart := p.clock.Now()
	observations, err := Aggregate(ctx, p.reader, paths, p.workers)
	if err != nil {
		return fmt.Errorf("aggregate archives: %w", err)
	}
	p.logger.Info("archives aggregated",
		"observations", len(observations),
		"duration", p.clock.Since(aggStart),
	)

	p.update(func(s *Status) { s.Observations = len(observations) })

	grid, shape, report := domain.BuildGrid(observations, stations)
	p.logReport(report)
	p.metrics.DuplicateReadings.Add(float64(report.Duplicates))

	summary, err := p.sink.WriteGrid(ctx, grid, shape)
	if err != nil {
		return fmt.Errorf("write grid: %w", err)
	}

	p.metrics.GridRows.Set(float64(grid.Rows))
	p.metrics.GridColumns.Set(float64(grid.Columns))
	p.metrics.GridPositiveCells.Set(float64(summary.PositiveCells))
	p.update(func(s *Status) {
		s.Rows, s.Columns, s.PositiveCells = grid.Rows, grid.Columns, summary.PositiveCells
	})

	p.logger.Info("pipeline finished",
		"rows", grid.Rows,
		"columns", grid.Columns,
		"positive_cells", summary.PositiveCells,
		"duration", p.clock.Since(start),
	)
	return nil
}

func (p *Pipeline) logReport(r domain.GridReport) {
	for _, gap := range r.Gaps {
		p.logger.Debug("interval gap", "seconds", gap.Seconds, "count", gap.Count)
	}
	p.logger.Info("grid built",
		"distinct_intervals", r.DistinctIntervals,
		"gap_kinds", len(r.Gaps),
		"unplaced", r.Unplaced,
		"unknown_stations", r.UnknownStations,
	)
	if r.Duplicates > 0 {
		p.logger.Warn("duplicate readings dropped, first kept", "duplicates", r.Duplicates)
	}
}
