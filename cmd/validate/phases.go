package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/couchcryptid/meteo-precip-etl/internal/adapter/archive"
	"github.com/couchcryptid/meteo-precip-etl/internal/domain"
	"github.com/couchcryptid/meteo-precip-etl/internal/observability"
	"github.com/couchcryptid/meteo-precip-etl/internal/pipeline"
)

// maxReported caps per-phase error output for large grids.
const maxReported = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	dropped int
}

func (p *phase) errorf(format string, args ...any) {
	if len(p.errors) >= maxReported {
		p.dropped++
		return
	}
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// ── Shape ──

func validateShape(shape domain.ExportedShape) *phase {
	p := &phase{name: "Shape document"}

	if shape.Columns != len(shape.Stations) {
		p.errorf("columns=%d but %d stations listed", shape.Columns, len(shape.Stations))
	}
	if (shape.Rows == 0) != (shape.FirstIntervalEnd == nil) {
		p.errorf("rows=%d inconsistent with firstIntervalEnd=%v", shape.Rows, shape.FirstIntervalEnd)
	}
	if shape.FirstIntervalEnd != nil && shape.FirstIntervalEnd.Unix()%int64(domain.BucketWidth/time.Second) != 0 {
		p.errorf("firstIntervalEnd %s is not on a 10-minute boundary", shape.FirstIntervalEnd.Format(time.RFC3339))
	}

	seen := make(map[string]int, len(shape.Stations))
	for i, s := range shape.Stations {
		if s.ID == "" {
			p.errorf("station %d has an empty meteosiId", i)
		}
		if j, dup := seen[s.ID]; dup {
			p.errorf("station %q listed at columns %d and %d", s.ID, j, i)
		}
		seen[s.ID] = i
		if i > 0 && shape.Stations[i-1].ID > s.ID {
			p.errorf("stations not sorted: %q before %q", shape.Stations[i-1].ID, s.ID)
		}
	}
	return p
}

// ── Values ──

func validateValues(grid domain.Grid) *phase {
	p := &phase{name: "Cell values"}
	for i := range grid.Rows {
		for j, v := range grid.Row(i) {
			f := float64(v)
			switch {
			case math.IsNaN(f) || math.IsInf(f, 0):
				p.errorf("cell [%d][%d] is %v", i, j, v)
			case v < 0:
				p.errorf("cell [%d][%d] is negative: %v", i, j, v)
			}
		}
	}
	if p.dropped > 0 {
		p.errorf("... and %d more", p.dropped)
	}
	return p
}

// ── Recompute ──

// validateRecompute compacts the archives again on a single worker and
// requires a bit-identical grid.
func validateRecompute(grid domain.Grid, shape domain.ExportedShape,
	dataDir, archivePrefix, stationsPrefix string, logger *slog.Logger,
) *phase {
	p := &phase{name: "Recompute parity (sequential)"}
	ctx := context.Background()

	dir := archive.NewDirectory(dataDir, archivePrefix, stationsPrefix, logger)
	stations, err := dir.LoadStations(ctx)
	if err != nil {
		p.errorf("load stations: %v", err)
		return p
	}
	paths, err := dir.ListArchives(ctx)
	if err != nil {
		p.errorf("list archives: %v", err)
		return p
	}

	reader := archive.NewReader(logger, observability.NewMetricsForTesting(), nil)
	observations, err := pipeline.Aggregate(ctx, reader, paths, 1)
	if err != nil {
		p.errorf("aggregate: %v", err)
		return p
	}
	want, wantShape, _ := domain.BuildGrid(observations, domain.SortStations(stations))

	if want.Rows != grid.Rows || want.Columns != grid.Columns {
		p.errorf("dimensions %dx%d, recomputed %dx%d", grid.Rows, grid.Columns, want.Rows, want.Columns)
		return p
	}
	if !sameInstant(wantShape.FirstIntervalEnd, shape.FirstIntervalEnd) {
		p.errorf("firstIntervalEnd %v, recomputed %v", shape.FirstIntervalEnd, wantShape.FirstIntervalEnd)
	}
	for j, s := range wantShape.Stations {
		if j >= len(shape.Stations) {
			p.errorf("column %d missing from shape, recomputed %q", j, s.ID)
			continue
		}
		if shape.Stations[j].ID != s.ID {
			p.errorf("column %d is %q, recomputed %q", j, shape.Stations[j].ID, s.ID)
		}
	}
	for i := range want.Rows {
		for j := range want.Columns {
			if math.Float32bits(want.At(i, j)) != math.Float32bits(grid.At(i, j)) {
				p.errorf("cell [%d][%d] = %v, recomputed %v", i, j, grid.At(i, j), want.At(i, j))
			}
		}
	}
	if p.dropped > 0 {
		p.errorf("... and %d more", p.dropped)
	}
	return p
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ── Report ──

type stationTotal struct {
	id     string
	total  float64
	wetRow int
}

func stationTotals(grid domain.Grid, shape domain.ExportedShape) []stationTotal {
	out := make([]stationTotal, grid.Columns)
	for j := range out {
		if j < len(shape.Stations) {
			out[j].id = shape.Stations[j].ID
		}
	}
	for i := range grid.Rows {
		for j, v := range grid.Row(i) {
			if v > 0 {
				out[j].total += float64(v)
				out[j].wetRow++
			}
		}
	}
	slices.SortStableFunc(out, func(a, b stationTotal) int {
		return cmp.Compare(b.total, a.total)
	})
	return out
}

func printWettest(w io.Writer, totals []stationTotal, n int) {
	if len(totals) == 0 || n <= 0 {
		return
	}
	fmt.Fprintln(w, "\nWettest stations:")
	for _, t := range totals[:min(n, len(totals))] {
		fmt.Fprintf(w, "  %-12s %8.1f mm over %d intervals\n", t.id, t.total, t.wetRow)
	}
}

func lastIntervalEnd(shape domain.ExportedShape) time.Time {
	return shape.FirstIntervalEnd.Add(time.Duration(shape.Rows-1) * domain.BucketWidth)
}
