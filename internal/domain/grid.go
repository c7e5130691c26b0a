package domain

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// BucketWidth is the spacing of the matrix time axis.
const BucketWidth = 600 * time.Second

// Grid is a dense rows x columns matrix of precipitation values, row-major.
type Grid struct {
	Rows    int
	Columns int
	Cells   []float32
}

// NewGrid allocates a zero-filled grid.
func NewGrid(rows, columns int) Grid {
	return Grid{Rows: rows, Columns: columns, Cells: make([]float32, rows*columns)}
}

// At returns cell [i][j].
func (g Grid) At(i, j int) float32 {
	return g.Cells[i*g.Columns+j]
}

// Row returns the cells of row i. The slice aliases the grid.
func (g Grid) Row(i int) []float32 {
	return g.Cells[i*g.Columns : (i+1)*g.Columns]
}

// PositiveCells counts cells strictly greater than zero.
func (g Grid) PositiveCells() int {
	n := 0
	for _, v := range g.Cells {
		if v > 0 {
			n++
		}
	}
	return n
}

// ExportedShape describes the binary grid layout.
type ExportedShape struct {
	FirstIntervalEnd *time.Time `json:"firstIntervalEnd"`
	Columns          int        `json:"columns"`
	Rows             int        `json:"rows"`
	Stations         []Station  `json:"stations"`
}

// Gap is the number of times two consecutive distinct interval ends were
// Seconds apart.
type Gap struct {
	Seconds int64
	Count   int
}

// GridReport carries diagnostics gathered while building a grid. None of it
// affects the grid itself.
type GridReport struct {
	Gaps              []Gap // ordered by Seconds
	DistinctIntervals int
	Unplaced          int // observations without an interval end
	Duplicates        int // same station and interval end seen again; first kept
	UnknownStations   int // observations whose station is not in the directory
}

// BuildGrid places observations on a 600-second grid with one column per
// station. Bucket i is firstIntervalEnd + i*600s, and the row count is the
// rounded span in buckets plus one, so the last interval end has a row. For
// each station and bucket the first observation in slice order wins.
func BuildGrid(observations []Observation, stations []Station) (Grid, ExportedShape, GridReport) {
	var report GridReport

	// interval end (unix seconds) -> station id -> first value
	groups := make(map[int64]map[string]float32)
	for _, o := range observations {
		if !o.HasIntervalEnd() {
			report.Unplaced++
			continue
		}
		key := o.IntervalEnd.Unix()
		group, ok := groups[key]
		if !ok {
			group = make(map[string]float32)
			groups[key] = group
		}
		if _, dup := group[o.StationID]; dup {
			report.Duplicates++
			continue
		}
		group[o.StationID] = o.Precipitation10Min
	}

	index := StationIndex(stations)
	for _, group := range groups {
		for id := range group {
			if _, ok := index[id]; !ok {
				report.UnknownStations++
			}
		}
	}

	keys := make([]int64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	report.DistinctIntervals = len(keys)
	report.Gaps = gapDistribution(keys)

	shape := ExportedShape{
		Columns:  len(stations),
		Stations: stations,
	}
	if len(keys) == 0 {
		return NewGrid(0, len(stations)), shape, report
	}

	first, last := keys[0], keys[len(keys)-1]
	bucket := int64(BucketWidth / time.Second)
	rows := int(math.Round(float64(last-first)/float64(bucket))) + 1

	grid := NewGrid(rows, len(stations))
	for i := range rows {
		group, ok := groups[first+int64(i)*bucket]
		if !ok {
			continue
		}
		row := grid.Row(i)
		for j, s := range stations {
			if v, ok := group[s.ID]; ok {
				row[j] = v
			}
		}
	}

	firstEnd := time.Unix(first, 0).UTC()
	shape.FirstIntervalEnd = &firstEnd
	shape.Rows = rows
	return grid, shape, report
}

func gapDistribution(sorted []int64) []Gap {
	counts := make(map[int64]int)
	for i := 1; i < len(sorted); i++ {
		counts[sorted[i]-sorted[i-1]]++
	}
	gaps := make([]Gap, 0, len(counts))
	for s, n := range counts {
		gaps = append(gaps, Gap{Seconds: s, Count: n})
	}
	slices.SortFunc(gaps, func(a, b Gap) int {
		return cmp.Compare(a.Seconds, b.Seconds)
	})
	return gaps
}

// WriteSummary reports what was persisted for a grid.
type WriteSummary struct {
	PositiveCells int
	GridBytes     int64
}
