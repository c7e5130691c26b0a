package domain

import (
	"cmp"
	"slices"
	"time"
)

// Observation is a single 10-minute precipitation reading.
type Observation struct {
	StationID          string
	IntervalEnd        time.Time // zero when validEnd was missing or unparseable
	Precipitation10Min float32
}

// HasIntervalEnd reports whether the observation can be placed on the time grid.
func (o Observation) HasIntervalEnd() bool {
	return !o.IntervalEnd.IsZero()
}

// ArchiveResult pairs an archive's base filename with the observations read
// from it, in line order.
type ArchiveResult struct {
	Filename     string
	Observations []Observation
}

// MergeArchiveResults orders results by filename and concatenates their
// observations. The output depends only on the filenames, never on the order
// in which results were produced.
func MergeArchiveResults(results []ArchiveResult) []Observation {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b ArchiveResult) int {
		return cmp.Compare(a.Filename, b.Filename)
	})

	total := 0
	for _, r := range sorted {
		total += len(r.Observations)
	}

	merged := make([]Observation, 0, total)
	for _, r := range sorted {
		merged = append(merged, r.Observations...)
	}
	return merged
}
