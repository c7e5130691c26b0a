// Command validate checks an exported precipitation grid: the shape document
// against the binary matrix, the matrix values, and optionally the whole grid
// against a fresh sequential compaction of the source archives.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data out.data -shape out.json \
//	  -archive-dir data/mock
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/meteo-precip-etl/internal/adapter/export"
)

func main() {
	dataPath := flag.String("data", "out.data", "path to the binary grid")
	shapePath := flag.String("shape", "out.json", "path to the shape document")
	archiveDir := flag.String("archive-dir", "", "recompute the grid from this data directory and compare")
	archivePrefix := flag.String("archive-prefix", "meteo_data_archive_", "archive filename prefix")
	stationsPrefix := flag.String("stations-prefix", "stations_", "station snapshot filename prefix")
	top := flag.Int("top", 10, "number of wettest stations to list")
	flag.Parse()

	opts := runOptions{
		dataPath:       *dataPath,
		shapePath:      *shapePath,
		archiveDir:     *archiveDir,
		archivePrefix:  *archivePrefix,
		stationsPrefix: *stationsPrefix,
		top:            *top,
	}
	os.Exit(run(os.Stdout, opts))
}

type runOptions struct {
	dataPath       string
	shapePath      string
	archiveDir     string
	archivePrefix  string
	stationsPrefix string
	top            int
}

func run(w io.Writer, opts runOptions) int {
	fmt.Fprintln(w, "=== Precipitation Grid Validation ===")
	fmt.Fprintln(w)

	grid, shape, err := export.ReadFiles(opts.dataPath, opts.shapePath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load grid: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateShape(shape),
		validateValues(grid),
	}
	if opts.archiveDir != "" {
		logger := slog.New(slog.DiscardHandler)
		phases = append(phases, validateRecompute(grid, shape,
			opts.archiveDir, opts.archivePrefix, opts.stationsPrefix, logger))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Grid: %d rows x %d columns, %d positive cells\n", grid.Rows, grid.Columns, grid.PositiveCells())
	if shape.FirstIntervalEnd != nil {
		fmt.Fprintf(w, "Interval ends: %s .. %s\n",
			shape.FirstIntervalEnd.Format("2006-01-02 15:04"),
			lastIntervalEnd(shape).Format("2006-01-02 15:04"))
	}
	printWettest(w, stationTotals(grid, shape), opts.top)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}
