// Command genmock writes a synthetic ARSO data directory: a station snapshot
// and one archive per day, each line carrying a full observation document
// for every station at one interval end. The output is deterministic for a
// given seed so the expected grid can be asserted in tests and by the
// validate command.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock \
//	  -start 2025-03-15 -days 3 -stations 12 -seed 42 -gzip
package main

import (
	"flag"
	"fmt"
	"log"
	"time"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for the generated files")
	start := flag.String("start", "2025-03-15", "first day to generate (YYYY-MM-DD, UTC)")
	days := flag.Int("days", 2, "number of daily archives")
	stations := flag.Int("stations", 8, "number of stations")
	seed := flag.Uint64("seed", 1, "random seed")
	gz := flag.Bool("gzip", false, "write archives as .json.gz")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	day, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	opts := options{
		Dir:      *out,
		Start:    day,
		Days:     *days,
		Stations: *stations,
		Seed:     *seed,
		Gzip:     *gz,
	}
	stats, err := generate(opts)
	if err != nil {
		return err
	}

	for _, f := range stats.Files {
		log.Printf("wrote %s", f)
	}
	printStats(stats)
	return nil
}

func printStats(s stats) {
	fmt.Println("\n=== Expected grid ===")
	fmt.Printf("Stations: %d\n", s.Stations)
	fmt.Printf("Documents: %d (malformed: %d)\n", s.Documents, s.MalformedDocuments)
	fmt.Printf("Readings: %d (duplicates: %d, CET stamped: %d, missing validEnd: %d)\n",
		s.Readings, s.Duplicates, s.LocalTime, s.MissingValidEnd)
	fmt.Printf("First interval end: %s\n", s.FirstIntervalEnd.Format(time.RFC3339))
	fmt.Printf("Rows: %d\n", s.Rows)
	fmt.Printf("Positive cells: %d\n", s.PositiveCells)
}
