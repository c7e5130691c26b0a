package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/couchcryptid/meteo-precip-etl/internal/domain"
)

const (
	archivePrefix  = "meteo_data_archive_"
	stationsPrefix = "stations_"

	// Share of intervals that are skipped, repeated, or stamped in CET.
	gapRate       = 0.02
	duplicateRate = 0.03
	localTimeRate = 0.05
	malformedRate = 0.01
	rainStartRate = 0.02
	rainStopRate  = 0.15
)

type options struct {
	Dir      string
	Start    time.Time
	Days     int
	Stations int
	Seed     uint64
	Gzip     bool
}

// stats describes what the generated directory should compact to.
type stats struct {
	Files              []string
	Stations           int
	Documents          int
	MalformedDocuments int
	Readings           int
	Duplicates         int
	LocalTime          int
	MissingValidEnd    int
	FirstIntervalEnd   time.Time
	Rows               int
	PositiveCells      int
}

type generator struct {
	opts     options
	rng      *rand.Rand
	stations []domain.Station
	raining  []bool
	seen     map[int64]map[string]bool
	stats    stats
}

func generate(opts options) (stats, error) {
	if opts.Days < 1 || opts.Stations < 1 {
		return stats{}, fmt.Errorf("days and stations must be positive, got %d and %d", opts.Days, opts.Stations)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return stats{}, err
	}

	g := &generator{
		opts:    opts,
		rng:     rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		raining: make([]bool, opts.Stations),
		seen:    make(map[int64]map[string]bool),
	}
	g.stations = g.makeStations()
	g.stats.Stations = len(g.stations)

	if err := g.writeStations(); err != nil {
		return stats{}, err
	}
	for d := range opts.Days {
		if err := g.writeDay(opts.Start.AddDate(0, 0, d)); err != nil {
			return stats{}, err
		}
	}
	g.finish()
	return g.stats, nil
}

// makeStations returns stations in a shuffled order so consumers must sort.
func (g *generator) makeStations() []domain.Station {
	out := make([]domain.Station, g.opts.Stations)
	for i := range out {
		id := fmt.Sprintf("ST%03d", i)
		out[i] = domain.Station{
			ID:        id,
			Title:     "Station " + strconv.Itoa(i),
			LongTitle: "Synthetic station " + id,
			Coordinates: domain.Coordinates{
				Lat: 45.4 + g.rng.Float64()*1.5,
				Lon: 13.4 + g.rng.Float64()*3,
			},
		}
	}
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (g *generator) writeStations() error {
	name := stationsPrefix + g.opts.Start.Format("20060102") + ".json"
	return g.writeFile(name, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		for _, s := range g.stations {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *generator) writeDay(day time.Time) error {
	name := archivePrefix + day.Format("20060102") + ".json"
	if g.opts.Gzip {
		name += ".gz"
	}
	return g.writeFile(name, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for slot := range 24 * 6 {
			end := day.Add(time.Duration(slot+1) * domain.BucketWidth)
			if g.rng.Float64() < gapRate {
				continue
			}
			repeats := 1
			if g.rng.Float64() < duplicateRate {
				repeats = 2
			}
			values := g.values()
			for range repeats {
				if err := enc.Encode(map[string]string{"xml": g.document(end, values)}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// values advances each station's rain state by one interval.
func (g *generator) values() []float32 {
	out := make([]float32, len(g.stations))
	for i := range out {
		switch {
		case g.raining[i] && g.rng.Float64() < rainStopRate:
			g.raining[i] = false
		case !g.raining[i] && g.rng.Float64() < rainStartRate:
			g.raining[i] = true
		}
		if g.raining[i] {
			// One decimal, as the feed reports it.
			out[i] = float32(g.rng.IntN(40)+1) / 10
		}
	}
	return out
}

func (g *generator) document(end time.Time, values []float32) string {
	g.stats.Documents++
	if g.rng.Float64() < malformedRate {
		g.stats.MalformedDocuments++
		return `<?xml version="1.0" encoding="UTF-8"?><data><metData><domain_meteosiId>`
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<data>\n")
	for i, s := range g.stations {
		b.WriteString("<metData>")
		b.WriteString("<domain_meteosiId>" + s.ID + "_</domain_meteosiId>")
		b.WriteString("<domain_title>" + s.Title + "</domain_title>")
		b.WriteString("<validStart>" + domain.FormatValidEnd(end.Add(-domain.BucketWidth)) + "</validStart>")

		switch {
		case i == 0 && g.rng.Float64() < malformedRate:
			g.stats.MissingValidEnd++
		case g.rng.Float64() < localTimeRate:
			g.stats.LocalTime++
			local := end.In(time.FixedZone("CET", 3600)).Format("02.01.2006 15:04")
			b.WriteString("<validEnd>" + local + " CET</validEnd>")
			g.record(end, s.ID, values[i])
		default:
			b.WriteString("<validEnd>" + domain.FormatValidEnd(end) + "</validEnd>")
			g.record(end, s.ID, values[i])
		}

		b.WriteString("<rr_val>" + strconv.FormatFloat(float64(values[i]), 'f', 1, 32) + "</rr_val>")
		b.WriteString("</metData>\n")
	}
	b.WriteString("</data>")
	return b.String()
}

func (g *generator) record(end time.Time, id string, v float32) {
	g.stats.Readings++
	key := end.Unix()
	if g.seen[key] == nil {
		g.seen[key] = make(map[string]bool)
	}
	if _, dup := g.seen[key][id]; dup {
		g.stats.Duplicates++
		return
	}
	g.seen[key][id] = v > 0
	if v > 0 {
		g.stats.PositiveCells++
	}
}

func (g *generator) finish() {
	var first, last int64
	for k := range g.seen {
		if first == 0 || k < first {
			first = k
		}
		if k > last {
			last = k
		}
	}
	if first == 0 {
		return
	}
	g.stats.FirstIntervalEnd = time.Unix(first, 0).UTC()
	g.stats.Rows = int((last-first)/int64(domain.BucketWidth/time.Second)) + 1
}

func (g *generator) writeFile(name string, write func(io.Writer) error) error {
	path := filepath.Join(g.opts.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(name, ".gz") {
		zw = gzip.NewWriter(f)
		w = zw
	}
	if err := write(w); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close %s: %w", name, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	g.stats.Files = append(g.stats.Files, path)
	return nil
}
