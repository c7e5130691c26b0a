package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/meteo-precip-etl/internal/domain"
	"github.com/couchcryptid/meteo-precip-etl/internal/observability"
)

// envelope is one archive line. XML is a pointer so a missing field can be
// told apart from an empty document.
type envelope struct {
	XML *string `json:"xml"`
}

// Reader turns archive files into ordered observation lists.
// It implements pipeline.ArchiveReader.
type Reader struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// NewReader creates an archive Reader. A nil clock uses real time.
func NewReader(logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Reader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reader{logger: logger, metrics: metrics, clock: clock}
}

// ReadArchive reads every line of the archive at path and extracts its
// observations in line order. Envelope and IO errors abort; an embedded
// document that fails to parse is logged and skipped.
func (r *Reader) ReadArchive(ctx context.Context, path string) (domain.ArchiveResult, error) {
	start := r.clock.Now()
	name := filepath.Base(path)

	lf, err := openLines(path)
	if err != nil {
		return domain.ArchiveResult{}, err
	}
	defer lf.Close()

	result := domain.ArchiveResult{Filename: name}
	line := 0
	for lf.sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return domain.ArchiveResult{}, err
		}

		raw := lf.sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		r.metrics.LinesRead.Inc()

		doc, err := decodeEnvelope(raw)
		if err != nil {
			return domain.ArchiveResult{}, fmt.Errorf("%s line %d: %w", name, line, err)
		}

		extraction, err := domain.ExtractObservations(doc)
		if err != nil {
			r.metrics.XMLParseErrors.Inc()
			r.logger.Warn("skipping unparseable document",
				"file", name,
				"line", line,
				"error", err,
			)
			continue
		}

		for _, issue := range extraction.Issues {
			r.metrics.RecordIssues.WithLabelValues(string(issue.Kind)).Inc()
			r.logger.Debug("record issue",
				"file", name,
				"line", line,
				"record", issue.Record,
				"kind", string(issue.Kind),
				"error", issue.Err,
			)
		}

		result.Observations = append(result.Observations, extraction.Observations...)
	}
	if err := lf.sc.Err(); err != nil {
		return domain.ArchiveResult{}, fmt.Errorf("read %s: %w", name, err)
	}

	elapsed := r.clock.Since(start)
	r.metrics.ArchivesProcessed.Inc()
	r.metrics.ObservationsExtracted.Add(float64(len(result.Observations)))
	r.metrics.ArchiveReadDuration.Observe(elapsed.Seconds())
	r.logger.Info("archive read",
		"file", name,
		"lines", line,
		"observations", len(result.Observations),
		"duration", elapsed,
	)

	return result, nil
}

// decodeEnvelope returns the embedded XML document of one archive line.
func decodeEnvelope(raw []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEnvelopeDecode, err)
	}
	if env.XML == nil {
		return nil, fmt.Errorf("%w: missing \"xml\" field", domain.ErrEnvelopeDecode)
	}
	return []byte(*env.XML), nil
}
