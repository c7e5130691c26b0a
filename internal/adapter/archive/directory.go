package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/meteo-precip-etl/internal/domain"
)

var archiveSuffixes = []string{".json", ".json.gz"}

// Directory discovers archives and the station directory in a data directory.
// It implements pipeline.ArchiveSource and pipeline.StationSource.
type Directory struct {
	dir            string
	archivePrefix  string
	stationsPrefix string
	validate       *validator.Validate
	logger         *slog.Logger
}

// NewDirectory creates a Directory rooted at dir.
func NewDirectory(dir, archivePrefix, stationsPrefix string, logger *slog.Logger) *Directory {
	return &Directory{
		dir:            dir,
		archivePrefix:  archivePrefix,
		stationsPrefix: stationsPrefix,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		logger:         logger,
	}
}

// ListArchives returns the paths of all archive files, sorted by filename.
func (d *Directory) ListArchives(_ context.Context) ([]string, error) {
	return d.match(d.archivePrefix)
}

// LatestStationSnapshot returns the lexicographically latest station
// directory file.
func (d *Directory) LatestStationSnapshot() (string, error) {
	paths, err := d.match(d.stationsPrefix)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: no %s*.json[.gz] in %s", domain.ErrMissingStationDirectory, d.stationsPrefix, d.dir)
	}
	return paths[len(paths)-1], nil
}

// LoadStations reads the latest station snapshot. Stations are returned in
// file order; unknown JSON fields are ignored.
func (d *Directory) LoadStations(ctx context.Context) ([]domain.Station, error) {
	path, err := d.LatestStationSnapshot()
	if err != nil {
		return nil, err
	}

	lf, err := openLines(path)
	if err != nil {
		return nil, err
	}
	defer lf.Close()

	var stations []domain.Station
	line := 0
	for lf.sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := lf.sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		var s domain.Station
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%s line %d: %w: %w", filepath.Base(path), line, domain.ErrInvalidStation, err)
		}
		if err := d.validate.Struct(s); err != nil {
			return nil, fmt.Errorf("%s line %d: %w: %w", filepath.Base(path), line, domain.ErrInvalidStation, err)
		}
		stations = append(stations, s)
	}
	if err := lf.sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	d.logger.Info("station directory loaded", "file", filepath.Base(path), "stations", len(stations))
	return stations, nil
}

// match lists regular files named <prefix>*.json or <prefix>*.json.gz.
func (d *Directory) match(prefix string) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.dir, err)
	}

	// os.ReadDir returns entries sorted by filename.
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if slices.ContainsFunc(archiveSuffixes, func(suffix string) bool {
			return strings.HasSuffix(name, suffix)
		}) {
			paths = append(paths, filepath.Join(d.dir, name))
		}
	}
	return paths, nil
}
