package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/meteo-precip-etl/internal/domain"
)

// Writer persists a grid and its shape to two files.
// It implements pipeline.GridSink.
type Writer struct {
	dataPath  string
	shapePath string
	logger    *slog.Logger
}

// NewWriter creates a Writer for the given output paths.
func NewWriter(dataPath, shapePath string, logger *slog.Logger) *Writer {
	return &Writer{dataPath: dataPath, shapePath: shapePath, logger: logger}
}

// WriteGrid writes both artifacts to temporary files next to their targets and
// renames them into place only once both are complete.
func (w *Writer) WriteGrid(ctx context.Context, grid domain.Grid, shape domain.ExportedShape) (domain.WriteSummary, error) {
	var summary domain.WriteSummary

	dataTmp, err := writeTemp(w.dataPath, func(f io.Writer) error {
		n, err := EncodeGrid(f, grid)
		summary.PositiveCells = n
		return err
	})
	if err != nil {
		return domain.WriteSummary{}, err
	}
	defer os.Remove(dataTmp)

	shapeTmp, err := writeTemp(w.shapePath, func(f io.Writer) error {
		return EncodeShape(f, shape)
	})
	if err != nil {
		return domain.WriteSummary{}, err
	}
	defer os.Remove(shapeTmp)

	if err := ctx.Err(); err != nil {
		return domain.WriteSummary{}, err
	}

	if err := os.Rename(dataTmp, w.dataPath); err != nil {
		return domain.WriteSummary{}, fmt.Errorf("publish %s: %w", w.dataPath, err)
	}
	if err := os.Rename(shapeTmp, w.shapePath); err != nil {
		return domain.WriteSummary{}, fmt.Errorf("publish %s: %w", w.shapePath, err)
	}

	summary.GridBytes = ExpectedSize(shape)
	w.logger.Info("grid written",
		"data", w.dataPath,
		"shape", w.shapePath,
		"rows", grid.Rows,
		"columns", grid.Columns,
		"positive_cells", summary.PositiveCells,
	)
	return summary, nil
}

// writeTemp creates a temporary file in target's directory, fills it with
// write and syncs it. The caller owns the returned path.
func writeTemp(target string, write func(io.Writer) error) (path string, err error) {
	f, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", target, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if err := write(f); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("sync %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}

// ReadFiles loads a grid and its shape from disk and checks that the grid
// file size matches the shape.
func ReadFiles(dataPath, shapePath string) (domain.Grid, domain.ExportedShape, error) {
	sf, err := os.Open(shapePath)
	if err != nil {
		return domain.Grid{}, domain.ExportedShape{}, err
	}
	defer sf.Close()

	shape, err := DecodeShape(sf)
	if err != nil {
		return domain.Grid{}, domain.ExportedShape{}, err
	}

	df, err := os.Open(dataPath)
	if err != nil {
		return domain.Grid{}, domain.ExportedShape{}, err
	}
	defer df.Close()

	info, err := df.Stat()
	if err != nil {
		return domain.Grid{}, domain.ExportedShape{}, err
	}
	if want := ExpectedSize(shape); info.Size() != want {
		return domain.Grid{}, domain.ExportedShape{}, fmt.Errorf("%w: %s is %d bytes, want %d",
			ErrShapeMismatch, dataPath, info.Size(), want)
	}

	grid, err := DecodeGrid(df, shape)
	if err != nil {
		return domain.Grid{}, domain.ExportedShape{}, fmt.Errorf("read %s: %w", dataPath, err)
	}
	return grid, shape, nil
}
