package export

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/couchcryptid/meteo-precip-etl/internal/domain"
)

// cellSize is the encoded width of one grid cell.
const cellSize = 4

// ErrShapeMismatch is returned when a grid file's size does not match its shape.
var ErrShapeMismatch = errors.New("grid size does not match shape")

// EncodeGrid writes the grid as big-endian float32 values in row-major order
// with no header or padding. It returns the number of strictly positive cells.
func EncodeGrid(w io.Writer, g domain.Grid) (int, error) {
	bw := bufio.NewWriter(w)
	var buf [cellSize]byte
	positive := 0
	for _, v := range g.Cells {
		if v > 0 {
			positive++
		}
		binary.BigEndian.PutUint32(buf[:], math.Float32bits(v))
		if _, err := bw.Write(buf[:]); err != nil {
			return 0, fmt.Errorf("write grid: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flush grid: %w", err)
	}
	return positive, nil
}

// DecodeGrid reads a grid written by EncodeGrid using the dimensions from shape.
func DecodeGrid(r io.Reader, shape domain.ExportedShape) (domain.Grid, error) {
	g := domain.NewGrid(shape.Rows, shape.Columns)
	br := bufio.NewReader(r)
	var buf [cellSize]byte
	for i := range g.Cells {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return domain.Grid{}, fmt.Errorf("%w: cell %d: %w", ErrShapeMismatch, i, err)
		}
		g.Cells[i] = math.Float32frombits(binary.BigEndian.Uint32(buf[:]))
	}
	if n, _ := br.Read(buf[:1]); n > 0 {
		return domain.Grid{}, fmt.Errorf("%w: trailing bytes after %d cells", ErrShapeMismatch, len(g.Cells))
	}
	return g, nil
}

// EncodeShape writes the shape metadata as a JSON document.
func EncodeShape(w io.Writer, shape domain.ExportedShape) error {
	if shape.Stations == nil {
		shape.Stations = []domain.Station{}
	}
	if err := json.NewEncoder(w).Encode(shape); err != nil {
		return fmt.Errorf("encode shape: %w", err)
	}
	return nil
}

// DecodeShape reads a metadata document written by EncodeShape.
func DecodeShape(r io.Reader) (domain.ExportedShape, error) {
	var shape domain.ExportedShape
	if err := json.NewDecoder(r).Decode(&shape); err != nil {
		return domain.ExportedShape{}, fmt.Errorf("decode shape: %w", err)
	}
	if shape.Rows < 0 || shape.Columns < 0 {
		return domain.ExportedShape{}, fmt.Errorf("decode shape: negative dimensions %dx%d", shape.Rows, shape.Columns)
	}
	return shape, nil
}

// ExpectedSize is the byte length of a grid file for shape.
func ExpectedSize(shape domain.ExportedShape) int64 {
	return int64(shape.Rows) * int64(shape.Columns) * cellSize
}
