package export

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/meteo-precip-etl/internal/domain"
)

func testShape(rows, columns int) domain.ExportedShape {
	first := time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)
	stations := make([]domain.Station, columns)
	for j := range stations {
		stations[j] = domain.Station{ID: string(rune('A' + j)), Title: "T", LongTitle: "LT", Coordinates: domain.Coordinates{Lat: 46, Lon: 14.5}}
	}
	return domain.ExportedShape{FirstIntervalEnd: &first, Rows: rows, Columns: columns, Stations: stations}
}

func TestEncodeGrid_BigEndianRowMajor(t *testing.T) {
	g := domain.Grid{Rows: 2, Columns: 2, Cells: []float32{1, 0, 0.5, -2}}

	var buf bytes.Buffer
	positive, err := EncodeGrid(&buf, g)
	require.NoError(t, err)

	assert.Equal(t, 2, positive)
	assert.Equal(t, []byte{
		0x3f, 0x80, 0x00, 0x00, // 1
		0x00, 0x00, 0x00, 0x00, // 0
		0x3f, 0x00, 0x00, 0x00, // 0.5
		0xc0, 0x00, 0x00, 0x00, // -2
	}, buf.Bytes())
}

func TestEncodeDecodeGrid_BitExact(t *testing.T) {
	shape := testShape(3, 2)
	g := domain.Grid{Rows: 3, Columns: 2, Cells: []float32{
		0.1, 0,
		math.SmallestNonzeroFloat32, math.MaxFloat32,
		1e-3, 12.7,
	}}

	var buf bytes.Buffer
	_, err := EncodeGrid(&buf, g)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSize(shape), int64(buf.Len()))

	decoded, err := DecodeGrid(&buf, shape)
	require.NoError(t, err)
	for i := range g.Cells {
		assert.Equal(t, math.Float32bits(g.Cells[i]), math.Float32bits(decoded.Cells[i]), "cell %d", i)
	}
}

func TestDecodeGrid_SizeMismatch(t *testing.T) {
	shape := testShape(1, 2)

	_, err := DecodeGrid(bytes.NewReader(make([]byte, 4)), shape)
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = DecodeGrid(bytes.NewReader(make([]byte, 12)), shape)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestEncodeShape_Document(t *testing.T) {
	shape := testShape(4, 1)

	var buf bytes.Buffer
	require.NoError(t, EncodeShape(&buf, shape))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2025-03-15T18:30:00Z", doc["firstIntervalEnd"])
	assert.InDelta(t, 1.0, doc["columns"], 0)
	assert.InDelta(t, 4.0, doc["rows"], 0)

	stations, ok := doc["stations"].([]any)
	require.True(t, ok)
	require.Len(t, stations, 1)
	station := stations[0].(map[string]any)
	assert.Equal(t, "A", station["meteosiId"])
	assert.Equal(t, "T", station["title"])
	assert.Equal(t, "LT", station["longTitle"])
	assert.Equal(t, map[string]any{"lat": 46.0, "lon": 14.5}, station["coordinates"])

	decoded, err := DecodeShape(&buf)
	require.NoError(t, err)
	assert.Equal(t, shape.Stations, decoded.Stations)
	assert.True(t, shape.FirstIntervalEnd.Equal(*decoded.FirstIntervalEnd))
}

func TestEncodeShape_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeShape(&buf, domain.ExportedShape{}))
	assert.JSONEq(t, `{"firstIntervalEnd":null,"columns":0,"rows":0,"stations":[]}`, buf.String())
}

func TestWriter_WriteGridRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "out.data")
	shapePath := filepath.Join(dir, "out.json")
	shape := testShape(2, 3)
	grid := domain.Grid{Rows: 2, Columns: 3, Cells: []float32{0, 0.2, 0, 1.4, 0, 0}}

	w := NewWriter(dataPath, shapePath, slog.Default())
	summary, err := w.WriteGrid(context.Background(), grid, shape)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.PositiveCells)
	assert.Equal(t, int64(24), summary.GridBytes)

	gotGrid, gotShape, err := ReadFiles(dataPath, shapePath)
	require.NoError(t, err)
	if diff := cmp.Diff(grid, gotGrid); diff != "" {
		t.Fatalf("grid mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, shape.Rows, gotShape.Rows)
	assert.Equal(t, shape.Columns, gotShape.Columns)
	assert.Equal(t, shape.Stations, gotShape.Stations)
	assert.True(t, shape.FirstIntervalEnd.Equal(*gotShape.FirstIntervalEnd))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary files must be cleaned up")
}

func TestWriter_NoOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "out.data")
	shapePath := filepath.Join(dir, "missing", "out.json")

	w := NewWriter(dataPath, shapePath, slog.Default())
	_, err := w.WriteGrid(context.Background(), domain.NewGrid(1, 1), testShape(1, 1))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadFiles_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "out.data")
	shapePath := filepath.Join(dir, "out.json")

	var buf bytes.Buffer
	require.NoError(t, EncodeShape(&buf, testShape(2, 2)))
	require.NoError(t, os.WriteFile(shapePath, buf.Bytes(), 0o600))
	require.NoError(t, os.WriteFile(dataPath, make([]byte, 12), 0o600))

	_, _, err := ReadFiles(dataPath, shapePath)
	require.ErrorIs(t, err, ErrShapeMismatch)
}
