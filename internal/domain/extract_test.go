package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testStationRaw = "LJUBL_____"
	testStationID  = "LJUBL"
	testValidEnd   = "15.03.2025 18:30 UTC"
)

func metData(fields string) string {
	return "<metData>" + fields + "</metData>"
}

func document(records ...string) []byte {
	doc := `<?xml version="1.0" encoding="UTF-8"?><data><language>sl</language>`
	for _, r := range records {
		doc += r
	}
	return []byte(doc + "</data>")
}

func TestExtractObservations(t *testing.T) {
	t.Run("single record", func(t *testing.T) {
		doc := document(metData(
			"<domain_meteosiId>" + testStationRaw + "</domain_meteosiId>" +
				"<validStart>15.03.2025 18:20 UTC</validStart>" +
				"<validEnd>" + testValidEnd + "</validEnd>" +
				"<tavg>7.1</tavg>" +
				"<rr_val>0.4</rr_val>",
		))

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.Empty(t, got.Issues)
		assert.Equal(t, 1, got.Records)

		obs := got.Observations[0]
		assert.Equal(t, testStationID, obs.StationID)
		assert.Equal(t, time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC), obs.IntervalEnd)
		assert.InDelta(t, 0.4, obs.Precipitation10Min, 1e-6)
	})

	t.Run("records in document order", func(t *testing.T) {
		doc := document(
			metData("<domain_meteosiId>AAA_</domain_meteosiId><validEnd>1.1.2025 0:10 UTC</validEnd><rr_val>1</rr_val>"),
			metData("<domain_meteosiId>BBB_</domain_meteosiId><validEnd>1.1.2025 0:20 UTC</validEnd><rr_val>2</rr_val>"),
			metData("<domain_meteosiId>CCC_</domain_meteosiId><validEnd>1.1.2025 0:30 UTC</validEnd><rr_val>3</rr_val>"),
		)

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 3)
		for i, id := range []string{"AAA", "BBB", "CCC"} {
			assert.Equal(t, id, got.Observations[i].StationID)
			assert.InDelta(t, float32(i+1), got.Observations[i].Precipitation10Min, 1e-6)
		}
	})

	t.Run("only trailing underscores are stripped", func(t *testing.T) {
		doc := document(metData("<domain_meteosiId>_NOVA_GORICA__</domain_meteosiId>"))

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.Equal(t, "_NOVA_GORICA", got.Observations[0].StationID)
	})

	t.Run("missing rr_val defaults to zero", func(t *testing.T) {
		doc := document(metData("<domain_meteosiId>KOPER</domain_meteosiId><validEnd>" + testValidEnd + "</validEnd>"))

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.Zero(t, got.Observations[0].Precipitation10Min)
		assert.Empty(t, got.Issues)
	})

	t.Run("unparseable rr_val defaults to zero with issue", func(t *testing.T) {
		doc := document(metData("<domain_meteosiId>KOPER</domain_meteosiId><rr_val>n/a</rr_val>"))

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.Zero(t, got.Observations[0].Precipitation10Min)
		require.Len(t, got.Issues, 1)
		assert.Equal(t, IssuePrecipitation, got.Issues[0].Kind)
	})

	t.Run("bad timestamp keeps record without interval end", func(t *testing.T) {
		doc := document(metData("<domain_meteosiId>KOPER</domain_meteosiId><validEnd>yesterday</validEnd><rr_val>0.2</rr_val>"))

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.False(t, got.Observations[0].HasIntervalEnd())
		require.Len(t, got.Issues, 1)
		assert.Equal(t, IssueTimestamp, got.Issues[0].Kind)
		assert.ErrorIs(t, got.Issues[0], ErrTimestampParse)
	})

	t.Run("missing validEnd is not an issue", func(t *testing.T) {
		doc := document(metData("<domain_meteosiId>KOPER</domain_meteosiId>"))

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.False(t, got.Observations[0].HasIntervalEnd())
		assert.Empty(t, got.Issues)
	})

	t.Run("record without station is dropped", func(t *testing.T) {
		doc := document(
			metData("<domain_meteosiId>____</domain_meteosiId><rr_val>1</rr_val>"),
			metData("<domain_meteosiId>KOPER</domain_meteosiId>"),
		)

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.Equal(t, "KOPER", got.Observations[0].StationID)
		require.Len(t, got.Issues, 1)
		assert.Equal(t, IssueStation, got.Issues[0].Kind)
		assert.Equal(t, 0, got.Issues[0].Record)
		assert.Equal(t, 2, got.Records)
	})

	t.Run("accumulator resets between records", func(t *testing.T) {
		doc := document(
			metData("<domain_meteosiId>AAA</domain_meteosiId><validEnd>"+testValidEnd+"</validEnd><rr_val>5</rr_val>"),
			metData("<domain_meteosiId>BBB</domain_meteosiId>"),
		)

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 2)
		assert.False(t, got.Observations[1].HasIntervalEnd())
		assert.Zero(t, got.Observations[1].Precipitation10Min)
	})

	// Intentional: an empty duplicate element keeps the earlier non-empty value
	// of the same record instead of clearing it.
	t.Run("empty duplicate element keeps earlier capture", func(t *testing.T) {
		doc := document(metData("<domain_meteosiId>AAA</domain_meteosiId><rr_val>1.5</rr_val><rr_val></rr_val><rr_val/>"))

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.InDelta(t, 1.5, got.Observations[0].Precipitation10Min, 1e-6)
	})

	t.Run("non-empty duplicate element overwrites", func(t *testing.T) {
		doc := document(metData("<domain_meteosiId>AAA</domain_meteosiId><rr_val>1.5</rr_val><rr_val>2.5</rr_val>"))

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.InDelta(t, 2.5, got.Observations[0].Precipitation10Min, 1e-6)
	})

	t.Run("unknown elements are ignored", func(t *testing.T) {
		doc := document(metData("<domain_title>LJUBLJANA</domain_title><domain_meteosiId>AAA</domain_meteosiId><tp_1h_acc>9</tp_1h_acc>"))

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.Zero(t, got.Observations[0].Precipitation10Min)
	})

	t.Run("CDATA text is captured", func(t *testing.T) {
		doc := document(metData("<domain_meteosiId><![CDATA[AAA__]]></domain_meteosiId>"))

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.Equal(t, "AAA", got.Observations[0].StationID)
	})

	t.Run("document without records", func(t *testing.T) {
		got, err := ExtractObservations(document())
		require.NoError(t, err)
		assert.Empty(t, got.Observations)
		assert.Zero(t, got.Records)
	})

	t.Run("malformed document yields nothing", func(t *testing.T) {
		doc := []byte(`<data>` + metData("<domain_meteosiId>AAA</domain_meteosiId>") + `<metData><rr_val>1</metData>`)

		got, err := ExtractObservations(doc)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrXMLParse)
		assert.Empty(t, got.Observations)
	})

	t.Run("windows-1250 declared encoding", func(t *testing.T) {
		doc := []byte(`<?xml version="1.0" encoding="windows-1250"?><data>` +
			metData("<domain_meteosiId>AAA</domain_meteosiId><rr_val>0.1</rr_val>") + `</data>`)

		got, err := ExtractObservations(doc)
		require.NoError(t, err)
		require.Len(t, got.Observations, 1)
		assert.Equal(t, "AAA", got.Observations[0].StationID)
	})
}

func TestRecordAccumulator(t *testing.T) {
	var acc RecordAccumulator

	_, ok := acc.Get(FieldValidEnd)
	assert.False(t, ok)

	acc.Capture(FieldValidEnd, testValidEnd)
	acc.Capture(FieldValidEnd, "")
	v, ok := acc.Get(FieldValidEnd)
	assert.True(t, ok)
	assert.Equal(t, testValidEnd, v)

	acc.Reset()
	_, ok = acc.Get(FieldValidEnd)
	assert.False(t, ok)
}

func TestLookupField(t *testing.T) {
	tests := []struct {
		element string
		want    Field
		ok      bool
	}{
		{"domain_meteosiId", FieldStationID, true},
		{"validStart", FieldValidStart, true},
		{"validEnd", FieldValidEnd, true},
		{"rr_val", FieldPrecipitation, true},
		{"tavg", 0, false},
		{"metData", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.element, func(t *testing.T) {
			got, ok := LookupField(tt.element)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.element, got.ElementName())
			}
		})
	}
}
