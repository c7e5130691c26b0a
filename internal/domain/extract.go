package domain

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

const recordElement = "metData"

// Extraction is the result of reading one embedded XML document.
type Extraction struct {
	Observations []Observation
	Issues       []RecordIssue
	Records      int
}

// ExtractObservations reads every <metData> record of doc in document order.
// Per-record problems are returned as issues; only a document that cannot be
// tokenized yields an error, in which case no observations are returned.
func ExtractObservations(doc []byte) (Extraction, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.CharsetReader = charsetReader

	var (
		out       Extraction
		acc       RecordAccumulator
		text      strings.Builder
		capturing bool
		field     Field
		depth     int // element depth below the captured element
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Extraction{}, fmt.Errorf("%w: %w", ErrXMLParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if capturing {
				depth++
				continue
			}
			if t.Name.Local == recordElement {
				acc.Reset()
				continue
			}
			if f, ok := LookupField(t.Name.Local); ok {
				capturing, field, depth = true, f, 0
				text.Reset()
			}
		case xml.CharData:
			if capturing {
				text.Write(t)
			}
		case xml.EndElement:
			if capturing {
				if depth > 0 {
					depth--
					continue
				}
				acc.Capture(field, text.String())
				capturing = false
				continue
			}
			if t.Name.Local == recordElement {
				obs, issues := closeRecord(&acc, out.Records)
				out.Issues = append(out.Issues, issues...)
				if obs != nil {
					out.Observations = append(out.Observations, *obs)
				}
				out.Records++
			}
		}
	}

	return out, nil
}

// closeRecord turns the accumulated fields into an observation. A record
// without a station id yields no observation.
func closeRecord(acc *RecordAccumulator, record int) (*Observation, []RecordIssue) {
	var issues []RecordIssue

	rawID, _ := acc.Get(FieldStationID)
	stationID := strings.TrimRight(rawID, "_")
	if strings.TrimSpace(stationID) == "" {
		issues = append(issues, RecordIssue{
			Kind:   IssueStation,
			Record: record,
			Err:    fmt.Errorf("empty %s %q", FieldStationID.ElementName(), rawID),
		})
		return nil, issues
	}

	obs := Observation{StationID: stationID}

	if raw, ok := acc.Get(FieldValidEnd); ok {
		t, err := ParseValidEnd(raw)
		if err != nil {
			issues = append(issues, RecordIssue{Kind: IssueTimestamp, Record: record, Err: err})
		} else {
			obs.IntervalEnd = t
		}
	}

	if raw, ok := acc.Get(FieldPrecipitation); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
		if err != nil {
			issues = append(issues, RecordIssue{
				Kind:   IssuePrecipitation,
				Record: record,
				Err:    fmt.Errorf("parse %s %q: %w", FieldPrecipitation.ElementName(), raw, err),
			})
		} else {
			obs.Precipitation10Min = float32(v)
		}
	}

	return &obs, issues
}

// charsetReader decodes documents that declare a non-UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
