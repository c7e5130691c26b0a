package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEnvelopeDecode marks an archive line that is not a JSON object with an
	// "xml" string field. It aborts the run.
	ErrEnvelopeDecode = errors.New("envelope decode")

	// ErrXMLParse marks an embedded document that could not be tokenized. The
	// line contributes no observations; the run continues.
	ErrXMLParse = errors.New("xml parse")

	// ErrTimestampParse marks a validEnd value that does not match the expected layout.
	ErrTimestampParse = errors.New("timestamp parse")

	// ErrMissingStationDirectory is returned when no station snapshot exists.
	ErrMissingStationDirectory = errors.New("missing station directory")

	// ErrInvalidStation marks a station directory line that fails validation.
	ErrInvalidStation = errors.New("invalid station")
)

// IssueKind classifies a recoverable problem with a single <metData> record.
type IssueKind string

const (
	IssueTimestamp     IssueKind = "timestamp"
	IssuePrecipitation IssueKind = "precipitation"
	IssueStation       IssueKind = "station"
)

// RecordIssue describes a problem found while closing a record. Issues are
// reported and counted but never abort extraction.
type RecordIssue struct {
	Kind   IssueKind
	Record int // zero-based index of the <metData> record within its document
	Err    error
}

func (i RecordIssue) Error() string {
	return fmt.Sprintf("record %d: %s: %v", i.Record, i.Kind, i.Err)
}

func (i RecordIssue) Unwrap() error { return i.Err }
