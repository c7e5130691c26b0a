// Package domain models ARSO (Slovenian Environment Agency) automatic weather
// station telemetry and the dense precipitation matrix compacted from it.
//
// # Data Source
//
// Archive files are produced by a scraper that periodically downloads the
// per-station observation history published by ARSO. Each line of an archive
// is a JSON object whose "xml" field holds one complete XML document:
//
//	{"meteosiId": "LJUBL-ANA_BEZIGRAD_", "xml": "<?xml ...?><data>...</data>"}
//
// A document contains any number of <metData> records. Only four child
// elements are read; all others are ignored:
//
//	domain_meteosiId  station code, right-padded with underscores ("LJUBL_____")
//	validStart        start of the 10-minute interval
//	validEnd          end of the 10-minute interval, e.g. "15.03.2025 18:30 UTC"
//	rr_val            precipitation accumulated over the interval, in mm
//
// # Record Accumulation
//
// Element text is captured into a [RecordAccumulator] keyed by the closed
// [Field] enum. The accumulator is reset when a <metData> element opens and
// read when it closes. A captured element with an empty body does not
// overwrite an earlier capture of the same field within the same record; this
// mirrors how the upstream feed has always been read and is kept on purpose.
//
// # Timestamps
//
// validEnd uses "day.month.year hour:minute zone", with single-digit day,
// month and hour accepted. Recognized zone abbreviations are UTC, GMT, CET
// (+01:00) and CEST (+02:00). All instants are normalized to UTC.
//
// # Matrix Layout
//
// Observations are bucketed on a fixed 600-second grid starting at the
// earliest validEnd. Row i holds the bucket firstIntervalEnd + i*600s; column
// j holds station j of the directory sorted by id. Missing samples stay 0.
// See [BuildGrid].
package domain
