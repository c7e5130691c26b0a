package domain

// Field is one of the <metData> child elements the extractor reads.
type Field int

const (
	FieldStationID     Field = iota // domain_meteosiId
	FieldValidStart                 // validStart
	FieldValidEnd                   // validEnd
	FieldPrecipitation              // rr_val
	fieldCount
)

var fieldElements = [fieldCount]string{
	FieldStationID:     "domain_meteosiId",
	FieldValidStart:    "validStart",
	FieldValidEnd:      "validEnd",
	FieldPrecipitation: "rr_val",
}

// ElementName returns the XML element name the field is read from.
func (f Field) ElementName() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldElements[f]
}

// LookupField maps an element name to its field. Names outside the fixed set
// report false.
func LookupField(element string) (Field, bool) {
	for f, name := range fieldElements {
		if name == element {
			return Field(f), true
		}
	}
	return 0, false
}

// RecordAccumulator holds the captured text of the current <metData> record.
type RecordAccumulator struct {
	values [fieldCount]string
	set    [fieldCount]bool
}

// Reset clears every captured field.
func (a *RecordAccumulator) Reset() {
	*a = RecordAccumulator{}
}

// Capture stores text for f. Empty text is ignored and leaves any earlier
// capture of f in place.
func (a *RecordAccumulator) Capture(f Field, text string) {
	if text == "" || f < 0 || f >= fieldCount {
		return
	}
	a.values[f] = text
	a.set[f] = true
}

// Get returns the captured text for f and whether anything was captured.
func (a *RecordAccumulator) Get(f Field) (string, bool) {
	if f < 0 || f >= fieldCount {
		return "", false
	}
	return a.values[f], a.set[f]
}
