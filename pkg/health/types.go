package health

import (
	"math"
	"time"
)

// Field names a physiological signal within the Health measurement
type Field string

const (
	BPM      Field = "bpm"
	Movement Field = "movement"
	PI       Field = "pi"
	SpO2     Field = "spo2"
)

// Fields lists every signal in output column order
var Fields = []Field{BPM, Movement, PI, SpO2}

// Index returns the field's position in Fields, or -1 for unknown names
func (f Field) Index() int {
	for i, known := range Fields {
		if f == known {
			return i
		}
	}
	return -1
}

// Valid reports whether a value is physiologically plausible for the field.
// Heart rate and blood oxygen must be positive; movement and perfusion index
// accept any value.
func Valid(f Field, v float64) bool {
	switch f {
	case BPM, SpO2:
		return v > 0
	default:
		return true
	}
}

// Observation is a single field sample as returned by a source
type Observation struct {
	Time  time.Time `json:"time"`
	Field Field     `json:"field"`
	Value *float64  `json:"value,omitempty"` // nil when the source returned no value
}

// Float is a helper for building observation values
func Float(v float64) *float64 {
	return &v
}

// Key identifies which observations belong to the same row.
// Calendar fields stay zero in the time-of-day variant.
type Key struct {
	Year      int
	DayOfYear int
	DayOfWeek int
	Hour      int
	Minute    int
	Second    int
}

// Less orders keys chronologically
func (k Key) Less(o Key) bool {
	a := [...]int{k.Year, k.DayOfYear, k.Hour, k.Minute, k.Second}
	b := [...]int{o.Year, o.DayOfYear, o.Hour, o.Minute, o.Second}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Row accumulates the four field values for one key
type Row struct {
	Key    Key
	Values [4]float64 // indexed like Fields, NaN means missing
}

// NewRow creates a row with every value missing
func NewRow(k Key) *Row {
	r := &Row{Key: k}
	for i := range r.Values {
		r.Values[i] = math.NaN()
	}
	return r
}

// Set stores a field value. Unknown fields are ignored.
func (r *Row) Set(f Field, v float64) {
	if i := f.Index(); i >= 0 {
		r.Values[i] = v
	}
}

// Value returns the field value or NaN
func (r *Row) Value(f Field) float64 {
	if i := f.Index(); i >= 0 {
		return r.Values[i]
	}
	return math.NaN()
}

// Complete reports whether all four fields are present
func (r *Row) Complete() bool {
	for _, v := range r.Values {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}
