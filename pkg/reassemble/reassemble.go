// Package reassemble pivots a per-field observation stream into one row per
// distinct timestamp key.
package reassemble

import (
	"sort"
	"time"

	"github.com/nicktill/healthexport/pkg/health"
)

// Reassembler accumulates observations into rows. Input order does not
// matter: rows are keyed, and a later value for the same key and field
// replaces an earlier one.
type Reassembler struct {
	variant  health.Variant
	location *time.Location
	rows     map[health.Key]*health.Row
	seen     int
}

// New creates a reassembler. Keys are derived in loc (UTC when nil).
func New(variant health.Variant, loc *time.Location) *Reassembler {
	if loc == nil {
		loc = time.UTC
	}
	return &Reassembler{
		variant:  variant,
		location: loc,
		rows:     make(map[health.Key]*health.Row),
	}
}

// Add folds one observation into its row, creating the row on first sight.
// Observations for unknown fields are ignored and absent values leave the
// field missing.
func (r *Reassembler) Add(o health.Observation) {
	if o.Field.Index() < 0 {
		return
	}
	r.seen++

	key := r.KeyFor(o.Time)
	row, exists := r.rows[key]
	if !exists {
		row = health.NewRow(key)
		r.rows[key] = row
	}
	if o.Value != nil {
		row.Set(o.Field, *o.Value)
	}
}

// KeyFor derives the row key of a timestamp. The calendar variant carries a
// two-digit year, the ordinal day of the year, and the weekday with Monday = 0.
func (r *Reassembler) KeyFor(ts time.Time) health.Key {
	t := ts.In(r.location)
	key := health.Key{
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
	if r.variant == health.VariantCalendar {
		key.Year = t.Year() % 100
		key.DayOfYear = t.YearDay()
		key.DayOfWeek = (int(t.Weekday()) + 6) % 7
	}
	return key
}

// Seen returns how many observations were folded in
func (r *Reassembler) Seen() int {
	return r.seen
}

// Rows returns the accumulated rows ordered by key
func (r *Reassembler) Rows() []*health.Row {
	rows := make([]*health.Row, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Key.Less(rows[j].Key)
	})
	return rows
}

// Reassemble is a one-shot helper for a complete observation slice
func Reassemble(variant health.Variant, loc *time.Location, obs []health.Observation) []*health.Row {
	r := New(variant, loc)
	for _, o := range obs {
		r.Add(o)
	}
	return r.Rows()
}
