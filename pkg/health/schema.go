package health

import (
	"fmt"
	"math"
	"strconv"
)

// Variant selects which row key and column layout is used
type Variant string

const (
	// VariantCalendar keys rows by date and time of day
	VariantCalendar Variant = "calendar"
	// VariantTimeOfDay collapses all days onto one intraday key space
	VariantTimeOfDay Variant = "time_of_day"
)

// Column names
const (
	ColYear      = "year"
	ColDayOfYear = "day_of_year"
	ColDayOfWeek = "day_of_week"
	ColHour      = "hour"
	ColMinute    = "minute"
	ColSecond    = "second"
)

// Missing is the cell written for a missing value when a row is reindexed
const Missing = "NaN"

// Schema is the fixed, ordered column list for a variant
type Schema struct {
	Variant Variant
	Columns []string
}

// SchemaFor returns the column layout for a variant
func SchemaFor(v Variant) (Schema, error) {
	var cols []string
	switch v {
	case VariantCalendar:
		cols = []string{ColYear, ColDayOfYear, ColDayOfWeek, ColHour, ColMinute, ColSecond}
	case VariantTimeOfDay:
		cols = []string{ColHour, ColMinute, ColSecond}
	default:
		return Schema{}, fmt.Errorf("unknown variant: %q", v)
	}
	for _, f := range Fields {
		cols = append(cols, string(f))
	}
	return Schema{Variant: v, Columns: cols}, nil
}

// Record reindexes a row to the schema's columns. Missing values become the
// Missing marker and the second return value is false.
func (s Schema) Record(r *Row) ([]string, bool) {
	record := make([]string, 0, len(s.Columns))
	complete := true
	for _, col := range s.Columns {
		switch col {
		case ColYear:
			record = append(record, strconv.Itoa(r.Key.Year))
		case ColDayOfYear:
			record = append(record, strconv.Itoa(r.Key.DayOfYear))
		case ColDayOfWeek:
			record = append(record, strconv.Itoa(r.Key.DayOfWeek))
		case ColHour:
			record = append(record, strconv.Itoa(r.Key.Hour))
		case ColMinute:
			record = append(record, strconv.Itoa(r.Key.Minute))
		case ColSecond:
			record = append(record, strconv.Itoa(r.Key.Second))
		default:
			v := r.Value(Field(col))
			if math.IsNaN(v) {
				complete = false
				record = append(record, Missing)
				continue
			}
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return record, complete
}
