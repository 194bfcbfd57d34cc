// Package query renders the Flux queries sent to InfluxDB.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nicktill/healthexport/pkg/health"
	"github.com/nicktill/healthexport/pkg/storage"
)

var (
	ErrMissingBucket = errors.New("bucket is required")
	ErrEmptyRange    = errors.New("range start must be before stop")
)

// Build renders the Flux query for one window: the time range, the
// measurement, the requested fields, optional mean aggregation, and the
// positivity predicate for fields where a non-positive value is invalid.
// The predicate runs after aggregation so it also applies to means.
func Build(req storage.QueryRequest) (string, error) {
	if req.Bucket == "" {
		return "", ErrMissingBucket
	}
	if !req.Start.Before(req.Stop) {
		return "", fmt.Errorf("%w: %s >= %s", ErrEmptyRange, formatTime(req.Start), formatTime(req.Stop))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", strconv.Quote(req.Bucket))
	fmt.Fprintf(&b, "  |> range(start: %s, stop: %s)\n", formatTime(req.Start), formatTime(req.Stop))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %s)\n", strconv.Quote(req.Measurement))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => %s)\n", fieldFilter(req.FieldSet()))
	if req.Aggregate.Enabled() {
		fmt.Fprintf(&b, "  |> aggregateWindow(every: %s, fn: mean)\n", req.Aggregate)
	}
	fmt.Fprintf(&b, "  |> filter(fn: (r) => %s)\n", positivityFilter())
	return b.String(), nil
}

func fieldFilter(fields []health.Field) string {
	terms := make([]string, len(fields))
	for i, f := range fields {
		terms[i] = "r._field == " + strconv.Quote(string(f))
	}
	return strings.Join(terms, " or ")
}

// positivityFilter keeps rows unless they belong to a field that must be
// positive and hold a non-positive value. Other fields pass untouched.
func positivityFilter() string {
	var terms []string
	for _, f := range health.Fields {
		if health.Valid(f, 0) {
			continue
		}
		terms = append(terms, fmt.Sprintf("(r._field != %s or r._value > 0)", strconv.Quote(string(f))))
	}
	return strings.Join(terms, " and ")
}

// formatTime renders an absolute Flux time literal
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
