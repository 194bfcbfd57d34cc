package storage

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidAggregation is returned for aggregation windows outside the fixed set
var ErrInvalidAggregation = errors.New("invalid aggregation")

// Aggregation is the granularity of mean aggregation applied before rows are
// returned
type Aggregation string

const (
	AggregateNone Aggregation = ""    // Raw samples
	Aggregate1m   Aggregation = "1m"  // 1-minute means
	Aggregate5m   Aggregation = "5m"  // 5-minute means
	Aggregate10m  Aggregation = "10m" // 10-minute means
	Aggregate30m  Aggregation = "30m" // 30-minute means
	Aggregate1h   Aggregation = "1h"  // 1-hour means
)

var aggregationWindows = map[Aggregation]time.Duration{
	Aggregate1m:  time.Minute,
	Aggregate5m:  5 * time.Minute,
	Aggregate10m: 10 * time.Minute,
	Aggregate30m: 30 * time.Minute,
	Aggregate1h:  time.Hour,
}

// ParseAggregation parses a command-line aggregation value. Empty and "none"
// both mean no aggregation.
func ParseAggregation(s string) (Aggregation, error) {
	if s == "" || s == "none" {
		return AggregateNone, nil
	}
	a := Aggregation(s)
	if _, ok := aggregationWindows[a]; !ok {
		return AggregateNone, fmt.Errorf("%w: %q (want 1m, 5m, 10m, 30m, 1h or none)", ErrInvalidAggregation, s)
	}
	return a, nil
}

// Duration returns the window length, or 0 for AggregateNone
func (a Aggregation) Duration() time.Duration {
	return aggregationWindows[a]
}

// Enabled reports whether any aggregation is requested
func (a Aggregation) Enabled() bool {
	return a != AggregateNone
}

func (a Aggregation) String() string {
	if a == AggregateNone {
		return "none"
	}
	return string(a)
}
