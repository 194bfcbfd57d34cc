package storage

import (
	"context"
	"time"

	"github.com/nicktill/healthexport/pkg/health"
)

// Source defines the interface for telemetry backends an extraction reads from.
// Implementations: influx (production), badger (local snapshot), memory (testing)
type Source interface {
	// Query returns the observations matching the request, in source order
	Query(ctx context.Context, req QueryRequest) ([]health.Observation, error)

	// Close releases the backend's resources
	Close() error
}

// Recorder persists observations fetched from another source
type Recorder interface {
	Write(ctx context.Context, obs []health.Observation) error
}

// QueryRequest specifies what observations to retrieve
type QueryRequest struct {
	// Time range, start inclusive and stop exclusive
	Start time.Time
	Stop  time.Time

	// Bucket holding the measurement (only meaningful to influx)
	Bucket string

	// Measurement name, e.g. "Health"
	Measurement string

	// Fields to select (nil = all known fields)
	Fields []health.Field

	// Mean aggregation window (AggregateNone = raw samples)
	Aggregate Aggregation
}

// FieldSet returns the requested fields, defaulting to every known field
func (r QueryRequest) FieldSet() []health.Field {
	if len(r.Fields) == 0 {
		return health.Fields
	}
	return r.Fields
}

// Stats provides snapshot health and usage info
type Stats struct {
	// Total observations stored
	TotalObservations uint64

	// Unique series (measurement + field combinations)
	TotalSeries uint64

	// Storage size in bytes
	SizeBytes uint64

	// Oldest and newest observation timestamps
	Oldest time.Time
	Newest time.Time
}
