/*
Package storage provides the pluggable source abstraction for health telemetry.

# Source Interface

An extraction reads observations through the Source interface so the pipeline
never knows which backend answered:
  - influx: InfluxDB 2.x over its HTTP query API (production)
  - badger: a local BadgerDB snapshot of previously fetched observations
  - memory: In-memory source for testing and dry runs

	type Source interface {
	    Query(ctx context.Context, req QueryRequest) ([]health.Observation, error)
	    Close() error
	}

# Query Semantics

Every backend returns the same observations for the same QueryRequest:

  - Time range is half-open: Start inclusive, Stop exclusive
  - Only the requested fields of the requested measurement are returned
  - With an Aggregation, values are replaced by per-field means over
    epoch-aligned windows stamped with the window stop
  - Non-positive bpm and spo2 values are dropped after aggregation

InfluxDB applies these rules server-side through the Flux query built by
pkg/query. Backends without a query engine call Apply, which implements the
same steps in Go.

# Snapshots

Tee wraps a live source and records each result into a Recorder, which is how
the badger backend is filled:

	snap, err := badger.New(badger.Config{Path: "./snapshot"})
	if err != nil {
	    return err
	}
	defer snap.Close()

	src := storage.NewTee(influxSource, snap)

	// Later, offline:
	obs, err := snap.Query(ctx, storage.QueryRequest{
	    Start:       start,
	    Stop:        stop,
	    Measurement: "Health",
	    Aggregate:   storage.Aggregate5m,
	})

Record snapshots without aggregation: replay aggregates locally, so a snapshot
of means would be averaged a second time.

# See Also

  - influx.New() for the InfluxDB source
  - badger.New() for snapshots
  - memory.New() for tests
*/
package storage
