package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/nicktill/healthexport/pkg/health"
	"github.com/nicktill/healthexport/pkg/storage"
)

// DefaultMeasurement is recorded for observations written without one
const DefaultMeasurement = "Health"

// Snapshot stores observations in BadgerDB (LSM tree) so an extraction can be
// replayed offline. It implements storage.Source and storage.Recorder.
type Snapshot struct {
	db          *badger.DB
	measurement string
}

// Config holds BadgerDB configuration
type Config struct {
	// Path to store database files
	Path string

	// InMemory mode (for testing)
	InMemory bool

	// Measurement recorded for written observations (default "Health")
	Measurement string

	// MaxMemoryMB limits BadgerDB memory usage in MB (0 = 16 MB memtable defaults)
	MaxMemoryMB int64
}

// record is the value stored per key
type record struct {
	Measurement string             `json:"measurement"`
	Observation health.Observation `json:"observation"`
}

// New opens (or creates) a snapshot
func New(cfg Config) (*Snapshot, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)

	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	// A snapshot is small and written once per run; keep BadgerDB's
	// footprint laptop-sized instead of its 64 MB x 5 memtable defaults.
	memTableSize := int64(16 * 1024 * 1024)
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB * 1024 * 1024 / 3
	}

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(3).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithMaxLevels(4).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithValueThreshold(1024).
		WithNumCompactors(2). // badger requires at least 2 unless compactors are disabled
		WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	measurement := cfg.Measurement
	if measurement == "" {
		measurement = DefaultMeasurement
	}
	return &Snapshot{db: db, measurement: measurement}, nil
}

// Write stores observations. An observation with the same field and time as
// an existing one replaces it, so re-recording a window is idempotent.
// A whole day of raw samples exceeds one transaction, so writes go through a
// WriteBatch which commits in as many transactions as needed.
func (s *Snapshot) Write(ctx context.Context, obs []health.Observation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i, o := range obs {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		value, err := json.Marshal(record{Measurement: s.measurement, Observation: o})
		if err != nil {
			return fmt.Errorf("failed to encode observation: %w", err)
		}
		if err := wb.Set(makeKey(s.measurement, o.Field, o.Time), value); err != nil {
			return fmt.Errorf("failed to write observation: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to flush observations: %w", err)
	}
	return nil
}

// Query retrieves observations matching the request. Keys are ordered by
// series then time, so each requested field is a single bounded seek.
func (s *Snapshot) Query(ctx context.Context, req storage.QueryRequest) ([]health.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	measurement := req.Measurement
	if measurement == "" {
		measurement = s.measurement
	}

	var raw []health.Observation
	err := s.db.View(func(txn *badger.Txn) error {
		for _, field := range req.FieldSet() {
			prefix := seriesPrefix(measurement, field)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchSize = 100

			it := txn.NewIterator(opts)
			var iterCount int
			for it.Seek(makeKey(measurement, field, req.Start)); it.ValidForPrefix(prefix); it.Next() {
				iterCount++
				if iterCount%1000 == 0 {
					if err := ctx.Err(); err != nil {
						it.Close()
						return err
					}
				}

				_, ts := parseKey(it.Item().Key())
				if !ts.Before(req.Stop) {
					break
				}

				var rec record
				if err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &rec)
				}); err != nil {
					it.Close()
					return fmt.Errorf("failed to decode observation: %w", err)
				}
				raw = append(raw, rec.Observation)
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Range and fields are already narrowed; Apply adds aggregation and validity
	return storage.Apply(raw, req), nil
}

// Stats returns snapshot statistics
func (s *Snapshot) Stats(ctx context.Context) (*storage.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &storage.Stats{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		series := make(map[uint64]bool)
		for it.Rewind(); it.Valid(); it.Next() {
			stats.TotalObservations++

			hash, ts := parseKey(it.Item().Key())
			series[hash] = true

			if stats.Oldest.IsZero() || ts.Before(stats.Oldest) {
				stats.Oldest = ts
			}
			if stats.Newest.IsZero() || ts.After(stats.Newest) {
				stats.Newest = ts
			}
		}
		stats.TotalSeries = uint64(len(series))
		return nil
	})
	if err != nil {
		return nil, err
	}

	lsmSize, vlogSize := s.db.Size()
	stats.SizeBytes = uint64(lsmSize + vlogSize)
	return stats, nil
}

// RunGC runs BadgerDB's value log garbage collection until no file is left
// to rewrite. Nothing to reclaim is not an error.
func (s *Snapshot) RunGC(discardRatio float64) error {
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Close shuts down BadgerDB cleanly
func (s *Snapshot) Close() error {
	return s.db.Close()
}

// seriesPrefix hashes measurement and field into the 8-byte key prefix
func seriesPrefix(measurement string, field health.Field) []byte {
	prefix := make([]byte, 8)
	binary.BigEndian.PutUint64(prefix, xxhash.Sum64String(measurement+"/"+string(field)))
	return prefix
}

// makeKey creates a sortable key: series hash + timestamp
// Format: [series_hash (8 bytes)][unix nanos (8 bytes)]
func makeKey(measurement string, field health.Field, ts time.Time) []byte {
	key := make([]byte, 16)
	copy(key[0:8], seriesPrefix(measurement, field))
	binary.BigEndian.PutUint64(key[8:16], uint64(ts.UnixNano()))
	return key
}

// parseKey extracts the series hash and timestamp from a storage key
func parseKey(key []byte) (uint64, time.Time) {
	hash := binary.BigEndian.Uint64(key[0:8])
	tsNano := binary.BigEndian.Uint64(key[8:16])
	return hash, time.Unix(0, int64(tsNano)).UTC()
}
