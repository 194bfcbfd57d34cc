package memory

import (
	"context"
	"sync"

	"github.com/nicktill/healthexport/pkg/health"
	"github.com/nicktill/healthexport/pkg/storage"
)

// Source holds observations in memory. Data is lost on exit.
// Useful for testing and dry runs.
type Source struct {
	series map[string][]health.Observation // keyed by measurement
	mu     sync.RWMutex
}

// New creates an in-memory source
func New() *Source {
	return &Source{
		series: make(map[string][]health.Observation),
	}
}

// Write stores observations under a measurement
func (s *Source) Write(ctx context.Context, measurement string, obs []health.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.series[measurement] = append(s.series[measurement], obs...)
	return nil
}

// Query retrieves observations matching the request
func (s *Source) Query(ctx context.Context, req storage.QueryRequest) ([]health.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return storage.Apply(s.series[req.Measurement], req), nil
}

// Len returns the number of stored observations
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	for _, obs := range s.series {
		n += len(obs)
	}
	return n
}

// Close is a no-op for the memory source
func (s *Source) Close() error {
	return nil
}
