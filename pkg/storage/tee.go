package storage

import (
	"context"
	"fmt"

	"github.com/nicktill/healthexport/pkg/health"
)

// Tee is a Source that records every successful result into a Recorder
// before returning it
type Tee struct {
	src Source
	rec Recorder
}

// NewTee wraps src so its results are also written to rec
func NewTee(src Source, rec Recorder) *Tee {
	return &Tee{src: src, rec: rec}
}

// Query forwards to the wrapped source and records the result
func (t *Tee) Query(ctx context.Context, req QueryRequest) ([]health.Observation, error) {
	obs, err := t.src.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(obs) > 0 {
		if err := t.rec.Write(ctx, obs); err != nil {
			return nil, fmt.Errorf("failed to record observations: %w", err)
		}
	}
	return obs, nil
}

// Close closes the wrapped source. The recorder is owned by the caller.
func (t *Tee) Close() error {
	return t.src.Close()
}
