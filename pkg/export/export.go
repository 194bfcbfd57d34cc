package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nicktill/healthexport/pkg/health"
	"github.com/nicktill/healthexport/pkg/reassemble"
	"github.com/nicktill/healthexport/pkg/storage"
	"github.com/nicktill/healthexport/pkg/window"
	"go.uber.org/zap"
)

// ErrInvalidDays is returned when the look-back covers no whole day
var ErrInvalidDays = errors.New("days must be at least 1")

// Exporter runs the extraction pipeline: plan windows, query each one,
// reassemble rows and append them to the output
type Exporter struct {
	source storage.Source
	logger *zap.Logger
}

// NewExporter creates a new exporter
func NewExporter(src storage.Source, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{source: src, logger: logger}
}

// ExportOptions configures the export operation
type ExportOptions struct {
	// Look-back in days and chunk size in days (0 = one window)
	Days        int
	DayInterval int

	// SingleShot fetches the whole look-back in one window and recreates
	// the output instead of appending to it
	SingleShot bool

	// Mean aggregation applied by the source
	Aggregate storage.Aggregation

	// Row key and column layout
	Variant health.Variant

	// Location row keys are derived in (nil = UTC)
	Location *time.Location

	// Source selection
	Bucket      string
	Measurement string

	// Output CSV path
	Output string

	// Now anchors every window of the run (zero = time.Now())
	Now time.Time
}

// ExportResult contains stats about the export
type ExportResult struct {
	Output       string        `json:"output"`
	Windows      int           `json:"windows"`
	EmptyWindows int           `json:"empty_windows"`
	Observations int           `json:"observations"`
	RowsWritten  int           `json:"rows_written"`
	Duration     time.Duration `json:"duration"`
}

// Export processes every window in chronological order. Each window is
// fetched, reassembled and flushed before the next is requested. An error
// aborts the remaining windows; rows already appended stay in the file.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	if opts.Days < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidDays, opts.Days)
	}

	schema, err := health.SchemaFor(opts.Variant)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	windows := window.Plan(opts.Days, opts.DayInterval)
	mode := ModeAppend
	if opts.SingleShot {
		windows = func(yield func(window.Window) bool) { yield(window.Single(opts.Days)) }
		mode = ModeCreate
	}
	sink := NewSink(opts.Output, schema, mode)

	started := time.Now()
	result := &ExportResult{Output: opts.Output}

	for w := range windows {
		obs, written, err := e.exportWindow(ctx, w, now, sink, opts)
		if err != nil {
			return result, err
		}

		result.Windows++
		result.Observations += obs
		result.RowsWritten += written

		if written == 0 {
			result.EmptyWindows++
			e.logger.Info(fmt.Sprintf("No valid data found for range %s.", w),
				zap.Stringer("mode", mode),
				zap.Int("observations", obs))
			continue
		}
		e.logger.Info(fmt.Sprintf("Data from %s successfully %s to %s", w, verb(mode), opts.Output),
			zap.Stringer("mode", mode),
			zap.Int("rows", written),
			zap.Int("observations", obs))
	}

	result.Duration = time.Since(started)
	return result, nil
}

// exportWindow runs one fetch-reassemble-write cycle and returns the number
// of observations read and rows written
func (e *Exporter) exportWindow(ctx context.Context, w window.Window, now time.Time, sink *Sink, opts ExportOptions) (int, int, error) {
	r := w.Range(now)
	req := storage.QueryRequest{
		Start:       r.Start,
		Stop:        r.Stop,
		Bucket:      opts.Bucket,
		Measurement: opts.Measurement,
		Fields:      health.Fields,
		Aggregate:   opts.Aggregate,
	}

	e.logger.Debug("fetching window",
		zap.Stringer("window", w),
		zap.Time("start", r.Start),
		zap.Time("stop", r.Stop),
		zap.Stringer("aggregate", opts.Aggregate))

	obs, err := e.source.Query(ctx, req)
	if err != nil {
		return 0, 0, fmt.Errorf("query window %s: %w", w, err)
	}

	rows := reassemble.Reassemble(opts.Variant, opts.Location, obs)

	written, err := sink.Write(rows)
	if err != nil {
		return len(obs), 0, fmt.Errorf("write window %s: %w", w, err)
	}
	return len(obs), written, nil
}

func verb(m Mode) string {
	if m == ModeCreate {
		return "written"
	}
	return "appended"
}
