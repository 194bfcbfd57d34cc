package storage

import (
	"sort"
	"time"

	"github.com/nicktill/healthexport/pkg/health"
)

// bucket stores a running mean for one field and time bucket
type bucket struct {
	field health.Field
	stop  time.Time
	sum   float64
	count uint64
}

func (b *bucket) average() float64 {
	if b.count == 0 {
		return 0
	}
	return b.sum / float64(b.count)
}

// Downsample replaces raw observations with per-field means over fixed windows.
//
// Windows are aligned to the Unix epoch and each mean is stamped with its
// window's stop time, clamped to the range stop, matching InfluxDB's
// aggregateWindow(fn: mean). Absent values are skipped and windows with no
// values are not emitted.
func Downsample(obs []health.Observation, every time.Duration, rangeStop time.Time) []health.Observation {
	if every <= 0 {
		return obs
	}

	type bucketKey struct {
		field health.Field
		start int64
	}
	buckets := make(map[bucketKey]*bucket)

	for _, o := range obs {
		if o.Value == nil {
			continue
		}
		start := o.Time.Truncate(every)
		key := bucketKey{field: o.Field, start: start.UnixNano()}

		b, exists := buckets[key]
		if !exists {
			stop := start.Add(every)
			if !rangeStop.IsZero() && stop.After(rangeStop) {
				stop = rangeStop
			}
			b = &bucket{field: o.Field, stop: stop}
			buckets[key] = b
		}
		b.sum += *o.Value
		b.count++
	}

	out := make([]health.Observation, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, health.Observation{
			Time:  b.stop,
			Field: b.field,
			Value: health.Float(b.average()),
		})
	}

	// Group by field then time, like the per-field tables influx returns
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field.Index() < out[j].Field.Index()
		}
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// Apply filters observations the way the Flux query does: half-open time
// range, requested fields, optional mean aggregation, then the validity
// predicate. Sources without a query engine share it so every backend returns
// the same rows for the same request.
func Apply(obs []health.Observation, req QueryRequest) []health.Observation {
	fields := req.FieldSet()
	selected := make([]health.Observation, 0, len(obs))
	for _, o := range obs {
		if o.Time.Before(req.Start) || !o.Time.Before(req.Stop) {
			continue
		}
		if !containsField(fields, o.Field) {
			continue
		}
		selected = append(selected, o)
	}

	if req.Aggregate.Enabled() {
		selected = Downsample(selected, req.Aggregate.Duration(), req.Stop)
	}

	results := selected[:0]
	for _, o := range selected {
		if o.Value != nil && !health.Valid(o.Field, *o.Value) {
			continue
		}
		results = append(results, o)
	}
	return results
}

func containsField(fields []health.Field, f health.Field) bool {
	for _, known := range fields {
		if known == f {
			return true
		}
	}
	return false
}
