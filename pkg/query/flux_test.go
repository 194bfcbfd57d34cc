package query

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nicktill/healthexport/pkg/health"
	"github.com/nicktill/healthexport/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	stop  = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	start = stop.Add(-24 * time.Hour)
)

func request(agg storage.Aggregation) storage.QueryRequest {
	return storage.QueryRequest{
		Start:       start,
		Stop:        stop,
		Bucket:      "health_data",
		Measurement: "Health",
		Aggregate:   agg,
	}
}

func TestBuild_Raw(t *testing.T) {
	q, err := Build(request(storage.AggregateNone))
	require.NoError(t, err)

	want := `from(bucket: "health_data")
  |> range(start: 2024-03-09T12:00:00Z, stop: 2024-03-10T12:00:00Z)
  |> filter(fn: (r) => r._measurement == "Health")
  |> filter(fn: (r) => r._field == "bpm" or r._field == "movement" or r._field == "pi" or r._field == "spo2")
  |> filter(fn: (r) => (r._field != "bpm" or r._value > 0) and (r._field != "spo2" or r._value > 0))
`
	assert.Equal(t, want, q)
	assert.NotContains(t, q, "aggregateWindow")
}

func TestBuild_Aggregated(t *testing.T) {
	for _, agg := range []storage.Aggregation{
		storage.Aggregate1m, storage.Aggregate5m, storage.Aggregate10m, storage.Aggregate30m, storage.Aggregate1h,
	} {
		t.Run(agg.String(), func(t *testing.T) {
			q, err := Build(request(agg))
			require.NoError(t, err)
			assert.Contains(t, q, "|> aggregateWindow(every: "+string(agg)+", fn: mean)")

			// The positivity filter still follows the aggregation
			aggAt := strings.Index(q, "aggregateWindow")
			filterAt := strings.Index(q, `(r._field != "bpm" or r._value > 0)`)
			assert.Greater(t, filterAt, aggAt)
		})
	}
}

func TestBuild_FieldSubset(t *testing.T) {
	req := request(storage.AggregateNone)
	req.Fields = []health.Field{health.PI}

	q, err := Build(req)
	require.NoError(t, err)
	assert.Contains(t, q, `|> filter(fn: (r) => r._field == "pi")`)
}

func TestBuild_QuotesNames(t *testing.T) {
	req := request(storage.AggregateNone)
	req.Measurement = `He"alth`

	q, err := Build(req)
	require.NoError(t, err)
	assert.Contains(t, q, `r._measurement == "He\"alth"`)
}

func TestBuild_InvalidRequests(t *testing.T) {
	req := request(storage.AggregateNone)
	req.Bucket = ""
	_, err := Build(req)
	assert.True(t, errors.Is(err, ErrMissingBucket))

	req = request(storage.AggregateNone)
	req.Start, req.Stop = req.Stop, req.Start
	_, err = Build(req)
	assert.True(t, errors.Is(err, ErrEmptyRange))
}
