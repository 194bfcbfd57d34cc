package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	apiquery "github.com/influxdata/influxdb-client-go/v2/api/query"
	"github.com/nicktill/healthexport/pkg/health"
	"github.com/nicktill/healthexport/pkg/query"
	"github.com/nicktill/healthexport/pkg/storage"
	"go.uber.org/zap"
)

// Source reads observations from InfluxDB 2.x through the Flux query API
type Source struct {
	client influxdb2.Client
	api    api.QueryAPI
	logger *zap.Logger
}

// Config holds connection settings
type Config struct {
	URL   string
	Token string
	Org   string

	// HTTPTimeout bounds each query in seconds (0 = wait for the server)
	HTTPTimeout uint
}

// New creates an InfluxDB source. No request is made until the first query,
// so an unreachable server or a rejected token surfaces from Query.
func New(cfg Config, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().SetHTTPRequestTimeout(cfg.HTTPTimeout),
	)
	return &Source{
		client: client,
		api:    client.QueryAPI(cfg.Org),
		logger: logger,
	}
}

// Query renders the request as Flux, executes it and flattens the result
// tables into observations in the order the server streams them
func (s *Source) Query(ctx context.Context, req storage.QueryRequest) ([]health.Observation, error) {
	flux, err := query.Build(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	s.logger.Debug("executing flux query", zap.String("query", flux))

	t0 := time.Now()
	result, err := s.api.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("influx query failed: %w", err)
	}
	defer result.Close()

	var obs []health.Observation
	for result.Next() {
		o, err := toObservation(result.Record())
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query result: %w", err)
	}

	s.logger.Debug("query completed",
		zap.Int("observations", len(obs)),
		zap.Duration("elapsed", time.Since(t0)))
	return obs, nil
}

// Close releases the client's idle connections
func (s *Source) Close() error {
	s.client.Close()
	return nil
}

// toObservation converts one Flux record. Integer fields are widened to
// float64; a null _value becomes an absent observation.
func toObservation(rec *apiquery.FluxRecord) (health.Observation, error) {
	o := health.Observation{
		Time:  rec.Time(),
		Field: health.Field(rec.Field()),
	}
	switch v := rec.Value().(type) {
	case nil:
	case float64:
		o.Value = health.Float(v)
	case int64:
		o.Value = health.Float(float64(v))
	case uint64:
		o.Value = health.Float(float64(v))
	default:
		return o, fmt.Errorf("error casting table value: %s - %v (%T)", rec.Field(), v, v)
	}
	return o, nil
}
