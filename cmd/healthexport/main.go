package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nicktill/healthexport/pkg/config"
	"github.com/nicktill/healthexport/pkg/export"
	"github.com/nicktill/healthexport/pkg/logger"
	"github.com/nicktill/healthexport/pkg/storage"
	"github.com/nicktill/healthexport/pkg/storage/badger"
	"github.com/nicktill/healthexport/pkg/storage/influx"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2

	// Queries block until InfluxDB answers; only SIGINT/SIGTERM interrupt them
	influxHTTPTimeout = 0

	// Value log files with at least this fraction of stale entries are rewritten
	snapshotGCDiscardRatio = 0.5
)

// influxURL is the endpoint queried; tests point it at a fake server
var influxURL = config.InfluxURL

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one extraction and returns the process exit code
func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitConfigError
	}
	cfg.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitConfigError
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, config.ServiceName)
	if err != nil {
		fmt.Fprintln(stderr, "Error: failed to create logger:", err)
		return exitConfigError
	}
	defer func() { _ = log.Sync() }()

	log = log.With(zap.String("run_id", uuid.NewString()))

	src, closeSource, err := openSource(cfg, log)
	if err != nil {
		log.Error("failed to open source", zap.Error(err))
		return exitFailure
	}
	defer closeSource()

	log.Info("starting extraction",
		zap.Int("days", cfg.Days),
		zap.Int("day_interval", cfg.DayInterval),
		zap.Bool("single_shot", cfg.SingleShot),
		zap.Stringer("aggregate", cfg.Aggregation()),
		zap.String("variant", string(cfg.Variant())),
		zap.String("output", cfg.Output))

	result, err := export.NewExporter(src, log).Export(ctx, export.ExportOptions{
		Days:        cfg.Days,
		DayInterval: cfg.DayInterval,
		SingleShot:  cfg.SingleShot,
		Aggregate:   cfg.Aggregation(),
		Variant:     cfg.Variant(),
		Location:    cfg.Location(),
		Bucket:      config.InfluxBucket,
		Measurement: config.InfluxMeasurement,
		Output:      cfg.Output,
	})
	if err != nil {
		log.Error("extraction failed", zap.Error(err))
		return exitFailure
	}

	log.Info("extraction complete",
		zap.Int("windows", result.Windows),
		zap.Int("empty_windows", result.EmptyWindows),
		zap.Int("observations", result.Observations),
		zap.Int("rows_written", result.RowsWritten),
		zap.Duration("duration", result.Duration))
	return exitOK
}

// parseFlags reads the command line into a config
func parseFlags(args []string, stderr io.Writer) (config.Config, error) {
	cfg := config.Default()

	fs := pflag.NewFlagSet("healthexport", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.Days, "days", cfg.Days, "Number of days to look back")
	fs.IntVar(&cfg.DayInterval, "day_interval", cfg.DayInterval, "Days fetched per query (0 = whole look-back in one query)")
	fs.StringVar(&cfg.Aggregate, "aggregate", cfg.Aggregate, "Mean aggregation window: 1m, 5m, 10m, 30m, 1h (empty = raw samples)")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Output CSV path")
	fs.BoolVar(&cfg.SingleShot, "single_shot", cfg.SingleShot, "Fetch the whole look-back in one query and overwrite the output")
	fs.BoolVar(&cfg.Calendar, "calendar", cfg.Calendar, "Include year, day_of_year and day_of_week columns")
	fs.StringVar(&cfg.Timezone, "timezone", cfg.Timezone, "IANA timezone row keys are derived in")
	fs.StringVar(&cfg.SnapshotDir, "snapshot_dir", cfg.SnapshotDir, "Record fetched observations into a local snapshot at this path")
	fs.StringVar(&cfg.ReplayDir, "replay_dir", cfg.ReplayDir, "Read observations from a local snapshot instead of InfluxDB")
	fs.StringVar(&cfg.LogLevel, "log_level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log_format", cfg.LogFormat, "Log format: console or json")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, nil
}

// openSource selects where observations come from: a snapshot replay, or
// InfluxDB optionally teed into a new snapshot. The returned func releases
// everything that was opened.
func openSource(cfg config.Config, log *zap.Logger) (storage.Source, func(), error) {
	if cfg.ReplayDir != "" {
		snap, err := badger.New(badger.Config{Path: cfg.ReplayDir, Measurement: config.InfluxMeasurement})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open replay snapshot: %w", err)
		}
		log.Info("replaying snapshot", zap.String("path", cfg.ReplayDir))
		return snap, func() { closeLogged(log, "snapshot", snap) }, nil
	}

	if cfg.Token == "" {
		log.Warn("no InfluxDB token set", zap.String("env", config.InfluxTokenEnv))
	}
	src := influx.New(influx.Config{
		URL:         influxURL,
		Token:       cfg.Token,
		Org:         config.InfluxOrg,
		HTTPTimeout: influxHTTPTimeout,
	}, log)

	if cfg.SnapshotDir == "" {
		return src, func() { closeLogged(log, "influx", src) }, nil
	}

	snap, err := badger.New(badger.Config{Path: cfg.SnapshotDir, Measurement: config.InfluxMeasurement})
	if err != nil {
		_ = src.Close()
		return nil, nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	log.Info("recording snapshot", zap.String("path", cfg.SnapshotDir))

	tee := storage.NewTee(src, snap)
	return tee, func() {
		closeLogged(log, "influx", tee)
		if stats, err := snap.Stats(context.Background()); err == nil {
			log.Info("snapshot recorded",
				zap.Uint64("observations", stats.TotalObservations),
				zap.Uint64("series", stats.TotalSeries),
				zap.Uint64("size_bytes", stats.SizeBytes))
		}
		if err := snap.RunGC(snapshotGCDiscardRatio); err != nil {
			log.Warn("snapshot garbage collection failed", zap.Error(err))
		}
		closeLogged(log, "snapshot", snap)
	}, nil
}

func closeLogged(log *zap.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+name, zap.Error(err))
	}
}
