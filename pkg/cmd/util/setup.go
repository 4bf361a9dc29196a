// Package util contains the setup steps shared by the commands.
package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/iracelog-sector-monitor/log"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/config"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/db/postgres"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/iracelog"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/utils"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// ParseDuration returns defaultVal for empty or invalid values
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn("Invalid duration value. Using default",
			log.String("value", s),
			log.Duration("default", defaultVal),
			log.ErrorField(err))
		return defaultVal
	}
	return d
}

// SetupLogger installs the default logger according to the log flags.
// The returned logger is meant for the sql tracer.
func SetupLogger() (sqlLogger *log.Logger, err error) {
	var w io.Writer = os.Stderr
	if config.LogFile != "" {
		w = log.RotatingFile(config.LogFile, 10)
	}
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	if config.LogFilter != "" {
		filter, err := log.WithFilter(config.LogFilter)
		if err != nil {
			return nil, fmt.Errorf("invalid log filter: %w", err)
		}
		opts = append(opts, filter)
	}
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(w, ParseLogLevel(config.LogLevel, log.InfoLevel), opts...)
		sqlLogger = log.New(w,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel), opts...)
	default:
		logger = log.DevLogger(w, ParseLogLevel(config.LogLevel, log.InfoLevel), opts...)
		sqlLogger = log.DevLogger(w,
			ParseLogLevel(config.SQLLogLevel, log.InfoLevel), opts...)
	}
	log.ResetDefault(logger)
	return sqlLogger.Named("sql"), nil
}

// SetupTelemetry starts otel providers and runtime metrics if enabled.
// Returns nil if telemetry is disabled or could not be set up.
func SetupTelemetry(ctx context.Context) *config.Telemetry {
	if !config.EnableTelemetry {
		return nil
	}
	log.Info("Enabling telemetry")
	telemetry, err := config.SetupTelemetry(ctx)
	if err != nil {
		log.Warn("Could not setup telemetry", log.ErrorField(err))
		return nil
	}
	err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
	if err != nil {
		log.Warn("Could not start runtime metrics", log.ErrorField(err))
	}
	return telemetry
}

// ConnectDB waits for the database and creates the connection pool.
func ConnectDB(ctx context.Context, sqlLogger *log.Logger) (*pgxpool.Pool, error) {
	timeout := ParseDuration(config.WaitForServices, 15*time.Second)
	if addr := utils.ExtractFromDBURL(config.DB); addr != "" {
		if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
			return nil, fmt.Errorf("database not ready: %w", err)
		}
	}
	pgTraceOption := postgres.WithTracer(sqlLogger, log.DebugLevel)
	if config.EnableTelemetry {
		pgTraceOption = postgres.WithOtlpTracer()
	}
	return postgres.InitWithURL(ctx, config.DB, pgTraceOption)
}

// ConnectIracelog waits for the iracelog server and creates a client for it.
func ConnectIracelog(ctx context.Context) (*iracelog.Client, error) {
	if addr := utils.ExtractFromHTTPURL(config.IracelogAddr); addr != "" {
		timeout := ParseDuration(config.WaitForServices, 15*time.Second)
		if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
			return nil, fmt.Errorf("iracelog server not ready: %w", err)
		}
	}
	return iracelog.New(config.IracelogAddr,
		iracelog.WithToken(config.IracelogToken),
		iracelog.WithTelemetry(config.EnableTelemetry)), nil
}
