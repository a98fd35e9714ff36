// Package telemetry wires structured logging, tracing and metrics for the
// widget. Everything is written to rotating files under the user cache
// directory; a desktop app has no console to log to.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const serviceVersion = "1.0.0"

// InitLogger initializes structured logging with rotation.
func InitLogger(appName string) (*slog.Logger, error) {
	logDir, err := resolveLogDir(appName)
	if err != nil {
		return nil, err
	}

	lumberjackLogger := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "cubetimer.log"),
		MaxSize:    10, // 10 MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	// Log only to file, not to stdout
	handler := slog.NewJSONHandler(lumberjackLogger, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}

// InitTelemetry initializes OpenTelemetry tracing and metrics.
// Traces land in <cache>/<app>/logs/cubetimer_traces.log, metrics in
// cubetimer_metrics.log (flushed every 10 seconds).
func InitTelemetry(ctx context.Context, appName string) (trace.Tracer, metric.Meter, func(), error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("cubetimer"),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	logDir, err := resolveLogDir(appName)
	if err != nil {
		return nil, nil, nil, err
	}

	traceFile := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "cubetimer_traces.log"),
		MaxSize:    10, // 10 MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	traceExporter, err := stdouttrace.New(
		stdouttrace.WithWriter(traceFile),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricsFile := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "cubetimer_metrics.log"),
		MaxSize:    10, // 10 MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	metricExporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(metricsFile),
		stdoutmetric.WithPrettyPrint(),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				metricExporter,
				sdkmetric.WithInterval(10*time.Second),
			),
		),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	tracer := tp.Tracer("cubetimer")
	meter := mp.Meter("cubetimer")

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer provider", "error", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown meter provider", "error", err)
		}
		if err := traceFile.Close(); err != nil {
			slog.Error("failed to close trace file", "error", err)
		}
		if err := metricsFile.Close(); err != nil {
			slog.Error("failed to close metrics file", "error", err)
		}
	}

	return tracer, meter, cleanup, nil
}

// Instruments bundles the counters the widget records while solving.
// The zero value is usable and drops every observation, so callers do not
// have to care whether metric setup succeeded.
type Instruments struct {
	SolvesRecorded metric.Int64Counter
	WriteFailures  metric.Int64Counter
	SolveDuration  metric.Float64Histogram
}

// RecordSolve counts one completed solve and observes its duration.
func (instruments Instruments) RecordSolve(ctx context.Context, seconds float64) {
	if instruments.SolvesRecorded != nil {
		instruments.SolvesRecorded.Add(ctx, 1)
	}
	if instruments.SolveDuration != nil {
		instruments.SolveDuration.Record(ctx, seconds)
	}
}

// RecordWriteFailure counts one measurement write that never reached the
// database.
func (instruments Instruments) RecordWriteFailure(ctx context.Context) {
	if instruments.WriteFailures != nil {
		instruments.WriteFailures.Add(ctx, 1)
	}
}

// NewInstruments registers the widget's instruments on meter.
func NewInstruments(meter metric.Meter) (Instruments, error) {
	solves, err := meter.Int64Counter("solves.recorded",
		metric.WithDescription("Completed solves handed to the recorder"))
	if err != nil {
		return Instruments{}, fmt.Errorf("failed to create solves counter: %w", err)
	}

	failures, err := meter.Int64Counter("recorder.write.failures",
		metric.WithDescription("Measurement writes that did not reach the database"))
	if err != nil {
		return Instruments{}, fmt.Errorf("failed to create failures counter: %w", err)
	}

	duration, err := meter.Float64Histogram("solve.duration",
		metric.WithDescription("Solve duration"),
		metric.WithUnit("s"))
	if err != nil {
		return Instruments{}, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return Instruments{
		SolvesRecorded: solves,
		WriteFailures:  failures,
		SolveDuration:  duration,
	}, nil
}

func resolveLogDir(appName string) (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache directory: %w", err)
	}

	logDir := filepath.Join(cacheDir, appName, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}
	return logDir, nil
}
