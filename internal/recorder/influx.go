package recorder

import (
	"context"
	"errors"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"cubetimer/internal/core/model"
)

const (
	// DefaultMeasurement is the measurement name solves are written under.
	DefaultMeasurement = "solving_time"

	// DefaultTimeout bounds a single write or ping.
	DefaultTimeout = 5 * time.Second

	tagCube           = "cube"
	fieldRecordedTime = "recorded_time"
)

// Config carries the InfluxDB 2.x connection parameters.
type Config struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
	Timeout     time.Duration
}

// Complete reports whether every parameter needed to reach a bucket is set.
func (config Config) Complete() bool {
	return strings.TrimSpace(config.URL) != "" &&
		strings.TrimSpace(config.Token) != "" &&
		strings.TrimSpace(config.Org) != "" &&
		strings.TrimSpace(config.Bucket) != ""
}

// Influx writes one point per solve to an InfluxDB 2.x bucket using the
// blocking write API. Solves are rare events, so there is nothing to batch.
type Influx struct {
	client      influxdb2.Client
	writer      api.WriteAPIBlocking
	measurement string
	timeout     time.Duration
}

// NewInflux builds a recorder from config. The connection is lazy; use Ping
// to verify the endpoint is actually reachable.
func NewInflux(config Config) *Influx {
	measurement := config.Measurement
	if measurement == "" {
		measurement = DefaultMeasurement
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := influxdb2.NewClient(config.URL, config.Token)
	return &Influx{
		client:      client,
		writer:      client.WriteAPIBlocking(config.Org, config.Bucket),
		measurement: measurement,
		timeout:     timeout,
	}
}

func (recorder *Influx) Record(ctx context.Context, measurement model.Measurement) error {
	ctx, cancel := context.WithTimeout(ctx, recorder.timeout)
	defer cancel()

	return recorder.writer.WritePoint(ctx, recorder.point(measurement))
}

func (recorder *Influx) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, recorder.timeout)
	defer cancel()

	reachable, err := recorder.client.Ping(ctx)
	if err != nil {
		return err
	}
	if !reachable {
		return errors.New("recorder: influxdb did not answer ping")
	}
	return nil
}

func (recorder *Influx) Close() {
	recorder.client.Close()
}

func (recorder *Influx) point(measurement model.Measurement) *write.Point {
	return influxdb2.NewPoint(
		recorder.measurement,
		map[string]string{tagCube: measurement.Cube},
		map[string]interface{}{fieldRecordedTime: measurement.Elapsed},
		measurement.At,
	)
}
