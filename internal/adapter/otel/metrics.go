// Package otel provides OpenTelemetry metric instruments and HTTP
// instrumentation for toolrec.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "toolrec"

// Metrics holds all toolrec metric instruments.
type Metrics struct {
	Requests       metric.Int64Counter
	CacheHits      metric.Int64Counter
	CacheMisses    metric.Int64Counter
	SourceFailures metric.Int64Counter
	FusionDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Requests, err = meter.Int64Counter("toolrec.requests",
		metric.WithDescription("Number of recommendation requests"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("toolrec.cache.hits",
		metric.WithDescription("Number of response cache hits"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("toolrec.cache.misses",
		metric.WithDescription("Number of response cache misses"))
	if err != nil {
		return nil, err
	}

	m.SourceFailures, err = meter.Int64Counter("toolrec.source.failures",
		metric.WithDescription("Number of failed source fetches"))
	if err != nil {
		return nil, err
	}

	m.FusionDuration, err = meter.Float64Histogram("toolrec.fusion.duration_seconds",
		metric.WithDescription("Fusion pipeline duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
