package figmadl

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// otelInstruments contains a set of OpenTelemetry instruments.
type otelInstruments struct {
	requests      metric.Int64Counter
	retries       metric.Int64Counter
	duration      metric.Float64Histogram
	rateLimitWait metric.Float64Histogram
	batches       metric.Int64Counter
	downloads     metric.Int64Counter
	downloadSize  metric.Float64Histogram
	inflight      metric.Int64UpDownCounter
}

// globalOtelInstruments caches instruments by MeterProvider.
var globalOtelInstruments sync.Map // map[string]*otelInstruments

// OpenTelemetryMetricsProvider is a provider for collecting metrics via OpenTelemetry.
type OpenTelemetryMetricsProvider struct {
	clientName string
	inst       *otelInstruments
}

// NewOpenTelemetryMetricsProvider creates a new OpenTelemetry metrics provider.
func NewOpenTelemetryMetricsProvider(clientName string, mp metric.MeterProvider) *OpenTelemetryMetricsProvider {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	// Use MeterProvider address as cache key
	providerKey := fmt.Sprintf("%p", mp)

	inst, exists := globalOtelInstruments.Load(providerKey)
	if !exists {
		meter := mp.Meter("github.com/Larryzhang-S/figma-dl")

		requests, _ := meter.Int64Counter(
			MetricRequestsTotal,
			metric.WithDescription("Total number of outbound Figma client requests"),
		)

		retries, _ := meter.Int64Counter(
			MetricRetriesTotal,
			metric.WithDescription("Total number of Figma client retries"),
		)

		duration, _ := meter.Float64Histogram(
			MetricRequestDuration,
			metric.WithDescription("Figma client request duration in seconds"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(DefaultDurationBuckets...),
		)

		rateLimitWait, _ := meter.Float64Histogram(
			MetricRateLimitWait,
			metric.WithDescription("Time spent waiting for the request quota in seconds"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(DefaultDurationBuckets...),
		)

		batches, _ := meter.Int64Counter(
			MetricBatchesTotal,
			metric.WithDescription("Total number of image URL resolution batches"),
		)

		downloads, _ := meter.Int64Counter(
			MetricDownloadsTotal,
			metric.WithDescription("Total number of finished image downloads"),
		)

		downloadSize, _ := meter.Float64Histogram(
			MetricDownloadSizeBytes,
			metric.WithDescription("Downloaded image size in bytes"),
			metric.WithUnit("By"),
			metric.WithExplicitBucketBoundaries(DefaultSizeBuckets...),
		)

		inflight, _ := meter.Int64UpDownCounter(
			MetricInflightRequests,
			metric.WithDescription("Number of Figma client requests currently in-flight"),
		)

		newInst := &otelInstruments{
			requests:      requests,
			retries:       retries,
			duration:      duration,
			rateLimitWait: rateLimitWait,
			batches:       batches,
			downloads:     downloads,
			downloadSize:  downloadSize,
			inflight:      inflight,
		}

		globalOtelInstruments.Store(providerKey, newInst)
		inst = newInst
	}

	return &OpenTelemetryMetricsProvider{
		clientName: clientName,
		inst:       inst.(*otelInstruments),
	}
}

// RecordRequest records a request metric.
func (o *OpenTelemetryMetricsProvider) RecordRequest(ctx context.Context, endpoint, status string, retry, hasError bool) {
	o.inst.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client_name", o.clientName),
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
		attribute.Bool("retry", retry),
		attribute.Bool("error", hasError),
	))
}

// RecordDuration records a request duration.
func (o *OpenTelemetryMetricsProvider) RecordDuration(ctx context.Context, seconds float64, endpoint, status string, attempt int) {
	o.inst.duration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("client_name", o.clientName),
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
		attribute.Int("attempt", attempt),
	))
}

// RecordRetry records a retry metric.
func (o *OpenTelemetryMetricsProvider) RecordRetry(ctx context.Context, reason, endpoint string) {
	o.inst.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client_name", o.clientName),
		attribute.String("reason", reason),
		attribute.String("endpoint", endpoint),
	))
}

// RecordRateLimitWait records the time spent waiting for the request quota.
func (o *OpenTelemetryMetricsProvider) RecordRateLimitWait(ctx context.Context, seconds float64, endpoint string) {
	o.inst.rateLimitWait.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("client_name", o.clientName),
		attribute.String("endpoint", endpoint),
	))
}

// RecordBatch records a processed URL resolution batch.
func (o *OpenTelemetryMetricsProvider) RecordBatch(ctx context.Context, size int) {
	o.inst.batches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client_name", o.clientName),
		attribute.Int("size", size),
	))
}

// RecordDownload records a finished download.
func (o *OpenTelemetryMetricsProvider) RecordDownload(ctx context.Context, result string, bytes int64) {
	o.inst.downloads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client_name", o.clientName),
		attribute.String("result", result),
	))
	if bytes > 0 {
		o.inst.downloadSize.Record(ctx, float64(bytes), metric.WithAttributes(
			attribute.String("client_name", o.clientName),
		))
	}
}

// InflightInc increments the in-flight request counter.
func (o *OpenTelemetryMetricsProvider) InflightInc(ctx context.Context, endpoint string) {
	o.inst.inflight.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client_name", o.clientName),
		attribute.String("endpoint", endpoint),
	))
}

// InflightDec decrements the in-flight request counter.
func (o *OpenTelemetryMetricsProvider) InflightDec(ctx context.Context, endpoint string) {
	o.inst.inflight.Add(ctx, -1, metric.WithAttributes(
		attribute.String("client_name", o.clientName),
		attribute.String("endpoint", endpoint),
	))
}

// Close releases provider resources.
func (o *OpenTelemetryMetricsProvider) Close() error {
	return nil
}
