package figmadl

import "context"

// NoopMetricsProvider is a provider that does nothing.
// Used when metrics are disabled in configuration.
type NoopMetricsProvider struct{}

// NewNoopMetricsProvider creates a new NoopMetricsProvider instance.
func NewNoopMetricsProvider() *NoopMetricsProvider {
	return &NoopMetricsProvider{}
}

// RecordRequest does nothing.
func (n *NoopMetricsProvider) RecordRequest(_ context.Context, _, _ string, _, _ bool) {}

// RecordDuration does nothing.
func (n *NoopMetricsProvider) RecordDuration(_ context.Context, _ float64, _, _ string, _ int) {}

// RecordRetry does nothing.
func (n *NoopMetricsProvider) RecordRetry(_ context.Context, _, _ string) {}

// RecordRateLimitWait does nothing.
func (n *NoopMetricsProvider) RecordRateLimitWait(_ context.Context, _ float64, _ string) {}

// RecordBatch does nothing.
func (n *NoopMetricsProvider) RecordBatch(_ context.Context, _ int) {}

// RecordDownload does nothing.
func (n *NoopMetricsProvider) RecordDownload(_ context.Context, _ string, _ int64) {}

// InflightInc does nothing.
func (n *NoopMetricsProvider) InflightInc(_ context.Context, _ string) {}

// InflightDec does nothing.
func (n *NoopMetricsProvider) InflightDec(_ context.Context, _ string) {}

// Close returns nil.
func (n *NoopMetricsProvider) Close() error {
	return nil
}
