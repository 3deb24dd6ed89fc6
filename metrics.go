package figmadl

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics содержит конфигурацию метрик для конкретного клиента.
type Metrics struct {
	clientName string
	enabled    bool
	provider   MetricsProvider
}

// NewMetrics создаёт новый экземпляр метрик с Prometheus провайдером по умолчанию.
func NewMetrics(clientName string) *Metrics {
	provider := NewPrometheusMetricsProvider(clientName, nil)
	return &Metrics{
		clientName: clientName,
		enabled:    true,
		provider:   provider,
	}
}

// NewDisabledMetrics создаёт экземпляр метрик с выключенным сбором.
func NewDisabledMetrics(clientName string) *Metrics {
	return &Metrics{
		clientName: clientName,
		enabled:    false,
		provider:   NewNoopMetricsProvider(),
	}
}

// NewMetricsWithProvider создаёт экземпляр метрик с указанным провайдером.
// Используется внутренне клиентом для выбора провайдера.
func NewMetricsWithProvider(clientName string, provider MetricsProvider) *Metrics {
	// Метрики считаются включенными, если провайдер не noop
	enabled := provider != nil
	if noop, ok := provider.(*NoopMetricsProvider); ok && noop != nil {
		enabled = false
	}
	return &Metrics{
		clientName: clientName,
		enabled:    enabled,
		provider:   provider,
	}
}

// RecordRequest записывает метрики для запроса.
func (m *Metrics) RecordRequest(ctx context.Context, endpoint, status string, retry, hasError bool) {
	if !m.enabled || m.provider == nil {
		return
	}
	m.provider.RecordRequest(ctx, endpoint, status, retry, hasError)
}

// RecordDuration записывает длительность запроса.
func (m *Metrics) RecordDuration(ctx context.Context, seconds float64, endpoint, status string, attempt int) {
	if !m.enabled || m.provider == nil {
		return
	}
	m.provider.RecordDuration(ctx, seconds, endpoint, status, attempt)
}

// RecordRetry записывает метрику retry.
func (m *Metrics) RecordRetry(ctx context.Context, reason, endpoint string) {
	if !m.enabled || m.provider == nil {
		return
	}
	m.provider.RecordRetry(ctx, reason, endpoint)
}

// RecordRateLimitWait записывает время ожидания квоты.
func (m *Metrics) RecordRateLimitWait(ctx context.Context, seconds float64, endpoint string) {
	if !m.enabled || m.provider == nil {
		return
	}
	m.provider.RecordRateLimitWait(ctx, seconds, endpoint)
}

// RecordBatch записывает метрику обработанной пачки.
func (m *Metrics) RecordBatch(ctx context.Context, size int) {
	if !m.enabled || m.provider == nil {
		return
	}
	m.provider.RecordBatch(ctx, size)
}

// RecordDownload записывает метрику завершённой загрузки.
func (m *Metrics) RecordDownload(ctx context.Context, result string, bytes int64) {
	if !m.enabled || m.provider == nil {
		return
	}
	m.provider.RecordDownload(ctx, result, bytes)
}

// IncrementInflight увеличивает счётчик активных запросов.
func (m *Metrics) IncrementInflight(ctx context.Context, endpoint string) {
	if !m.enabled || m.provider == nil {
		return
	}
	m.provider.InflightInc(ctx, endpoint)
}

// DecrementInflight уменьшает счётчик активных запросов.
func (m *Metrics) DecrementInflight(ctx context.Context, endpoint string) {
	if !m.enabled || m.provider == nil {
		return
	}
	m.provider.InflightDec(ctx, endpoint)
}

// Close освобождает ресурсы метрик.
func (m *Metrics) Close() error {
	if m.provider != nil {
		return m.provider.Close()
	}
	return nil
}

// GetDefaultMetricsRegistry возвращает глобальный Prometheus DefaultGatherer.
// Используется для создания HTTP обработчика метрик через promhttp.HandlerFor().
func GetDefaultMetricsRegistry() prometheus.Gatherer {
	return prometheus.DefaultGatherer
}
