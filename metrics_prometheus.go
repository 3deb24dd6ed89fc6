package figmadl

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// prometheusGlobalMetrics содержит глобальные векторы метрик Prometheus.
type prometheusGlobalMetrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RetriesTotal     *prometheus.CounterVec
	RateLimitWait    *prometheus.HistogramVec
	BatchesTotal     *prometheus.CounterVec
	DownloadsTotal   *prometheus.CounterVec
	DownloadSize     *prometheus.HistogramVec
	InflightRequests *prometheus.GaugeVec
}

// globalPrometheusMetrics кеширует зарегистрированные метрики по регистратору.
var globalPrometheusMetrics sync.Map // map[string]*prometheusGlobalMetrics

// PrometheusMetricsProvider - провайдер для сбора метрик через Prometheus.
type PrometheusMetricsProvider struct {
	clientName string
	metrics    *prometheusGlobalMetrics
}

// NewPrometheusMetricsProvider создает новый провайдер метрик Prometheus.
func NewPrometheusMetricsProvider(clientName string, reg prometheus.Registerer) *PrometheusMetricsProvider {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	// Используем адрес регистратора как ключ кеша
	registryKey := fmt.Sprintf("%p", reg)

	metrics, exists := globalPrometheusMetrics.Load(registryKey)
	if !exists {
		// Создаем и регистрируем метрики
		newMetrics := &prometheusGlobalMetrics{
			RequestsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: MetricRequestsTotal,
					Help: "Total number of outbound Figma client requests",
				},
				[]string{"client_name", "endpoint", "status", "retry", "error"},
			),
			RequestDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    MetricRequestDuration,
					Help:    "Figma client request duration in seconds",
					Buckets: DefaultDurationBuckets,
				},
				[]string{"client_name", "endpoint", "status", "attempt"},
			),
			RetriesTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: MetricRetriesTotal,
					Help: "Total number of Figma client retries",
				},
				[]string{"client_name", "reason", "endpoint"},
			),
			RateLimitWait: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    MetricRateLimitWait,
					Help:    "Time spent waiting for the request quota in seconds",
					Buckets: DefaultDurationBuckets,
				},
				[]string{"client_name", "endpoint"},
			),
			BatchesTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: MetricBatchesTotal,
					Help: "Total number of image URL resolution batches",
				},
				[]string{"client_name", "size"},
			),
			DownloadsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: MetricDownloadsTotal,
					Help: "Total number of finished image downloads",
				},
				[]string{"client_name", "result"},
			),
			DownloadSize: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    MetricDownloadSizeBytes,
					Help:    "Downloaded image size in bytes",
					Buckets: DefaultSizeBuckets,
				},
				[]string{"client_name"},
			),
			InflightRequests: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: MetricInflightRequests,
					Help: "Number of Figma client requests currently in-flight",
				},
				[]string{"client_name", "endpoint"},
			),
		}

		// Регистрируем все метрики
		reg.MustRegister(
			newMetrics.RequestsTotal,
			newMetrics.RequestDuration,
			newMetrics.RetriesTotal,
			newMetrics.RateLimitWait,
			newMetrics.BatchesTotal,
			newMetrics.DownloadsTotal,
			newMetrics.DownloadSize,
			newMetrics.InflightRequests,
		)

		// Сохраняем в кеше
		globalPrometheusMetrics.Store(registryKey, newMetrics)
		metrics = newMetrics
	}

	return &PrometheusMetricsProvider{
		clientName: clientName,
		metrics:    metrics.(*prometheusGlobalMetrics),
	}
}

// RecordRequest записывает метрику запроса.
func (p *PrometheusMetricsProvider) RecordRequest(_ context.Context, endpoint, status string, retry, hasError bool) {
	retryStr := "false"
	if retry {
		retryStr = "true"
	}
	errorStr := "false"
	if hasError {
		errorStr = "true"
	}
	p.metrics.RequestsTotal.WithLabelValues(p.clientName, endpoint, status, retryStr, errorStr).Inc()
}

// RecordDuration записывает длительность запроса.
func (p *PrometheusMetricsProvider) RecordDuration(_ context.Context, seconds float64, endpoint, status string, attempt int) {
	attemptStr := strconv.Itoa(attempt)
	p.metrics.RequestDuration.WithLabelValues(p.clientName, endpoint, status, attemptStr).Observe(seconds)
}

// RecordRetry записывает метрику повторной попытки.
func (p *PrometheusMetricsProvider) RecordRetry(_ context.Context, reason, endpoint string) {
	p.metrics.RetriesTotal.WithLabelValues(p.clientName, reason, endpoint).Inc()
}

// RecordRateLimitWait записывает время ожидания квоты.
func (p *PrometheusMetricsProvider) RecordRateLimitWait(_ context.Context, seconds float64, endpoint string) {
	p.metrics.RateLimitWait.WithLabelValues(p.clientName, endpoint).Observe(seconds)
}

// RecordBatch записывает метрику обработанной пачки.
func (p *PrometheusMetricsProvider) RecordBatch(_ context.Context, size int) {
	p.metrics.BatchesTotal.WithLabelValues(p.clientName, strconv.Itoa(size)).Inc()
}

// RecordDownload записывает метрику завершённой загрузки.
func (p *PrometheusMetricsProvider) RecordDownload(_ context.Context, result string, bytes int64) {
	p.metrics.DownloadsTotal.WithLabelValues(p.clientName, result).Inc()
	if bytes > 0 {
		p.metrics.DownloadSize.WithLabelValues(p.clientName).Observe(float64(bytes))
	}
}

// InflightInc увеличивает счетчик активных запросов.
func (p *PrometheusMetricsProvider) InflightInc(_ context.Context, endpoint string) {
	p.metrics.InflightRequests.WithLabelValues(p.clientName, endpoint).Inc()
}

// InflightDec уменьшает счетчик активных запросов.
func (p *PrometheusMetricsProvider) InflightDec(_ context.Context, endpoint string) {
	p.metrics.InflightRequests.WithLabelValues(p.clientName, endpoint).Dec()
}

// Close освобождает ресурсы.
func (p *PrometheusMetricsProvider) Close() error {
	return nil
}
