package figmadl

import "context"

// Константы для имен метрик, унифицированные для всех провайдеров.
const (
	MetricRequestsTotal     = "figma_client_requests_total"
	MetricRequestDuration   = "figma_client_request_duration_seconds"
	MetricRetriesTotal      = "figma_client_retries_total"
	MetricRateLimitWait     = "figma_client_rate_limit_wait_seconds"
	MetricBatchesTotal      = "figma_client_batches_total"
	MetricDownloadsTotal    = "figma_client_downloads_total"
	MetricDownloadSizeBytes = "figma_client_download_size_bytes"
	MetricInflightRequests  = "figma_client_inflight_requests"
)

// Метки endpoint для разделения вызовов к API и загрузок по подписанным URL.
const (
	EndpointImages   = "images"
	EndpointDownload = "download"
)

// Причины повторов и ожиданий.
const (
	RetryReasonThrottle  = "throttle"
	WaitReasonQuota      = "quota"
	DownloadResultOK     = "success"
	DownloadResultFailed = "failure"
)

// DefaultDurationBuckets содержит бакеты по умолчанию для гистограмм длительности (в секундах).
var DefaultDurationBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5,
	1, 2, 3, 5, 7, 10, 13, 16, 20, 25, 30, 40, 50, 60,
}

// DefaultSizeBuckets содержит бакеты по умолчанию для гистограмм размеров загрузок (в байтах).
var DefaultSizeBuckets = []float64{
	256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216,
}

// MetricsProvider определяет интерфейс для различных бэкендов метрик.
type MetricsProvider interface {
	// RecordRequest записывает метрику исходящего запроса
	RecordRequest(ctx context.Context, endpoint, status string, retry, hasError bool)

	// RecordDuration записывает длительность запроса в секундах
	RecordDuration(ctx context.Context, seconds float64, endpoint, status string, attempt int)

	// RecordRetry записывает метрику повторной попытки
	RecordRetry(ctx context.Context, reason, endpoint string)

	// RecordRateLimitWait записывает время, проведённое в ожидании квоты
	RecordRateLimitWait(ctx context.Context, seconds float64, endpoint string)

	// RecordBatch записывает метрику обработанной пачки разрешения URL
	RecordBatch(ctx context.Context, size int)

	// RecordDownload записывает метрику завершённой загрузки
	RecordDownload(ctx context.Context, result string, bytes int64)

	// InflightInc увеличивает счетчик активных запросов
	InflightInc(ctx context.Context, endpoint string)

	// InflightDec уменьшает счетчик активных запросов
	InflightDec(ctx context.Context, endpoint string)

	// Close освобождает ресурсы провайдера
	Close() error
}

// MetricsBackend определяет тип бэкенда метрик.
type MetricsBackend string

const (
	MetricsBackendPrometheus    MetricsBackend = "prometheus"
	MetricsBackendOpenTelemetry MetricsBackend = "otel"
)
