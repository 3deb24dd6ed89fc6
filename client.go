// Package figmadl предоставляет клиент Figma API для выгрузки отрендеренных
// изображений узлов (PNG/SVG) с управлением исходящими запросами: скользящее
// окно квоты, ретраи троттлинга с backoff, ограничение параллелизма загрузок
// и сбор метрик с интеграцией OpenTelemetry.
package figmadl

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Client представляет клиент Figma API с управлением исходящими запросами.
// Всё состояние квоты и троттлинга принадлежит экземпляру: конкурентные
// вызовы одного клиента разделяют один лимитер и один счётчик троттлинга,
// разные клиенты не влияют друг на друга.
type Client struct {
	httpClient *http.Client
	config     Config
	token      string
	limiter    RateLimiter
	metrics    *Metrics
	tracer     *Tracer
	logger     *zap.Logger
	name       string
}

// New создаёт новый клиент Figma API с указанным токеном и конфигурацией.
// Токен передаётся один раз при создании, используется как значение заголовка
// X-Figma-Token на каждом вызове API и никогда не сохраняется на диск.
func New(token string, config Config) *Client {
	// Применяем значения по умолчанию
	config = config.withDefaults()

	name := "figma-dl"

	// Инициализируем метрики (по умолчанию включены)
	var metrics *Metrics
	switch {
	case config.MetricsProvider != nil:
		metrics = NewMetricsWithProvider(name, config.MetricsProvider)
	case config.MetricsEnabled == nil || *config.MetricsEnabled:
		metrics = NewMetrics(name)
	default:
		metrics = NewDisabledMetrics(name)
	}

	// Инициализируем трассировку (опционально)
	var tracer *Tracer
	if config.TracingEnabled {
		tracer = NewTracer()
	}

	limiter := NewWindowLimiter(
		config.RateLimit.MaxRequests,
		config.RateLimit.Window,
		config.RateLimit.SafetyMargin,
	)

	// Строим цепочку RoundTripper снизу вверх: лимитер стоит под ретраями,
	// поэтому каждая повторная попытка заново проходит через квоту.
	var transport http.RoundTripper = config.Transport
	transport = newRateLimitRoundTripper(transport, limiter, config.Logger, metrics)
	transport = newThrottleRoundTripper(transport, config, config.Logger, metrics, tracer)

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}

	return &Client{
		httpClient: httpClient,
		config:     config,
		token:      token,
		limiter:    limiter,
		metrics:    metrics,
		tracer:     tracer,
		logger:     config.Logger,
		name:       name,
	}
}

// get выполняет управляемый GET запрос: через лимитер квоты и ретраи троттлинга.
func (c *Client) get(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	applyOptions(req, opts)
	return c.httpClient.Do(req)
}

// getAPI выполняет управляемый GET запрос к Figma API с учётными данными.
func (c *Client) getAPI(ctx context.Context, url string, opts ...RequestOption) (*http.Response, error) {
	opts = append([]RequestOption{WithFigmaToken(c.token)}, opts...)
	return c.get(ctx, url, opts...)
}

// GetConfig возвращает конфигурацию клиента.
func (c *Client) GetConfig() Config {
	return c.config
}

// Close освобождает ресурсы клиента.
func (c *Client) Close() error {
	if c.metrics != nil {
		return c.metrics.Close()
	}
	return nil
}
