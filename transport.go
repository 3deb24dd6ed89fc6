package figmadl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Цепочка RoundTripper строится снизу вверх:
//
//	базовый транспорт <- rateLimitRoundTripper <- throttleRoundTripper
//
// Лимитер стоит ниже ретраев, поэтому каждая повторная попытка заново
// проходит через квоту. Оба слоя разделяются всеми конкурентными задачами
// одного клиента: состояние квоты и счётчик троттлинга — поля экземпляров,
// а не глобальные переменные.

// rateLimitRoundTripper пропускает каждый исходящий запрос через лимитер квоты.
type rateLimitRoundTripper struct {
	base    http.RoundTripper
	limiter RateLimiter
	logger  *zap.Logger
	metrics *Metrics
}

// newRateLimitRoundTripper создаёт новый RoundTripper с ограничением квоты.
func newRateLimitRoundTripper(base http.RoundTripper, limiter RateLimiter, logger *zap.Logger, metrics *Metrics) *rateLimitRoundTripper {
	return &rateLimitRoundTripper{
		base:    base,
		limiter: limiter,
		logger:  logger,
		metrics: metrics,
	}
}

// RoundTrip выполняет HTTP запрос после получения разрешения от лимитера.
func (rt *rateLimitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(req.URL)

	start := time.Now()
	if err := rt.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	if waited := time.Since(start); waited > time.Millisecond {
		rt.logger.Debug("waited for request quota",
			zap.String("endpoint", endpoint),
			zap.Duration("waited", waited),
		)
		rt.metrics.RecordRateLimitWait(ctx, waited.Seconds(), endpoint)
	}

	return rt.base.RoundTrip(req)
}

// throttleRoundTripper повторяет запрос при ответе 429 с exponential backoff
// и ведёт общий счётчик недавних троттлингов. Положительный счётчик вставляет
// превентивную задержку перед каждым следующим запросом — так разносятся по
// времени соседние вызовы, которые сами 429 не получали, но участвуют в той
// же волне нагрузки.
type throttleRoundTripper struct {
	base    http.RoundTripper
	retry   RetryConfig
	breaker CircuitBreaker
	logger  *zap.Logger
	metrics *Metrics
	tracer  *Tracer

	mu        sync.Mutex
	throttled int // счётчик недавних троттлингов, неотрицательный
}

// newThrottleRoundTripper создаёт новый RoundTripper с ретраями троттлинга.
func newThrottleRoundTripper(base http.RoundTripper, config Config, logger *zap.Logger, metrics *Metrics, tracer *Tracer) *throttleRoundTripper {
	var breaker CircuitBreaker
	if config.CircuitBreakerEnable {
		breaker = config.CircuitBreaker
	}

	return &throttleRoundTripper{
		base:    base,
		retry:   config.Retry,
		breaker: breaker,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

// RoundTrip выполняет HTTP запрос с ретраями при троттлинге.
//
// Ретраится только статус 429: сетевые ошибки и прочие статусы передаются
// вызывающему без повторов. Контракт выхода из цикла тотален — каждый путь
// явно возвращает ответ или ошибку.
func (rt *throttleRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(req.URL)

	var span trace.Span
	if rt.tracer != nil {
		ctx, span = rt.tracer.StartSpan(ctx, fmt.Sprintf("HTTP %s", req.Method))
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("figma.endpoint", endpoint),
		)
		req = req.WithContext(ctx)
	}

	rt.metrics.IncrementInflight(ctx, endpoint)
	defer rt.metrics.DecrementInflight(ctx, endpoint)

	maxRetries := rt.retry.MaxRetries

	for attempt := 0; attempt < maxRetries; attempt++ {
		// Превентивная задержка, пока счётчик троттлинга положителен.
		if count := rt.throttleCount(); count > 0 {
			delay := ProactiveThrottleDelay(count, rt.retry.ThrottleDelayStep, rt.retry.MaxThrottleDelay)
			rt.logger.Info("proactive throttle delay before request",
				zap.String("endpoint", endpoint),
				zap.Int("throttle_count", count),
				zap.Duration("delay", delay),
			)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		resp, err := rt.doTransport(req)
		duration := time.Since(start)

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		isRetry := attempt > 0
		rt.metrics.RecordRequest(ctx, endpoint, strconv.Itoa(status), isRetry, err != nil)
		rt.metrics.RecordDuration(ctx, duration.Seconds(), endpoint, strconv.Itoa(status), attempt+1)

		if span != nil {
			span.SetAttributes(
				attribute.Int("http.status_code", status),
				attribute.Int("http.attempt", attempt+1),
				attribute.Bool("http.retry", isRetry),
			)
		}

		// Сетевые ошибки этим слоем не ретраятся.
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			rt.relax()
			rt.observeQuota(resp, endpoint)
			return resp, nil
		}

		// Троттлинг: учитываем и решаем судьбу попытки.
		rt.tighten()
		rt.metrics.RecordRetry(ctx, RetryReasonThrottle, endpoint)

		retryAfter := retryAfterDelay(resp)
		drainBody(resp)

		if attempt == maxRetries-1 {
			rt.logger.Warn("rate limit retries exhausted",
				zap.String("endpoint", endpoint),
				zap.Int("attempts", maxRetries),
			)
			return nil, &RateLimitError{Attempts: maxRetries, URL: req.URL.String()}
		}

		delay := retryAfter
		if delay <= 0 {
			delay = CalculateBackoffDelay(attempt, rt.retry.InitialDelay, rt.retry.MaxJitter)
		} else {
			delay += backoffJitter(rt.retry.MaxJitter)
		}

		rt.logger.Info("throttled by vendor, retrying",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Bool("retry_after_honored", retryAfter > 0),
		)

		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}

	// Недостижимо при MaxRetries >= 1, но сохраняет контракт выхода тотальным.
	return nil, &RateLimitError{Attempts: maxRetries, URL: req.URL.String()}
}

// doTransport выполняет реальный HTTP-запрос, опционально через CircuitBreaker.
func (rt *throttleRoundTripper) doTransport(req *http.Request) (*http.Response, error) {
	if rt.breaker != nil {
		return rt.breaker.Execute(func() (*http.Response, error) {
			return rt.base.RoundTrip(req)
		})
	}
	return rt.base.RoundTrip(req)
}

// throttleCount возвращает текущее значение счётчика троттлинга.
func (rt *throttleRoundTripper) throttleCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.throttled
}

// tighten увеличивает счётчик троттлинга. Верхней границы нет: практический
// эффект ограничен потолком превентивной задержки.
func (rt *throttleRoundTripper) tighten() {
	rt.mu.Lock()
	rt.throttled++
	rt.mu.Unlock()
}

// relax уменьшает счётчик троттлинга не более чем на единицу, не ниже нуля.
func (rt *throttleRoundTripper) relax() {
	rt.mu.Lock()
	if rt.throttled > 0 {
		rt.throttled--
	}
	rt.mu.Unlock()
}

// observeQuota фиксирует телеметрию квоты, которую Figma отдаёт в заголовках.
func (rt *throttleRoundTripper) observeQuota(resp *http.Response, endpoint string) {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	reset := resp.Header.Get("X-RateLimit-Reset")
	if remaining == "" && reset == "" {
		return
	}

	rt.logger.Debug("vendor rate limit telemetry",
		zap.String("endpoint", endpoint),
		zap.String("remaining", remaining),
		zap.String("reset", reset),
	)
}

// retryAfterDelay извлекает серверную задержку из заголовка Retry-After:
// целое число секунд либо HTTP-дата.
func retryAfterDelay(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		return time.Until(t)
	}

	return 0
}

// drainBody вычитывает и закрывает тело ответа, чтобы соединение вернулось в пул.
func drainBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

// sleepCtx приостанавливает выполнение на delay с учётом отмены контекста.
func sleepCtx(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// endpointLabel классифицирует URL для метрик и логов: вызовы Figma API
// против загрузок по подписанным URL.
func endpointLabel(u *url.URL) string {
	if u == nil {
		return EndpointDownload
	}
	if strings.HasPrefix(u.Path, "/v1/") {
		return EndpointImages
	}
	return EndpointDownload
}
