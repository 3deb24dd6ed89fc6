package figmadl

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL — адрес Figma REST API по умолчанию.
const DefaultBaseURL = "https://api.figma.com"

// Config содержит конфигурацию клиента.
type Config struct {
	// BaseURL адрес Figma API (переопределяется в тестах)
	BaseURL string

	// Timeout общий таймаут одного HTTP вызова, включая ретраи.
	// Ноль означает отсутствие таймаута: загрузки изображений могут быть большими.
	Timeout time.Duration

	// Transport базовый HTTP транспорт (опционально)
	Transport http.RoundTripper

	// Logger структурированный логгер для событий управления запросами.
	// По умолчанию zap.NewNop().
	Logger *zap.Logger

	// RateLimit конфигурация скользящего окна квоты
	RateLimit RateLimitConfig

	// Retry конфигурация повторов при троттлинге
	Retry RetryConfig

	// Queue конфигурация очереди загрузок
	Queue QueueConfig

	// Batch конфигурация разбиения запросов разрешения URL
	Batch BatchConfig

	// MetricsEnabled включает/выключает сбор метрик (по умолчанию включены)
	MetricsEnabled *bool

	// MetricsProvider кастомный провайдер метрик (по умолчанию Prometheus)
	MetricsProvider MetricsProvider

	// TracingEnabled включает/выключает OpenTelemetry трассировку
	TracingEnabled bool

	// CircuitBreakerEnable включает/выключает использование CircuitBreaker
	CircuitBreakerEnable bool

	// CircuitBreaker настраиваемый автоматический выключатель
	CircuitBreaker CircuitBreaker
}

// RateLimitConfig содержит настройки скользящего окна квоты.
type RateLimitConfig struct {
	// MaxRequests максимальное количество запросов внутри окна
	MaxRequests int

	// Window размер скользящего окна
	Window time.Duration

	// SafetyMargin небольшой запас, добавляемый к вычисленному ожиданию
	SafetyMargin time.Duration
}

// RetryConfig содержит настройки повторов при ответе 429.
type RetryConfig struct {
	// MaxRetries максимальное количество попыток (включая первоначальную)
	MaxRetries int

	// InitialDelay базовая задержка для exponential backoff
	InitialDelay time.Duration

	// MaxJitter верхняя граница случайной добавки к задержке
	MaxJitter time.Duration

	// ThrottleDelayStep шаг превентивной задержки на единицу счётчика троттлинга
	ThrottleDelayStep time.Duration

	// MaxThrottleDelay потолок превентивной задержки
	MaxThrottleDelay time.Duration
}

// QueueConfig содержит настройки очереди асинхронных загрузок.
type QueueConfig struct {
	// Concurrency максимальное количество одновременно выполняемых задач
	Concurrency int

	// Interval минимальный интервал между стартами задач
	Interval time.Duration
}

// BatchConfig содержит настройки разбиения запросов разрешения URL на пачки.
type BatchConfig struct {
	// Size количество идентификаторов в одной пачке
	Size int

	// Cooldown пауза между пачками (не после последней).
	// Ноль означает удвоенный Queue.Interval — дополнительный запас поверх
	// квоты, подобранный по наблюдаемому поведению троттлинга Figma.
	Cooldown time.Duration
}

// withDefaults применяет значения по умолчанию к конфигурации.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}

	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	c.RateLimit = c.RateLimit.withDefaults()
	c.Retry = c.Retry.withDefaults()
	c.Queue = c.Queue.withDefaults()
	c.Batch = c.Batch.withDefaults(c.Queue)

	// Circuit breaker по умолчанию выключен. Если включён и не задан — используем простой.
	if c.CircuitBreakerEnable && c.CircuitBreaker == nil {
		c.CircuitBreaker = NewSimpleCircuitBreaker()
	}

	return c
}

// withDefaults применяет значения по умолчанию к конфигурации квоты.
func (rl RateLimitConfig) withDefaults() RateLimitConfig {
	if rl.MaxRequests == 0 {
		rl.MaxRequests = 10
	}

	if rl.Window == 0 {
		rl.Window = time.Minute
	}

	if rl.SafetyMargin == 0 {
		rl.SafetyMargin = 50 * time.Millisecond
	}

	return rl
}

// withDefaults применяет значения по умолчанию к конфигурации повторов.
func (rc RetryConfig) withDefaults() RetryConfig {
	if rc.MaxRetries == 0 {
		rc.MaxRetries = 5
	}

	if rc.InitialDelay == 0 {
		rc.InitialDelay = 2 * time.Second
	}

	if rc.MaxJitter == 0 {
		rc.MaxJitter = time.Second
	}

	if rc.ThrottleDelayStep == 0 {
		rc.ThrottleDelayStep = 2 * time.Second
	}

	if rc.MaxThrottleDelay == 0 {
		rc.MaxThrottleDelay = 10 * time.Second
	}

	return rc
}

// withDefaults применяет значения по умолчанию к конфигурации очереди.
func (qc QueueConfig) withDefaults() QueueConfig {
	if qc.Concurrency == 0 {
		qc.Concurrency = 2
	}

	if qc.Interval == 0 {
		qc.Interval = time.Second
	}

	return qc
}

// withDefaults применяет значения по умолчанию к конфигурации пачек.
func (bc BatchConfig) withDefaults(qc QueueConfig) BatchConfig {
	if bc.Size == 0 {
		bc.Size = 5
	}

	if bc.Cooldown == 0 {
		bc.Cooldown = 2 * qc.Interval
	}

	return bc
}
