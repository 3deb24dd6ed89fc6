package figmadl

import (
	"context"
	"net/http"
)

// RateLimiter определяет интерфейс для ограничения частоты исходящих запросов.
// Acquire блокирует вызывающего до тех пор, пока ещё один запрос не перестанет
// превышать настроенную квоту, и учитывает выданное разрешение.
type RateLimiter interface {
	Acquire(ctx context.Context) error
}

// CircuitBreaker определяет интерфейс автоматического выключателя.
type CircuitBreaker interface {
	Execute(fn func() (*http.Response, error)) (*http.Response, error)
	State() CircuitBreakerState
	Reset()
}

// CircuitBreakerState represents the state of a circuit breaker.
type CircuitBreakerState int

const (
	CircuitBreakerClosed CircuitBreakerState = iota
	CircuitBreakerOpen
	CircuitBreakerHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitBreakerClosed:
		return "closed"
	case CircuitBreakerOpen:
		return "open"
	case CircuitBreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
