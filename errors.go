package figmadl

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError представляет транспортную HTTP ошибку (не-2xx статус, отличный от 429).
// Такие ошибки не ретраятся этим слоем и передаются вызывающему как есть.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

// Error реализует интерфейс error.
// Сообщение намеренно короткое: оно попадает в per-node отчёт о загрузке.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// NewHTTPError создаёт новую HTTP ошибку из ответа.
func NewHTTPError(resp *http.Response) *HTTPError {
	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		URL:        url,
	}
}

// IsHTTPError проверяет, является ли ошибка транспортной HTTP ошибкой.
func IsHTTPError(err error) bool {
	var target *HTTPError
	return errors.As(err, &target)
}

// RateLimitError представляет ошибку исчерпания лимита повторов при троттлинге.
// Возвращается только после того, как все разрешённые попытки получили 429.
type RateLimitError struct {
	Attempts int
	URL      string
}

// Error реализует интерфейс error.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("figma API rate limit exceeded after %d attempts, a cooldown period is advisable before retrying", e.Attempts)
}

// IsRateLimitError проверяет, является ли ошибка исчерпанием лимита повторов.
func IsRateLimitError(err error) bool {
	var target *RateLimitError
	return errors.As(err, &target)
}

// APIError представляет прикладную ошибку Figma API: HTTP ответ успешен,
// но тело содержит непустое поле err. Сообщение вендора сохраняется дословно.
type APIError struct {
	Message string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	return fmt.Sprintf("figma API error: %s", e.Message)
}

// IsAPIError проверяет, является ли ошибка прикладной ошибкой Figma API.
func IsAPIError(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

// ConfigurationError представляет ошибку конфигурации клиента.
type ConfigurationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error реализует интерфейс error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewConfigurationError создаёт новую ошибку конфигурации.
func NewConfigurationError(field string, value interface{}, message string) *ConfigurationError {
	return &ConfigurationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}
