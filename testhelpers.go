package figmadl

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// TestServer предоставляет моковый HTTP сервер для тестирования. Ответы
// отдаются строго по сценарию: первый запрос получает первый ответ и так
// далее; после исчерпания сценария повторяется последний ответ.
type TestServer struct {
	*httptest.Server
	mu              sync.RWMutex
	responses       []TestResponse
	currentResponse int
	RequestLog      []TestRequest
}

// TestResponse описывает ответ тестового сервера
type TestResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       string
	Delay      time.Duration
}

// TestRequest логирует информацию о запросе
type TestRequest struct {
	Method    string
	URL       string
	Headers   map[string]string
	Timestamp time.Time
}

// NewTestServer создаёт новый тестовый сервер со сценарием ответов
func NewTestServer(responses ...TestResponse) *TestServer {
	ts := &TestServer{
		responses:  responses,
		RequestLog: make([]TestRequest, 0),
	}

	ts.Server = httptest.NewServer(http.HandlerFunc(ts.handler))
	return ts
}

// handler обрабатывает HTTP запросы
func (ts *TestServer) handler(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	headers := make(map[string]string)
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	ts.RequestLog = append(ts.RequestLog, TestRequest{
		Method:    r.Method,
		URL:       r.URL.String(),
		Headers:   headers,
		Timestamp: time.Now(),
	})

	if len(ts.responses) == 0 {
		// Дефолтный ответ если сценарий не настроен
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
		return
	}

	responseIndex := ts.currentResponse
	if responseIndex >= len(ts.responses) {
		responseIndex = len(ts.responses) - 1 // используем последний ответ
	}

	response := ts.responses[responseIndex]
	ts.currentResponse++

	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for k, v := range response.Headers {
		w.Header().Set(k, v)
	}

	w.WriteHeader(response.StatusCode)

	if response.Body != "" {
		w.Write([]byte(response.Body))
	}
}

// Reset сбрасывает состояние сервера
func (ts *TestServer) Reset() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.currentResponse = 0
	ts.RequestLog = ts.RequestLog[:0]
}

// GetRequestCount возвращает количество полученных запросов
func (ts *TestServer) GetRequestCount() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.RequestLog)
}

// GetRequests возвращает копию журнала запросов
func (ts *TestServer) GetRequests() []TestRequest {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return append([]TestRequest(nil), ts.RequestLog...)
}

// GetLastRequest возвращает последний полученный запрос
func (ts *TestServer) GetLastRequest() *TestRequest {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	if len(ts.RequestLog) == 0 {
		return nil
	}
	return &ts.RequestLog[len(ts.RequestLog)-1]
}

// AddResponse добавляет новый ответ в сценарий
func (ts *TestServer) AddResponse(response TestResponse) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.responses = append(ts.responses, response)
}

// MockRoundTripper предоставляет моковый RoundTripper для unit тестов
type MockRoundTripper struct {
	mu        sync.RWMutex
	responses []*http.Response
	errors    []error
	callCount int
	requests  []*http.Request
	callTimes []time.Time
}

// NewMockRoundTripper создаёт новый моковый RoundTripper
func NewMockRoundTripper() *MockRoundTripper {
	return &MockRoundTripper{
		responses: make([]*http.Response, 0),
		errors:    make([]error, 0),
		requests:  make([]*http.Request, 0),
	}
}

// RoundTrip реализует http.RoundTripper интерфейс
func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	m.callTimes = append(m.callTimes, time.Now())

	defer func() { m.callCount++ }()

	if m.callCount < len(m.errors) && m.errors[m.callCount] != nil {
		return nil, m.errors[m.callCount]
	}

	if m.callCount < len(m.responses) && m.responses[m.callCount] != nil {
		return m.responses[m.callCount], nil
	}

	// Дефолтный ответ
	return &http.Response{
		StatusCode: 200,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(`{"status": "ok"}`)),
		Request:    req,
	}, nil
}

// AddResponse добавляет моковый ответ
func (m *MockRoundTripper) AddResponse(resp *http.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// AddError добавляет ошибку для следующего вызова
func (m *MockRoundTripper) AddError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
}

// GetCallCount возвращает количество вызовов RoundTrip
func (m *MockRoundTripper) GetCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.callCount
}

// GetCallTimes возвращает моменты вызовов RoundTrip
func (m *MockRoundTripper) GetCallTimes() []time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Time(nil), m.callTimes...)
}

// GetRequests возвращает все полученные запросы
func (m *MockRoundTripper) GetRequests() []*http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*http.Request(nil), m.requests...)
}

// Reset сбрасывает состояние мока
func (m *MockRoundTripper) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = m.responses[:0]
	m.errors = m.errors[:0]
	m.requests = m.requests[:0]
	m.callTimes = m.callTimes[:0]
	m.callCount = 0
}

// CreateTestHTTPResponse создаёт HTTP ответ для тестов
func CreateTestHTTPResponse(statusCode int, body string, headers map[string]string) *http.Response {
	resp := &http.Response{
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}

	for k, v := range headers {
		resp.Header.Set(k, v)
	}

	return resp
}

// WaitForCondition ожидает выполнения условия с таймаутом
func WaitForCondition(timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
