// Package testutil provides testing utilities for the Voice Bot client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MockResponse defines the behavior for a mock Voice Bot endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockVoiceBot is a configurable mock Voice Bot API server for testing.
// It can verify service tokens and script per-path response sequences.
type MockVoiceBot struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// jwtSecret, when set, makes the server verify Bearer tokens and
	// answer 401 for missing or invalid ones.
	jwtSecret []byte

	// Tracking
	RequestCount      int
	UnauthorizedCount int
	LastRequestHeader http.Header
}

// NewMockVoiceBot creates a new mock Voice Bot server.
func NewMockVoiceBot() *MockVoiceBot {
	mock := &MockVoiceBot{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		if !mock.authorize(w, r) {
			return
		}

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockVoiceBot) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockVoiceBot) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockVoiceBot) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.UnauthorizedCount = 0
	m.LastRequestHeader = nil
}

// RequireJWT makes the server verify Bearer tokens against the secret.
func (m *MockVoiceBot) RequireJWT(secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jwtSecret = []byte(secret)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockVoiceBot) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockVoiceBot) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetResponseSequence configures a path to answer each response in
// order, repeating the last one once the sequence is exhausted. Useful
// for scripting fail-then-recover scenarios.
func (m *MockVoiceBot) SetResponseSequence(path string, responses ...MockResponse) {
	if len(responses) == 0 {
		panic("testutil: SetResponseSequence requires at least one response")
	}

	var mu sync.Mutex
	index := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[index]
		if index < len(responses)-1 {
			index++
		}
		mu.Unlock()
		writeResponse(w, resp)
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockVoiceBot) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetUnauthorizedCount returns the number of rejected requests.
func (m *MockVoiceBot) GetUnauthorizedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.UnauthorizedCount
}

// authorize verifies the Bearer token when JWT checking is enabled.
// Returns false after writing a 401 response.
func (m *MockVoiceBot) authorize(w http.ResponseWriter, r *http.Request) bool {
	m.mu.RLock()
	secret := m.jwtSecret
	m.mu.RUnlock()

	if secret == nil {
		return true
	}

	auth := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		m.reject(w, "missing bearer token")
		return false
	}

	_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		m.reject(w, "invalid token")
		return false
	}

	return true
}

func (m *MockVoiceBot) reject(w http.ResponseWriter, detail string) {
	m.mu.Lock()
	m.UnauthorizedCount++
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"detail": %q}`, detail)
}

func (m *MockVoiceBot) defaultHandler(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewJSONResponse creates a standard 200 OK JSON response.
func NewJSONResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse(detail string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf(`{"detail": %q}`, detail),
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"detail": "internal server error"}`,
	}
}

// NewUnavailableResponse creates a 503 Service Unavailable response.
func NewUnavailableResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       `{"detail": "service temporarily unavailable"}`,
	}
}
