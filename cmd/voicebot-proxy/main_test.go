package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/replytics/voicebot-client/internal/testutil"
	"github.com/replytics/voicebot-client/pkg/client"
	"github.com/replytics/voicebot-client/pkg/config"
)

func newTestClient(t *testing.T, upstreamURL string) *client.Client {
	t.Helper()

	cfg := config.ClientConfig{
		BaseURL:         upstreamURL,
		JWTSecret:       "proxy-test-secret",
		JWTAlgorithm:    "HS256",
		TokenLifetime:   30 * time.Minute,
		Timeout:         5 * time.Second,
		MaxRetries:      1,
		CacheTTL:        time.Minute,
		MaxIdleConns:    10,
		MaxConnsPerHost: 20,
		IdleConnTimeout: 30 * time.Second,
	}

	vbClient, err := client.New(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { vbClient.Close() })

	return vbClient
}

func TestHealthEndpoint(t *testing.T) {
	upstream := testutil.NewMockVoiceBot()
	defer upstream.Close()

	vbClient := newTestClient(t, upstream.URL())
	handler := healthHandler(vbClient)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var status client.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if !status.Healthy {
		t.Errorf("Expected healthy upstream: %s", status.Error)
	}
}

func TestHealthEndpointUnhealthyUpstream(t *testing.T) {
	upstream := testutil.NewMockVoiceBot()
	upstream.SetResponse("/", testutil.NewUnavailableResponse())
	defer upstream.Close()

	vbClient := newTestClient(t, upstream.URL())
	handler := healthHandler(vbClient)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Result().StatusCode)
	}
}

func TestReadyEndpointWithoutRedis(t *testing.T) {
	handler := readyHandler(nil)

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestProxyHandlerForwardsRequests(t *testing.T) {
	upstream := testutil.NewMockVoiceBot()
	upstream.SetResponse("/api/v2/dashboard/services", testutil.NewJSONResponse(`{"services": []}`))
	defer upstream.Close()

	vbClient := newTestClient(t, upstream.URL())
	handler := proxyHandler(vbClient)

	req := httptest.NewRequest("GET", "/dashboard/services?business_id=biz-1", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "services") {
		t.Errorf("Expected upstream payload, got %s", string(body))
	}
}

func TestProxyHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		upstream   testutil.MockResponse
		wantStatus int
	}{
		{
			name:       "not found maps to 404",
			upstream:   testutil.NewNotFoundResponse("business not found"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid request maps to 400",
			upstream:   testutil.MockResponse{StatusCode: http.StatusBadRequest, Body: `{"detail": "bad input"}`},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "upstream error maps to 503",
			upstream:   testutil.NewUnavailableResponse(),
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := testutil.NewMockVoiceBot()
			upstream.SetResponse("/api/v2/dashboard/business", tt.upstream)
			defer upstream.Close()

			vbClient := newTestClient(t, upstream.URL())
			handler := proxyHandler(vbClient)

			req := httptest.NewRequest("GET", "/dashboard/business?business_id=biz-1", nil)
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Result().StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Result().StatusCode)
			}

			var errBody map[string]string
			if err := json.NewDecoder(w.Result().Body).Decode(&errBody); err != nil {
				t.Fatalf("Failed to decode error body: %v", err)
			}
			if errBody["detail"] == "" {
				t.Error("Expected error detail in response body")
			}
		})
	}
}

func TestProxyHandlerForwardsBody(t *testing.T) {
	var gotBody string
	upstream := testutil.NewMockVoiceBot()
	upstream.SetHandler("/api/v2/dashboard/business", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(`{"updated": true}`))
	})
	defer upstream.Close()

	vbClient := newTestClient(t, upstream.URL())
	handler := proxyHandler(vbClient)

	req := httptest.NewRequest("PATCH", "/dashboard/business?business_id=biz-1",
		strings.NewReader(`{"name": "New Name"}`))
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Result().StatusCode)
	}
	if !strings.Contains(gotBody, "New Name") {
		t.Errorf("Expected request body forwarded, upstream saw %q", gotBody)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	upstream := testutil.NewMockVoiceBot()
	defer upstream.Close()

	// Creating a client registers all voicebot metrics.
	vbClient := newTestClient(t, upstream.URL())
	vbClient.HealthCheck(httptest.NewRequest("GET", "/", nil).Context())

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	if !strings.Contains(bodyStr, "voicebot_requests_total") {
		t.Error("Expected metrics output to contain voicebot_requests_total")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("VOICEBOT_PROXY_TEST_KEY", "set-value")
	if got := getEnv("VOICEBOT_PROXY_TEST_KEY", "default"); got != "set-value" {
		t.Errorf("getEnv() = %q, want set-value", got)
	}
	if got := getEnv("VOICEBOT_PROXY_MISSING_KEY", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want default", got)
	}
}
