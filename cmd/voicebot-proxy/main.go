// Command voicebot-proxy exposes the Voice Bot client as a small HTTP
// sidecar. Dashboard services that cannot link the client directly
// call the proxy instead and inherit its caching, retries, and token
// handling.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/replytics/voicebot-client/pkg/cache"
	"github.com/replytics/voicebot-client/pkg/client"
	"github.com/replytics/voicebot-client/pkg/config"
	"github.com/replytics/voicebot-client/pkg/health"
	"github.com/replytics/voicebot-client/pkg/logging"
)

func main() {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
		Output: os.Stderr,
	})

	port := getEnv("PORT", "8080")
	redisURL := os.Getenv("REDIS_URL")

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Redis is optional: without it the cache is per-process and
	// health state is not shared.
	var store cache.Store
	var redisClient *redis.Client
	if redisURL != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: redisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Str("redis_url", redisURL).Msg("Failed to connect to Redis")
		}
		store = cache.NewRedisStore(redisClient)
		log.Info().Str("redis_url", redisURL).Msg("Connected to Redis")
	}

	vbClient, err := client.New(cfg, store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Voice Bot client")
	}
	defer vbClient.Close()

	if redisClient != nil {
		vbClient.SetHealthTracker(health.NewTracker(redisClient, log.With().Str("component", "health").Logger()))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(vbClient))
	mux.HandleFunc("/ready", readyHandler(redisClient))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/dashboard/", proxyHandler(vbClient))

	addr := ":" + port
	log.Info().
		Str("addr", addr).
		Str("upstream", cfg.BaseURL).
		Str("cache_backend", vbClient.CacheBackend()).
		Msg("Starting Voice Bot proxy")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// healthHandler probes the upstream and reports the result.
func healthHandler(vbClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := vbClient.HealthCheck(ctx)

		w.Header().Set("Content-Type", "application/json")
		if !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	}
}

// readyHandler reports whether the proxy's own dependencies are up.
func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "OK")
	}
}

// proxyHandler forwards dashboard requests through the resilient
// client. Example: GET /dashboard/services?business_id=x maps to
// GET /api/v2/dashboard/services on the upstream.
func proxyHandler(vbClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upstreamPath := "/api/v2" + r.URL.EscapedPath()

		var body any
		if r.Body != nil && r.Method != http.MethodGet {
			raw, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			if len(raw) > 0 {
				body = json.RawMessage(raw)
			}
		}

		payload, err := vbClient.Invoke(r.Context(), r.Method, upstreamPath, r.URL.Query(), body,
			client.InvokeOptions{Cacheable: r.Method == http.MethodGet})
		if err != nil {
			writeAPIError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	}
}

// writeAPIError maps the client's error taxonomy to proxy responses.
func writeAPIError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	message := "upstream request failed"

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		message = apiErr.Message
		switch apiErr.Kind {
		case client.KindNotFound:
			status = http.StatusNotFound
		case client.KindInvalidRequest:
			status = http.StatusBadRequest
		case client.KindTimeout, client.KindUpstreamUnavailable:
			status = http.StatusServiceUnavailable
		default:
			status = http.StatusBadGateway
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": message})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
