package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/auth"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/metrics"
	"github.com/vovakirdan/anonchat/internal/utils"
)

const (
	// HeaderAPIKey carries the anon key on REST and realtime requests.
	HeaderAPIKey = "apikey"
	// HeaderRequestID is echoed back on every response.
	HeaderRequestID = "X-Request-ID"

	// ContextKeyRequestID is the context key for the request id.
	ContextKeyRequestID = "request_id"
)

// APIKeyMiddleware rejects requests without a valid anon key. The key may be
// sent in the apikey header, as a Bearer token, or as an apikey query
// parameter (websocket clients that cannot set headers).
func APIKeyMiddleware(cfg *auth.KeyConfig, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resp, ok := checkAPIKey(cfg, c.Request, logger); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
			return
		}
		c.Next()
	}
}

// RequireAPIKey is APIKeyMiddleware for handlers mounted outside the gin
// router, such as the realtime endpoint.
func RequireAPIKey(cfg *auth.KeyConfig, logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if resp, ok := checkAPIKey(cfg, r, logger); !ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func checkAPIKey(cfg *auth.KeyConfig, r *http.Request, logger *zerolog.Logger) (ErrorResponse, bool) {
	key := extractAPIKey(r)
	if key == "" {
		logger.Debug().Str("path", r.URL.Path).Msg("missing api key")
		return ErrorResponse{Error: "missing api key", Code: core.ErrCodeUnauthorized}, false
	}
	if _, err := auth.ValidateAPIKey(cfg, key); err != nil {
		logger.Debug().Err(err).Str("path", r.URL.Path).Msg("invalid api key")
		return ErrorResponse{Error: "invalid api key", Code: core.ErrCodeUnauthorized}, false
	}
	return ErrorResponse{}, true
}

func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get(HeaderAPIKey); key != "" {
		return key
	}
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return r.URL.Query().Get(HeaderAPIKey)
}

// RequestIDMiddleware tags each request with an id, reusing the caller's.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = utils.NewID("req")
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", c.GetString(ContextKeyRequestID)).
			Msg("http request")
	}
}

// MetricsMiddleware records request counts and latencies per route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
