package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/auth"
	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/config"
	"github.com/vovakirdan/anonchat/internal/core"
)

// ChatService is the backend surface exposed over HTTP.
type ChatService interface {
	backend.Backend
	Post(ctx context.Context, msg core.NewMessage) (core.Message, error)
}

// RealtimePath serves the websocket live feed.
const RealtimePath = "/realtime/v1"

// NewServer builds the HTTP server with REST and realtime routes. The
// websocket endpoint is mounted on the mux next to the gin router, which
// must not wrap the hijacked connection.
func NewServer(svc ChatService, cfg *config.Config, logger *zerolog.Logger) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware())

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var guard []gin.HandlerFunc
	realtime := NewWSHandler(svc, logger)
	if cfg.APIKeySecret != "" {
		keys := &auth.KeyConfig{Secret: []byte(cfg.APIKeySecret)}
		guard = append(guard, APIKeyMiddleware(keys, logger))
		realtime = RequireAPIKey(keys, logger, realtime)
	} else {
		logger.Warn().Msg("api key secret not configured, REST and realtime routes are open")
	}

	roomHandlers := NewRoomHandlers(svc, logger)
	rest := router.Group("/rest/v1", guard...)
	{
		rest.GET("/rooms", roomHandlers.ListRooms)
		rest.GET("/rooms/:id/messages", roomHandlers.ListMessages)
		rest.POST("/rooms/:id/messages", roomHandlers.PostMessage)
	}

	mux := http.NewServeMux()
	mux.Handle(RealtimePath, realtime)
	mux.Handle("/", router)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
