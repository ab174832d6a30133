package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/anonchat/internal/config"
	"github.com/vovakirdan/anonchat/internal/feed"
	"github.com/vovakirdan/anonchat/internal/service/chat"
	"github.com/vovakirdan/anonchat/internal/store"
	"github.com/vovakirdan/anonchat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/anonchat/internal/transport/http"
)

// App wires together storage, the live feed broker and the transport layer.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	broker          feed.Broker
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	broker, err := NewBroker(ctx, cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	svc := chat.New(st, broker, logger)
	if cfg.SeedRooms {
		n, err := svc.SeedRooms(ctx, chat.DefaultRooms)
		if err != nil {
			broker.Close()
			st.Close()
			return nil, fmt.Errorf("seed rooms: %w", err)
		}
		if n > 0 {
			logger.Info().Int("rooms", n).Msg("seeded default rooms")
		}
	}

	server := transporthttp.NewServer(svc, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		broker:          broker,
		store:           st,
		log:             logger,
	}, nil
}

// NewBroker picks the redis broker when a URL is configured, else the in-process hub.
func NewBroker(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (feed.Broker, error) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("using in-process live feed")
		return feed.NewHub(logger), nil
	}

	broker, err := feed.NewRedisBroker(ctx, cfg.RedisURL, logger)
	if err != nil {
		return nil, fmt.Errorf("init redis broker: %w", err)
	}
	logger.Info().Msg("using redis live feed")
	return broker, nil
}

// Handler exposes the HTTP handler for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Ending the live feeds first lets realtime handlers return.
		a.closeBroker()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

func (a *App) closeBroker() {
	if a.broker == nil {
		return
	}
	if err := a.broker.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close live feed broker")
	}
	a.broker = nil
}

// cleanup closes the broker, database and other resources.
func (a *App) cleanup() {
	a.closeBroker()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
