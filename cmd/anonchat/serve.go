package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/anonchat/internal/app"
	applog "github.com/vovakirdan/anonchat/internal/log"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var overrides struct {
		addr     string
		dbPath   string
		redisURL string
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the realtime chat backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := rt.cfg
			if overrides.addr != "" {
				cfg.Addr = overrides.addr
			}
			if overrides.dbPath != "" {
				cfg.DatabasePath = overrides.dbPath
			}
			if overrides.redisURL != "" {
				cfg.RedisURL = overrides.redisURL
			}

			logger := applog.New(cfg.LogLevel)
			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			application, err := app.New(cmd.Context(), &cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting anonchat backend")
			if err := application.Run(cmd.Context()); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&overrides.addr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&overrides.dbPath, "db", "", "sqlite database path")
	cmd.Flags().StringVar(&overrides.redisURL, "redis-url", "", "redis URL for cross-instance live feeds")
	return cmd
}
