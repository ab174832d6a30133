package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/client"
	"github.com/vovakirdan/anonchat/internal/config"
	"github.com/vovakirdan/anonchat/internal/core"
	"github.com/vovakirdan/anonchat/internal/feed"
	applog "github.com/vovakirdan/anonchat/internal/log"
	"github.com/vovakirdan/anonchat/internal/service/chat"
	"github.com/vovakirdan/anonchat/internal/store/sqlite"
)

// runtime carries what every subcommand needs once flags are parsed.
type runtime struct {
	configPath string
	overrides  config.Config

	cfg      config.Config
	identity core.Identity
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "anonchat",
		Short:         "Anonymous themed-room chat and stranger pairing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&rt.configPath, "config", "", "path to config.yaml (default ./config.yaml)")
	flags.StringVar(&rt.overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&rt.overrides.Client.BaseURL, "base-url", "", "backend base URL for client commands")
	flags.StringVar(&rt.overrides.Client.APIKey, "api-key", "", "anon API key for client commands")

	root.AddCommand(
		newServeCmd(rt),
		newRoomsCmd(rt),
		newJoinCmd(rt),
		newPairCmd(rt),
		newKeygenCmd(rt),
	)
	return root
}

func (rt *runtime) load() error {
	bootLogger := applog.NewWithWriter("warn", os.Stderr)
	cfg, _, err := config.Load(bootLogger, rt.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(rt.overrides)
	rt.cfg = cfg
	// One identity per process, passed explicitly to every component.
	rt.identity = core.NewIdentity()
	return nil
}

// fileLogger sends logs of terminal front-ends to the configured file.
func (rt *runtime) fileLogger() (*zerolog.Logger, func(), error) {
	if rt.cfg.Client.LogFile == "" {
		nop := zerolog.Nop()
		return &nop, func() {}, nil
	}
	logger, closer, err := applog.NewFile(rt.cfg.LogLevel, rt.cfg.Client.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger, func() { _ = closer.Close() }, nil
}

// remoteBackend connects to a running backend.
func (rt *runtime) remoteBackend(logger *zerolog.Logger) (backend.Backend, error) {
	return client.New(client.Options{
		BaseURL: rt.cfg.Client.BaseURL,
		APIKey:  rt.cfg.Client.APIKey,
		Timeout: rt.cfg.Client.RequestTimeout,
		Logger:  logger,
	})
}

// localBackend runs the backend in-process on the configured database.
func (rt *runtime) localBackend(ctx context.Context, logger *zerolog.Logger) (backend.Backend, func(), error) {
	st, err := sqlite.New(rt.cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	hub := feed.NewHub(logger)
	svc := chat.New(st, hub, logger)
	if _, err := svc.SeedRooms(ctx, chat.DefaultRooms); err != nil {
		hub.Close()
		st.Close()
		return nil, nil, fmt.Errorf("seed rooms: %w", err)
	}

	cleanup := func() {
		hub.Close()
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close store")
		}
	}
	return svc, cleanup, nil
}
