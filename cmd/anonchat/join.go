package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/anonchat/internal/backend"
	"github.com/vovakirdan/anonchat/internal/tui"
)

func newJoinCmd(rt *runtime) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Browse rooms and chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog, err := rt.fileLogger()
			if err != nil {
				return err
			}
			defer closeLog()

			var be backend.Backend
			if local {
				svc, cleanup, err := rt.localBackend(cmd.Context(), logger)
				if err != nil {
					return err
				}
				defer cleanup()
				be = svc
			} else {
				be, err = rt.remoteBackend(logger)
				if err != nil {
					return err
				}
			}

			logger.Info().Str("identity", rt.identity.Name).Str("user_id", rt.identity.ID).Bool("local", local).Msg("starting room browser")
			model := tui.New(tui.Options{
				Backend:        be,
				Identity:       rt.identity,
				PageSize:       rt.cfg.Client.PageSize,
				RequestTimeout: rt.cfg.Client.RequestTimeout,
				Logger:         logger,
			})
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "run the backend in-process on the configured database")
	return cmd
}
