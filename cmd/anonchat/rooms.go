package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/anonchat/internal/directory"
	applog "github.com/vovakirdan/anonchat/internal/log"
)

func newRoomsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List the rooms of a backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := applog.NewWithWriter(rt.cfg.LogLevel, cmd.ErrOrStderr())
			be, err := rt.remoteBackend(logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.Client.RequestTimeout)
			defer cancel()
			rooms, err := directory.New(be, logger).List(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTHEME\tDESCRIPTION\tID")
			for _, room := range rooms {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", room.Name, room.Theme.Display(), room.Description, room.ID)
			}
			return w.Flush()
		},
	}
}
