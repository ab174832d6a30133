package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/anonchat/internal/pairing"
	"github.com/vovakirdan/anonchat/internal/tui"
)

func newPairCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "pair",
		Short: "Chat one-on-one with a (scripted) stranger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog, err := rt.fileLogger()
			if err != nil {
				return err
			}
			defer closeLog()

			p := rt.cfg.Pairing
			chat := pairing.New(rt.identity, pairing.Config{
				MatchDelayMin: p.MatchDelayMin,
				MatchDelayMax: p.MatchDelayMax,
				ReplyDelayMin: p.ReplyDelayMin,
				ReplyDelayMax: p.ReplyDelayMax,
				Logger:        logger,
			})
			defer chat.Close()

			_, err = tea.NewProgram(tui.NewPairing(chat, rt.identity), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}
