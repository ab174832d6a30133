package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/anonchat/internal/auth"
)

func newKeygenCmd(rt *runtime) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print an anon API key signed with the configured secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfg.APIKeySecret == "" {
				return errors.New("api_key_secret is not configured (set ANONCHAT_API_KEY_SECRET)")
			}
			key, err := auth.GenerateAPIKey(&auth.KeyConfig{Secret: []byte(rt.cfg.APIKeySecret), TTL: ttl})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "key lifetime (0 for no expiry)")
	return cmd
}
