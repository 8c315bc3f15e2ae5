package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mosaic/internal/auth"
)

// tokenCmd issues a bearer token signed with the configured key, for calling
// the gateway when AUTH_ENABLED is set.
func tokenCmd() *cobra.Command {
	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the composite API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			tokens := auth.NewTokenService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
			tok, err := tokens.Issue(subject, scopes, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "writer", "token subject")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{auth.ScopeRead, auth.ScopeWrite}, "granted scopes")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
