package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuongbtq/onmydesk/internal/app"
)

// NewTokenCmd creates the token command, issuing API bearer tokens
func NewTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user>",
		Short: "Issue an API bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth jwt_secret is not configured")
			}

			token, err := app.NewIssuer(&cfg.Auth).Generate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
