package main

import (
	"errors"
	"fmt"

	"pfms/pkg/auth"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWT.SecretKey == "" {
				return errors.New("JWT_SECRET_KEY is not set; the API runs without auth")
			}

			token, err := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration).GenerateToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
