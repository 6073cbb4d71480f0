package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	hqsagent "github.com/quantrunner/HQSAgent"
	"github.com/quantrunner/HQSAgent/internal/api"
	"github.com/quantrunner/HQSAgent/internal/auth"
	"github.com/quantrunner/HQSAgent/internal/config"
	"github.com/quantrunner/HQSAgent/internal/env"
)

func newLoginCmd() *cobra.Command {
	var (
		flagUser    string
		flagBaseURL string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate interactively and persist the token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.NewDefaultFileStore()
			if err != nil {
				return err
			}
			baseURL := flagBaseURL
			if baseURL == "" {
				baseURL = env.String(hqsagent.EnvBaseURL, api.DefaultBaseURL)
			}
			manager, err := auth.NewManager(baseURL, store, auth.WithUser(flagUser))
			if err != nil {
				return err
			}
			access, refresh, err := manager.Login(cmd.Context())
			if err != nil {
				return err
			}
			if err := manager.Save(access, refresh); err != nil {
				return err
			}
			log.Info().Str("config", store.Path()).Msg("credentials saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&flagUser, "user", "", "Account identity overriding $"+hqsagent.EnvUser)
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "API endpoint overriding $"+hqsagent.EnvBaseURL)

	return cmd
}
