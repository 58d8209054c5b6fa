package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/portalkeep/internal/agent"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check internet reachability once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := agent.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Session().CheckConnectivity(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "offline: %v\n", err)
				return fmt.Errorf("probe failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "online (%s)\n", cfg.Portal.CheckURL)
			return nil
		},
	}
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Submit the portal login form once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := agent.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Session().Authenticate(cmd.Context()); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Login accepted for %s\n", cfg.Credentials.Username)
			return nil
		},
	}
}
