package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration with secrets masked",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				data, err := cfg.YAML()
				if err != nil {
					return fmt.Errorf("render config: %w", err)
				}
				cmd.OutOrStdout().Write(data)
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check the configuration and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				notify := "disabled"
				if cfg.NotifyEnabled() {
					notify = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Config OK (notification %s)\n", notify)
				return nil
			},
		},
	)
	return cmd
}
