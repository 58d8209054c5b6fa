package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/me/portalkeep/internal/agent"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Keep the portal session alive until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// Graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := agent.New(ctx, cfg, logger, agent.WithVersion(Version))
			if err != nil {
				return err
			}
			defer a.Close()

			logger.Info("portalkeep starting",
				"version", Version,
				"username", cfg.Credentials.Username,
				"network", cfg.Network.Mode,
				"status_addr", cfg.Status.Addr,
				"store", cfg.Store.Path,
			)
			return a.Run(ctx)
		},
	}
}
