package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/portalkeep/internal/config"
	"github.com/me/portalkeep/internal/logging"
)

// Version is set at build time with -ldflags "-X github.com/me/portalkeep/internal/cli.Version=...".
var Version = "0.1.0"

var (
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// defaultConfig returns the default config path, checking PORTALKEEP_CONFIG env var first.
func defaultConfig() string {
	return os.Getenv("PORTALKEEP_CONFIG")
}

// NewRootCmd creates the root cobra command for the portalkeep CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "portalkeep",
		Short:   "portalkeep keeps a host logged in to a captive portal",
		Long:    "portalkeep probes for internet access on an interval and submits the captive portal login form when the probe fails.",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", defaultConfig(), "Config file (or PORTALKEEP_CONFIG env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newProbeCmd(),
		newLoginCmd(),
		newStatusCmd(),
		newHistoryCmd(),
		newConfigCmd(),
	)

	return root
}

// loadConfig reads the config file. Log settings from the file apply unless
// they were given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	level, format := cfg.Log.Level, cfg.Log.Format
	if flags.Changed("log-level") || flagDebug {
		level = flagLogLevel
	}
	if flags.Changed("log-format") {
		format = flagLogFormat
	}
	logger = logging.NewLoggerWithWriter(logging.ParseLevel(level), format, cmd.ErrOrStderr())
	return cfg, nil
}
