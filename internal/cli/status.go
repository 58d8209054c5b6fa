package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/portalkeep/internal/config"
	"github.com/me/portalkeep/internal/store"
	"github.com/me/portalkeep/pkg/model"
)

func newStatusCmd() *cobra.Command {
	var remote string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest probe, login and notification",
		Long: "Without --remote, status reads the local history database. With --remote, it asks a\n" +
			"running daemon's status API for the live session state.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote != "" {
				return remoteStatus(cmd, remote)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cmd, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Portal:   %s\n", cfg.Portal.LoginURL)
			fmt.Fprintf(out, "Interval: %s\n", cfg.Timing.CheckInterval)
			for _, kind := range []model.EventKind{model.EventKindProbe, model.EventKindLogin, model.EventKindNotify} {
				ev, err := st.LastEvent(cmd.Context(), kind)
				if err != nil {
					return fmt.Errorf("last %s: %w", kind, err)
				}
				label := fmt.Sprintf("Last %s:", kind)
				if ev == nil {
					fmt.Fprintf(out, "%-13s never\n", label)
					continue
				}
				fmt.Fprintf(out, "%-13s %s, %s\n", label, describe(ev), humanize.Time(ev.CreatedAt))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "Status API base URL of a running daemon (e.g. http://127.0.0.1:8089)")
	return cmd
}

func remoteStatus(cmd *cobra.Command, baseURL string) error {
	c := NewClient(baseURL, logger)
	resp, err := c.Get(cmd.Context(), "/api/v1/status")
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	var st model.SessionStatus
	if err := json.Unmarshal(resp.Data, &st); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Interval:   %s\n", st.Interval)
	if st.LastCheck == nil {
		fmt.Fprintln(out, "Last check: pending")
	} else {
		fmt.Fprintf(out, "Last check: %s\n", humanize.Time(*st.LastCheck))
		fmt.Fprintf(out, "Next check: %s\n", humanize.Time(*st.NextCheck))
	}
	switch {
	case !st.NotifyEnabled:
		fmt.Fprintln(out, "Notify:     disabled")
	case st.Notified:
		fmt.Fprintln(out, "Notify:     sent")
	default:
		fmt.Fprintln(out, "Notify:     pending")
	}
	return nil
}

// openStore opens the configured history database.
func openStore(cmd *cobra.Command, cfg *config.Config) (*store.SQLiteStore, error) {
	if cfg.Store.Path == "" {
		return nil, errors.New("store.path is not set; history is disabled")
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(cmd.Context()); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}

// describe renders an event's outcome in a few words.
func describe(ev *model.Event) string {
	result := "ok"
	if !ev.OK {
		result = "failed"
	}
	if ev.StatusCode != 0 {
		result += fmt.Sprintf(" (HTTP %d)", ev.StatusCode)
	}
	return result
}
