package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/portalkeep/pkg/model"
)

func newHistoryCmd() *cobra.Command {
	var kind string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded probes, logins and notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, ok := model.ParseEventKind(kind)
			if !ok {
				return fmt.Errorf("unknown kind %q (want probe, login or notify)", kind)
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

			events, total, err := st.ListEvents(cmd.Context(), model.ListOptions{Kind: k, Limit: limit})
			if err != nil {
				return fmt.Errorf("list events: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No events recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-20s  %-7s  %-18s  %s\n", "WHEN", "KIND", "RESULT", "DETAIL")
			fmt.Fprintf(out, "%-20s  %-7s  %-18s  %s\n", "----", "----", "------", "------")
			for _, ev := range events {
				fmt.Fprintf(out, "%-20s  %-7s  %-18s  %s\n", humanize.Time(ev.CreatedAt), ev.Kind, describe(ev), ev.Detail)
			}
			if len(events) < total {
				fmt.Fprintf(out, "\n(%d of %s shown)\n", len(events), humanize.Comma(int64(total)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only show events of this kind (probe, login, notify)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events")
	return cmd
}
