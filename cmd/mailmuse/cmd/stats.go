package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/mailmuse/internal/model"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show inbox statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		stats, err := sess.store.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Source: %s\n", sess.ingester.Source().Location())
		fmt.Fprintf(out, "  Emails:    %d\n", stats.Total)
		fmt.Fprintf(out, "  Pending:   %d\n", stats.Pending)
		fmt.Fprintf(out, "  Resolved:  %d\n", stats.Resolved)
		fmt.Fprintln(out, "Sentiment")
		for _, s := range model.Sentiments {
			fmt.Fprintf(out, "  %-10s %d\n", s+":", stats.BySentiment[s])
		}
		fmt.Fprintln(out, "Priority")
		for _, p := range model.Priorities {
			fmt.Fprintf(out, "  %-10s %d\n", p+":", stats.ByPriority[p])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
