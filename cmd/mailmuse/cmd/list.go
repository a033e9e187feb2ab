package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/mailmuse/internal/mailbox"
	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/ui/maillist"
)

var (
	listStatus string
	listSearch string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the inbox as a table",
	Long: `Print the emails that match a status filter and search term, in the
same order as the interactive inbox.

Examples:
  mailmuse list
  mailmuse list --status pending
  mailmuse list --search invoice --seed ./mail`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := mailbox.ParseStatusFilter(listStatus)
		if err != nil {
			return err
		}

		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		c := mailbox.New(sess.emails)
		c.SetStatusFilter(filter)
		c.SetSearchTerm(listSearch)
		writeEmailTable(cmd.OutOrStdout(), c.VisibleEmails(), len(sess.emails))
		return nil
	},
}

// writeEmailTable prints emails with a footer counting them against total.
func writeEmailTable(w io.Writer, emails []model.Email, total int) {
	if len(emails) == 0 {
		fmt.Fprintln(w, "No emails found.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "FROM", "SUBJECT", "STATUS", "PRIORITY", "SENTIMENT", "RECEIVED").
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
	for _, e := range emails {
		t.Row(
			e.ID,
			e.Sender,
			maillist.Preview(e.Subject, 48),
			string(e.Status),
			string(e.Priority),
			string(e.Sentiment),
			received(e),
		)
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d of %d emails\n", len(emails), total)
}

func received(e model.Email) string {
	if e.ReceivedAt.IsZero() {
		return "-"
	}
	return humanize.Time(e.ReceivedAt)
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", string(mailbox.FilterAll),
		"status filter: "+strings.Join(filterNames(), ", "))
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "match sender, subject or body")
	rootCmd.AddCommand(listCmd)
}

func filterNames() []string {
	names := make([]string, len(mailbox.StatusFilters))
	for i, f := range mailbox.StatusFilters {
		names[i] = string(f)
	}
	return names
}
