package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/mailmuse/internal/app"
	appsync "github.com/nhle/mailmuse/internal/sync"
	"github.com/nhle/mailmuse/internal/ui/maildisplay"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive inbox (default)",
	Long: `Open the interactive inbox. This is what running mailmuse without a
subcommand does.

Navigation:
  ↑/k, ↓/j    Move up/down
  /           Search sender, subject and body
  1/2/3, Tab  Filter all / pending / resolved
  x           Toggle pending/resolved
  s, g        Summarize / draft a reply with AI
  e, Enter    Edit / send the draft
  d, A        Dashboard / account
  r           Reload the mailbox
  :           Command palette
  ?           Help
  q           Quit`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.Close()

	interval := time.Duration(cfg.Mailbox.ReloadIntervalSec) * time.Second
	poller := appsync.New(sess.ingester, sess.store, interval, logger)
	defer poller.Stop()

	opts := app.Options{
		Store: sess.store,
		NewAssistant: func(apiKey string) maildisplay.Assistant {
			return newDispatcher(apiKey)
		},
		Poller:     poller,
		Config:     cfg,
		ConfigPath: configPath(),
		Logger:     logger,
	}
	if sess.dispatcher != nil {
		opts.Assistant = sess.dispatcher
	}

	p := tea.NewProgram(
		app.New(sess.emails, opts),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
