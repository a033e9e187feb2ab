package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/mailmuse/internal/store"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <email-id>",
	Short: "Summarize an email with Claude",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssist(cmd, args[0], "summary")
	},
}

var replyCmd = &cobra.Command{
	Use:   "reply <email-id>",
	Short: "Draft a reply to an email with Claude",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssist(cmd, args[0], "draft")
	},
}

func runAssist(cmd *cobra.Command, id, kind string) error {
	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.Close()

	if sess.dispatcher == nil {
		return errNoAPIKey
	}

	e, err := sess.store.GetEmail(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no email with id %q", id)
	}
	if err != nil {
		return fmt.Errorf("get email: %w", err)
	}

	var text string
	if kind == "draft" {
		text, err = sess.dispatcher.GenerateReply(cmd.Context(), e.Body)
	} else {
		text, err = sess.dispatcher.Summarize(cmd.Context(), e.Body)
	}
	if err != nil {
		return fmt.Errorf("generate %s: %w", kind, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n\n%s\n", e.Subject, e.Sender, text)
	return nil
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(replyCmd)
}
