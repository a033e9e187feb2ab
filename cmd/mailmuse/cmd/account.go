package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/mailmuse/internal/credential"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the account and manage the API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:          %s\n", cfg.Account.Name)
		fmt.Fprintf(out, "Email:         %s\n", cfg.Account.Email)
		fmt.Fprintf(out, "Plan:          %s\n", cfg.Account.Plan)
		fmt.Fprintf(out, "Member since:  %s\n", cfg.Account.MemberSince)

		apiKey, err := credential.APIKey()
		switch {
		case err != nil:
			fmt.Fprintf(out, "AI key:        unreadable (%v)\n", err)
		case apiKey == "":
			fmt.Fprintln(out, "AI key:        not configured")
		default:
			fmt.Fprintln(out, "AI key:        configured")
		}
		return nil
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key [key]",
	Short: "Store the Anthropic API key in the system keyring",
	Long: `Store the Anthropic API key in the system keyring. Without an
argument the key is read from a masked prompt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var apiKey string
		if len(args) == 1 {
			apiKey = args[0]
		} else {
			err := huh.NewInput().
				Title("Anthropic API Key").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey).
				Run()
			if err != nil {
				return err
			}
		}

		apiKey = strings.TrimSpace(apiKey)
		if apiKey == "" {
			return errors.New("api key is empty")
		}
		if err := credential.Set(credential.AnthropicKey, apiKey); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
		return nil
	},
}

var deleteKeyCmd = &cobra.Command{
	Use:   "delete-key",
	Short: "Remove the Anthropic API key from the system keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := credential.Delete(credential.AnthropicKey)
		if errors.Is(err, keyring.ErrKeyNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No API key stored.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
		return nil
	},
}

func init() {
	accountCmd.AddCommand(setKeyCmd)
	accountCmd.AddCommand(deleteKeyCmd)
	rootCmd.AddCommand(accountCmd)
}
