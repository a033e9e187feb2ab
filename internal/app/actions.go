package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailmuse/internal/credential"
	"github.com/nhle/mailmuse/internal/mailbox"
	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/ui/account"
	"github.com/nhle/mailmuse/internal/ui/toast"
)

// statusSavedMsg is sent after a status change has been written to the
// store. The controller only sees the change once the write succeeded.
type statusSavedMsg struct {
	email model.Email
	err   error
}

// accountSavedMsg is sent after the account form has been persisted.
type accountSavedMsg struct {
	account model.Account
	apiKey  string
	err     error
}

// toggleSelected flips the status of the selected email. It is ignored
// while an earlier toggle is still being saved.
func (m *Model) toggleSelected() tea.Cmd {
	if m.savingStatus {
		return nil
	}
	selected, ok := m.mailbox.SelectedEmail()
	if !ok {
		return nil
	}
	updated := mailbox.ToggleStatus(selected)
	m.savingStatus = true

	s := m.opts.Store
	if s == nil {
		return func() tea.Msg { return statusSavedMsg{email: updated} }
	}
	return func() tea.Msg {
		err := s.UpdateEmail(context.Background(), updated)
		return statusSavedMsg{email: updated, err: err}
	}
}

// recordNotification keeps a raised toast for the dashboard's activity list.
func (m Model) recordNotification(n model.Notification) tea.Cmd {
	s, logger := m.opts.Store, m.logger
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		if err := s.CreateNotification(context.Background(), n); err != nil {
			logger.Warn("recording notification failed", "error", err)
		}
		return nil
	}
}

// saveAccount writes the account to the config file and the API key, if
// one was entered, to the keyring.
func (m Model) saveAccount(msg account.SavedMsg) tea.Cmd {
	cfg := *m.opts.Config
	cfg.Account = msg.Account
	path := m.opts.ConfigPath
	saveKey := m.opts.SaveAPIKey
	if saveKey == nil {
		saveKey = func(apiKey string) error {
			return credential.Set(credential.AnthropicKey, apiKey)
		}
	}

	return func() tea.Msg {
		if path != "" {
			if err := model.SaveConfig(path, &cfg); err != nil {
				return accountSavedMsg{err: err}
			}
		}
		if msg.APIKey != "" {
			if err := saveKey(msg.APIKey); err != nil {
				return accountSavedMsg{err: fmt.Errorf("storing api key: %w", err)}
			}
		}
		return accountSavedMsg{account: msg.Account, apiKey: msg.APIKey}
	}
}

func (m Model) handleAccountSaved(msg accountSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("saving account failed", "error", msg.err)
		return m, toast.Error("", "Account not saved", msg.err.Error())
	}

	m.opts.Config.Account = msg.account
	hasAssistant := m.opts.Assistant != nil
	if msg.apiKey != "" && m.opts.NewAssistant != nil {
		if a := m.opts.NewAssistant(msg.apiKey); a != nil {
			m.opts.Assistant = a
			m.display.SetAssistant(a)
			hasAssistant = true
		}
	}
	m.accountView.SetAccount(msg.account, hasAssistant)

	return m, toast.Info("Account updated", "Your account details were saved.")
}
