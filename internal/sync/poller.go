package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailmuse/internal/model"
	"github.com/nhle/mailmuse/internal/store"
)

// ReloadState represents the current state of the reload loop.
type ReloadState int

const (
	ReloadIdle ReloadState = iota
	ReloadRunning
	ReloadError
)

// ReloadStatus holds the reload state for the mailbox source.
type ReloadStatus struct {
	State      ReloadState
	LastReload time.Time
	Error      error
}

// ReloadResultMsg is a tea.Msg sent when a reload completes. Emails is the
// full stored set in insertion order; it is nil when Error is set.
type ReloadResultMsg struct {
	Emails   []model.Email
	NewCount int
	Error    error
}

// reloadTimeout is the maximum time allowed for a single reload.
const reloadTimeout = 2 * time.Minute

// Poller re-runs an Ingester on a timer and on demand.
type Poller struct {
	ingester  *Ingester
	store     store.Store
	interval  time.Duration
	status    ReloadStatus
	resultCh  chan ReloadResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
	logger    *slog.Logger
}

// New creates a poller. An interval of zero disables timed reloads;
// Trigger still works.
func New(in *Ingester, s store.Store, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		ingester:  in,
		store:     s,
		interval:  interval,
		resultCh:  make(chan ReloadResultMsg, 4),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		logger:    logger.With("component", "poller"),
	}
}

// Start launches the reload goroutine and returns a tea.Cmd that delivers
// the first ReloadResultMsg. Call WaitForNextResult after handling each
// result to keep listening. A stopped poller may be started again.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go p.loop(stop)

	return p.waitForResult()
}

// Stop halts the reload goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Trigger requests an immediate reload. Requests made while one is
// already pending are coalesced.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the current reload status.
func (p *Poller) Status() ReloadStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop(stop <-chan struct{}) {
	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-stop:
			return
		case <-tick:
			p.reload()
		case <-p.triggerCh:
			p.reload()
		}
	}
}

// reload runs the ingester once and publishes the resulting record set.
func (p *Poller) reload() {
	p.setStatus(ReloadRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	fresh, err := p.ingester.Run(ctx)
	if err != nil {
		p.logger.Warn("reload failed", "error", err)
		p.setStatus(ReloadError, err)
		p.sendResult(ReloadResultMsg{Error: err})
		return
	}

	for _, e := range fresh {
		n := model.Notification{
			EmailID:   e.ID,
			Level:     model.LevelInfo,
			Title:     "New email",
			Message:   fmt.Sprintf("%s: %s", e.Sender, e.Subject),
			CreatedAt: time.Now(),
		}
		if err := p.store.CreateNotification(ctx, n); err != nil {
			p.logger.Warn("recording notification failed", "email_id", e.ID, "error", err)
		}
	}

	emails, err := p.store.ListEmails(ctx, store.EmailFilter{})
	if err != nil {
		err = fmt.Errorf("listing emails after reload: %w", err)
		p.setStatus(ReloadError, err)
		p.sendResult(ReloadResultMsg{Error: err})
		return
	}

	p.setStatus(ReloadIdle, nil)
	p.sendResult(ReloadResultMsg{Emails: emails, NewCount: len(fresh)})
}

func (p *Poller) setStatus(state ReloadState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == ReloadIdle {
		p.status.LastReload = time.Now()
	}
}

// sendResult sends a ReloadResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg ReloadResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		p.logger.Debug("dropping reload result, channel full")
	}
}

// waitForResult waits on the stop channel of the current run, so a waiter
// created before Stop returns nil even if the poller is started again.
func (p *Poller) waitForResult() tea.Cmd {
	p.mu.Lock()
	stop := p.stopCh
	p.mu.Unlock()

	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-stop:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next reload result.
// This should be called after processing a ReloadResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
