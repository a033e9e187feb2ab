// Package ai wraps the hosted language model behind the three inbox
// actions: summarize, draft a reply and classify.
package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/mailmuse/internal/model"
)

// Dispatcher turns emails into prompts and model replies into results.
// All errors it returns are *ServiceError.
type Dispatcher struct {
	completer   Completer
	concurrency int
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher over c. concurrency bounds
// ClassifyAll; values below 1 mean 1.
func NewDispatcher(c Completer, concurrency int, logger *slog.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		completer:   c,
		concurrency: concurrency,
		logger:      logger.With("component", "dispatcher"),
	}
}

// Summarize returns a short summary of body.
func (d *Dispatcher) Summarize(ctx context.Context, body string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	if err := d.complete(ctx, "summarize", summarizePrompt(body), &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", &ServiceError{Op: "summarize", Message: "empty summary"}
	}
	return strings.TrimSpace(out.Summary), nil
}

// GenerateReply returns a draft reply to body.
func (d *Dispatcher) GenerateReply(ctx context.Context, body string) (string, error) {
	var out struct {
		DraftText string `json:"draftText"`
	}
	if err := d.complete(ctx, "generate_reply", replyPrompt(body), &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.DraftText) == "" {
		return "", &ServiceError{Op: "generate_reply", Message: "empty draft"}
	}
	return strings.TrimSpace(out.DraftText), nil
}

// Classify returns the sentiment and priority of an email. Labels outside
// the known sets become neutral and medium.
func (d *Dispatcher) Classify(ctx context.Context, subject, body string) (model.Classification, error) {
	var out struct {
		Sentiment string `json:"sentiment"`
		Priority  string `json:"priority"`
	}
	if err := d.complete(ctx, "classify", classifyPrompt(subject, body), &out); err != nil {
		return model.Classification{}, err
	}

	c := model.Classification{
		Sentiment: model.Sentiment(strings.ToLower(strings.TrimSpace(out.Sentiment))),
		Priority:  model.Priority(strings.ToLower(strings.TrimSpace(out.Priority))),
	}
	if !c.Sentiment.Valid() {
		d.logger.Debug("unknown sentiment label", "label", out.Sentiment)
		c.Sentiment = model.SentimentNeutral
	}
	if !c.Priority.Valid() {
		d.logger.Debug("unknown priority label", "label", out.Priority)
		c.Priority = model.PriorityMedium
	}
	return c, nil
}

// ClassifyAll fills in missing sentiment and priority labels, running up to
// the configured number of classify calls at once. Labels already present
// are kept. An email whose classification fails is logged and left
// unchanged; only cancellation or expiry of ctx fails the batch. The input slice is
// not modified.
func (d *Dispatcher) ClassifyAll(ctx context.Context, emails []model.Email) ([]model.Email, error) {
	out := make([]model.Email, len(emails))
	copy(out, emails)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i := range out {
		e := &out[i]
		if e.Sentiment != "" && e.Priority != "" {
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := d.Classify(ctx, e.Subject, e.Body)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				d.logger.Warn("classify failed", "email_id", e.ID, "error", err)
				return nil
			}
			if e.Sentiment == "" {
				e.Sentiment = c.Sentiment
			}
			if e.Priority == "" {
				e.Priority = c.Priority
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// complete sends prompt and decodes the JSON object in the reply into v.
func (d *Dispatcher) complete(ctx context.Context, op, prompt string, v any) error {
	text, err := d.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		d.logger.Warn("completion failed", "op", op, "error", err)
		return withOp(op, err)
	}

	if err := json.Unmarshal([]byte(extractJSON(text)), v); err != nil {
		d.logger.Warn("undecodable model output", "op", op, "error", err)
		return &ServiceError{Op: op, Message: "decoding model output", Err: err}
	}
	return nil
}
