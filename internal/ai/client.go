package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	defaultTimeout   = 30 * time.Second
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// Completer sends a single prompt to a language model and returns the text
// of its reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ClientOptions configures an AnthropicClient. Zero values fall back to
// defaults.
type ClientOptions struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	// RateLimit caps requests per second; zero disables limiting.
	RateLimit float64

	// BaseURL overrides the Messages API endpoint.
	BaseURL string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// AnthropicClient implements Completer against the Claude Messages API.
type AnthropicClient struct {
	apiKey    string
	model     string
	maxTokens int
	timeout   time.Duration
	url       string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewAnthropicClient creates a client from opts.
func NewAnthropicClient(opts ClientOptions) *AnthropicClient {
	c := &AnthropicClient{
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		url:       opts.BaseURL,
		client:    opts.HTTPClient,
		logger:    opts.Logger,
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.url == "" {
		c.url = apiURL
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "anthropic")
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c
}

// Complete makes a single request to the Messages API and joins the text
// blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &ServiceError{Message: "waiting for rate limiter", Err: err}
		}
	}

	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContentBlock{{Type: "text", Text: prompt}},
		}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ServiceError{Message: "calling Claude API", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ServiceError{Message: "reading response", Err: err}
	}

	c.logger.Debug("completion finished",
		"model", c.model,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", &ServiceError{StatusCode: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return "", &ServiceError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &ServiceError{Message: "decoding response", Err: err}
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
