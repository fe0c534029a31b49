package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chainsafe/copytrade-relayer/internal/metrics"
	"github.com/chainsafe/copytrade-relayer/pkg/config"
	"go.uber.org/zap"
)

const (
	messagesPath = "/v1/messages"
	apiVersion   = "2023-06-01"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Client asks a hosted language model for verdicts over its Messages API
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

var _ Oracle = (*Client)(nil)

// NewClient creates a new oracle client
func NewClient(cfg config.OracleConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("oracle"),
		now:        time.Now,
	}
}

// New returns the HTTP client when an API key is configured and the
// not-configured fallback otherwise.
func New(cfg config.OracleConfig, logger *zap.Logger) Oracle {
	if cfg.APIKey == "" {
		logger.Warn("No oracle API key set, every decision will be skip")
		return NotConfigured()
	}
	return NewClient(cfg, logger)
}

// EvaluateLeaderSwap asks whether a leader's swap should be copied
func (c *Client) EvaluateLeaderSwap(ctx context.Context, in LeaderSwapContext) Verdict {
	var v Verdict
	c.decide(ctx, "leader_swap", leaderSwapPrompt(in), &v)
	return c.record("leader_swap", v)
}

// EvaluateLimitOrder asks whether a limit order should execute now
func (c *Client) EvaluateLimitOrder(ctx context.Context, in LimitOrderContext) Verdict {
	var v Verdict
	c.decide(ctx, "limit_order", limitOrderPrompt(in, c.now()), &v)
	return c.record("limit_order", v)
}

// AnalyzeIdea asks whether an idea post should become proposals. The order
// type is derived from the idea, never from the model.
func (c *Client) AnalyzeIdea(ctx context.Context, in IdeaContext) IdeaVerdict {
	var v IdeaVerdict
	c.decide(ctx, "idea", ideaPrompt(in), &v)
	v.OrderType = in.OrderType()
	v.Verdict = c.record("idea", v.Verdict)
	return v
}

func (c *Client) record(source string, v Verdict) Verdict {
	metrics.Decisions.WithLabelValues(source, string(v.Action)).Inc()
	return v
}

// decide fills out from the model's answer. On any failure out's embedded
// verdict is replaced by a wait verdict with zero confidence.
func (c *Client) decide(ctx context.Context, source, prompt string, out any) {
	err := c.complete(ctx, prompt, out)
	if err == nil {
		err = validateAction(out)
	}
	if err == nil {
		return
	}

	c.logger.Warn("Oracle call failed", zap.String("source", source), zap.Error(err))
	metrics.ErrorsTotal.WithLabelValues("oracle", "decide").Inc()
	fallback := Verdict{Action: ActionWait, Reason: "AI error: " + err.Error()}
	switch v := out.(type) {
	case *Verdict:
		*v = fallback
	case *IdeaVerdict:
		*v = IdeaVerdict{Verdict: fallback}
	}
}

func validateAction(out any) error {
	var action Action
	switch v := out.(type) {
	case *Verdict:
		action = v.Action
	case *IdeaVerdict:
		action = v.Action
	}
	if !action.Valid() {
		return fmt.Errorf("invalid action: %q", action)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, prompt string, out any) error {
	payload, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var body messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(body.Content) == 0 || body.Content[0].Type != "text" {
		return errors.New("response has no text content")
	}

	return parseAnswer(body.Content[0].Text, out)
}

// parseAnswer decodes a JSON answer, tolerating a surrounding markdown fence
func parseAnswer(text string, out any) error {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}
	return nil
}
