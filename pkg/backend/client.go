// Package backend is the agent's client for the social trading backend.
// Every call is best-effort: failures are logged and the caller sees an empty
// or false result, never an error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chainsafe/copytrade-relayer/internal/metrics"
	"github.com/chainsafe/copytrade-relayer/pkg/auth"
	"github.com/chainsafe/copytrade-relayer/pkg/config"
	"go.uber.org/zap"
)

const (
	headerAgentSecret = "x-agent-secret"
	tokenIssuer       = "copytrade-relayer"
)

// Client calls the backend REST API
type Client struct {
	baseURL    string
	secret     string
	tokens     *auth.TokenIssuer
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient creates a new backend client
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		secret:     cfg.AgentSecret,
		tokens:     auth.NewTokenIssuer(cfg.AgentSecret, tokenIssuer, cfg.TokenTTL),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("backend"),
		now:        time.Now,
	}
}

// CreateTradeProposal creates a proposal and reports whether the backend accepted it
func (c *Client) CreateTradeProposal(ctx context.Context, p Proposal) bool {
	var out proposalResponse
	status, err := c.do(ctx, http.MethodPost, "/trade-proposals", p.request(), &out, true)
	if err != nil {
		c.logger.Error("Failed to create trade proposal",
			zap.String("user", p.UserAddress),
			zap.String("type", string(p.Type)),
			zap.Int("status", status),
			zap.Error(err))
		return false
	}

	metrics.ProposalsCreated.WithLabelValues(string(p.Type)).Inc()
	c.logger.Info("Trade proposal created",
		zap.String("proposal_id", out.Proposal.ID),
		zap.String("user", p.UserAddress),
		zap.String("type", string(p.Type)))
	return true
}

// FetchPendingOrders returns the orders awaiting execution, empty on any failure
func (c *Client) FetchPendingOrders(ctx context.Context) []PendingOrder {
	var out ordersResponse
	if _, err := c.do(ctx, http.MethodGet, "/orders/agent/pending", nil, &out, true); err != nil {
		c.logger.Debug("Failed to fetch pending orders", zap.Error(err))
		return nil
	}
	return out.Orders
}

// UpdateOrderStatus reports the outcome of an order
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus, txHash string) {
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	if _, err := c.do(ctx, http.MethodPatch, path, statusRequest{Status: status, TxHash: txHash}, nil, true); err != nil {
		c.logger.Warn("Failed to update order status",
			zap.String("order_id", orderID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

// FetchUnprocessedIdeas returns idea posts the agent has not handled yet
func (c *Client) FetchUnprocessedIdeas(ctx context.Context) []IdeaPost {
	var out ideasResponse
	if _, err := c.do(ctx, http.MethodGet, "/posts/agent/unprocessed-ideas", nil, &out, true); err != nil {
		c.logger.Debug("Failed to fetch idea posts", zap.Error(err))
		return nil
	}
	return out.Ideas
}

// MarkIdeaProcessed tells the backend an idea has been handled
func (c *Client) MarkIdeaProcessed(ctx context.Context, postID string) {
	if _, err := c.do(ctx, http.MethodPost, "/posts/agent/mark-processed", markProcessedRequest{PostID: postID}, nil, true); err != nil {
		c.logger.Warn("Failed to mark idea processed", zap.String("post_id", postID), zap.Error(err))
	}
}

// Notify sends an event to the backend's notification sink
func (c *Client) Notify(ctx context.Context, event string, data map[string]any) {
	body := eventRequest{Event: event, Data: data, Timestamp: c.now().UnixMilli()}
	if _, err := c.do(ctx, http.MethodPost, "/agent/events", body, nil, false); err != nil {
		c.logger.Debug("Failed to notify backend", zap.String("event", event), zap.Error(err))
	}
}

// do performs one request. A non-2xx response is an error carrying the status.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authenticated bool) (int, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		c.authenticate(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("backend", "unreachable").Inc()
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) authenticate(req *http.Request) {
	if c.secret == "" {
		return
	}
	req.Header.Set(headerAgentSecret, c.secret)
	token, err := c.tokens.Issue(auth.AgentSubject)
	if err != nil {
		c.logger.Warn("Failed to issue agent token", zap.Error(err))
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}
