// Package attestation polls the bridge's attestation service until a burn
// message has been signed.
package attestation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chainsafe/copytrade-relayer/internal/metrics"
	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/chainsafe/copytrade-relayer/pkg/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// StatusComplete is the only status that carries a usable attestation
const StatusComplete = "complete"

// Record is a signed burn message ready to be minted on the destination chain
type Record struct {
	Message     []byte
	Attestation []byte
	Status      string
}

type messagesResponse struct {
	Messages []struct {
		Message     string `json:"message"`
		Attestation string `json:"attestation"`
		Status      string `json:"status"`
	} `json:"messages"`
}

// Poller fetches attestations from the attestation service
type Poller struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	interval    time.Duration
	cooldown    time.Duration
	logger      *zap.Logger
}

// NewPoller creates a new poller
func NewPoller(cfg config.AttestationConfig, logger *zap.Logger) *Poller {
	return &Poller{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		maxAttempts: cfg.MaxAttempts,
		interval:    cfg.Interval,
		cooldown:    cfg.RateLimitCooldown,
		logger:      logger.Named("attestation"),
	}
}

// AwaitAttestation polls until the burn in txHash on sourceDomain has a
// complete attestation. Each attempt, including rate-limited ones, counts
// against the attempt budget.
func (p *Poller) AwaitAttestation(ctx context.Context, sourceDomain uint32, txHash common.Hash) (*Record, error) {
	url := fmt.Sprintf("%s/v2/messages/%d?transactionHash=%s", p.baseURL, sourceDomain, txHash.Hex())
	domain := strconv.FormatUint(uint64(sourceDomain), 10)

	p.logger.Info("Polling attestation",
		zap.Uint32("source_domain", sourceDomain),
		zap.String("tx_hash", txHash.Hex()))

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		record, status, err := p.fetch(ctx, url)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.AttestationPolls.WithLabelValues(domain, "error").Inc()
			p.logger.Debug("Attestation poll failed", zap.Int("attempt", attempt), zap.Error(err))
		case status == http.StatusTooManyRequests:
			metrics.AttestationPolls.WithLabelValues(domain, "rate_limited").Inc()
			p.logger.Warn("Attestation service rate limited", zap.Duration("cooldown", p.cooldown))
			if err := sleep(ctx, p.cooldown); err != nil {
				return nil, err
			}
			continue
		case status == http.StatusNotFound:
			metrics.AttestationPolls.WithLabelValues(domain, "pending").Inc()
		case record != nil:
			metrics.AttestationPolls.WithLabelValues(domain, "complete").Inc()
			p.logger.Info("Attestation received",
				zap.String("tx_hash", txHash.Hex()),
				zap.Int("attempts", attempt))
			return record, nil
		default:
			metrics.AttestationPolls.WithLabelValues(domain, "pending").Inc()
		}

		if attempt%10 == 0 {
			p.logger.Info("Still waiting for attestation",
				zap.String("tx_hash", txHash.Hex()),
				zap.Int("attempt", attempt))
		}
		if err := sleep(ctx, p.interval); err != nil {
			return nil, err
		}
	}

	return nil, apperrors.TimeoutError(nil, "attestation timeout for "+txHash.Hex())
}

// fetch performs one request. record is non-nil only for a complete attestation.
func (p *Poller) fetch(ctx context.Context, url string) (*Record, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusTooManyRequests {
			return nil, resp.StatusCode, nil
		}
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(body.Messages) == 0 || body.Messages[0].Status != StatusComplete {
		return nil, resp.StatusCode, nil
	}

	msg := body.Messages[0]
	message, err := hexutil.Decode(msg.Message)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("invalid message bytes: %w", err)
	}
	attestation, err := hexutil.Decode(msg.Attestation)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("invalid attestation bytes: %w", err)
	}

	return &Record{Message: message, Attestation: attestation, Status: msg.Status}, resp.StatusCode, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
