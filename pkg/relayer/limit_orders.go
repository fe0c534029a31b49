package relayer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chainsafe/copytrade-relayer/internal/metrics"
	"github.com/chainsafe/copytrade-relayer/pkg/backend"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/oracle"
	"go.uber.org/zap"
)

// unknownPrice stands in for the pool price until an on-chain price read is wired
const unknownPrice = "0"

// errProposalNotCreated leaves an order unprocessed so the next scan retries it
var errProposalNotCreated = errors.New("limit-order proposal was not created")

// LimitOrderScanner asks the oracle whether open hook limit orders should
// trigger and proposes the ones that should
type LimitOrderScanner struct {
	hook    Hook
	oracle  oracle.Oracle
	backend Backend
	store   ProcessedStore
	logger  *zap.Logger
}

// NewLimitOrderScanner creates a scanner. A nil hook disables it.
func NewLimitOrderScanner(hook Hook, o oracle.Oracle, b Backend, store ProcessedStore, logger *zap.Logger) *LimitOrderScanner {
	return &LimitOrderScanner{
		hook:    hook,
		oracle:  o,
		backend: b,
		store:   store,
		logger:  logger.Named("limit_orders"),
	}
}

// Scan visits every unprocessed order index in ascending order
func (s *LimitOrderScanner) Scan(ctx context.Context) error {
	if s.hook == nil {
		return nil
	}

	count, err := s.hook.LimitOrderCount(ctx)
	if err != nil {
		return fmt.Errorf("get limit order count: %w", err)
	}
	if count == 0 {
		return nil
	}

	s.logger.Debug("Checking limit orders", zap.Uint64("count", count))

	for i := uint64(0); i < count; i++ {
		key := strconv.FormatUint(i, 10)
		seen, err := s.store.IsProcessed(ctx, db.KindLimitOrder, key)
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("limit_orders", "store").Inc()
			s.logger.Error("Failed to check limit order", zap.Uint64("order_index", i), zap.Error(err))
			continue
		}
		if seen {
			continue
		}
		if err := s.check(ctx, i, key); err != nil {
			metrics.ErrorsTotal.WithLabelValues("limit_orders", "order").Inc()
			s.logger.Error("Failed to process limit order", zap.Uint64("order_index", i), zap.Error(err))
		}
	}
	return nil
}

func (s *LimitOrderScanner) check(ctx context.Context, index uint64, key string) error {
	order, err := s.hook.LimitOrder(ctx, index)
	if err != nil {
		return err
	}

	if order.Executed {
		s.markProcessed(ctx, key, "executed on-chain")
		return nil
	}

	metrics.EventsDetected.WithLabelValues("hook", "limit_order").Inc()
	amount := hookAmount(order.AmountSpecified)
	logger := s.logger.With(
		zap.Uint64("order_index", index),
		zap.String("owner", order.Owner.Hex()))

	var createdAt time.Time
	if order.CreatedAt != nil && order.CreatedAt.IsInt64() {
		createdAt = time.Unix(order.CreatedAt.Int64(), 0)
	}

	verdict := s.oracle.EvaluateLimitOrder(ctx, oracle.LimitOrderContext{
		OrderID:      index,
		Owner:        order.Owner,
		ZeroForOne:   order.ZeroForOne,
		Amount:       amount,
		TriggerPrice: bigString(order.TriggerPrice),
		CurrentPrice: unknownPrice,
		CreatedAt:    createdAt,
	})
	logger.Info("Oracle verdict",
		zap.String("trigger_price", bigString(order.TriggerPrice)),
		zap.String("action", string(verdict.Action)),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("reason", verdict.Reason))

	if !verdict.Approves(oracle.LimitOrderThreshold) {
		return nil
	}

	created := s.backend.CreateTradeProposal(ctx, backend.Proposal{
		UserAddress:  order.Owner.Hex(),
		Type:         backend.ProposalLimitOrder,
		ZeroForOne:   order.ZeroForOne,
		Amount:       amount,
		AIConfidence: verdict.Confidence,
		AIReason:     verdict.Reason,
		SlippageBps:  verdict.SlippageBps(),
		Urgency:      verdict.Urgency(),
	})
	if !created {
		return errProposalNotCreated
	}

	// the proposal exists from here on, so the index is consumed whatever
	// happens to the mark transaction
	txHash, markErr := s.hook.MarkLimitOrderExecuted(ctx, index)
	if markErr == nil {
		logger.Info("Limit order executed", zap.String("tx_hash", txHash.Hex()))
		s.backend.Notify(ctx, backend.EventOrderExecuted, map[string]any{
			"orderId": index,
			"txHash":  txHash.Hex(),
		})
	}
	s.markProcessed(ctx, key, txHash.Hex())

	if markErr != nil {
		return fmt.Errorf("mark order executed: %w", markErr)
	}
	return nil
}

func (s *LimitOrderScanner) markProcessed(ctx context.Context, key, note string) {
	if _, err := s.store.MarkProcessed(ctx, db.KindLimitOrder, key, note); err != nil {
		metrics.ErrorsTotal.WithLabelValues("limit_orders", "store").Inc()
		s.logger.Error("Failed to record limit order", zap.String("order_index", key), zap.Error(err))
	}
}
