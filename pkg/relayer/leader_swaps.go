package relayer

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/chainsafe/copytrade-relayer/internal/metrics"
	"github.com/chainsafe/copytrade-relayer/pkg/backend"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/chainsafe/copytrade-relayer/pkg/oracle"
	"go.uber.org/zap"
)

const (
	// hookAmountDecimals is the precision the hook reports swap amounts in
	hookAmountDecimals = 18

	defaultMaxBlockRange = 2000
)

// LeaderSwapWatcher relays leaders' swaps to their followers as proposals
type LeaderSwapWatcher struct {
	hook    Hook
	oracle  oracle.Oracle
	backend Backend
	store   ProcessedStore
	chain   string
	catchUp uint64
	// maxRange is the widest [from, to] span asked of the hook in one call
	maxRange uint64
	logger   *zap.Logger

	lastBlock atomic.Uint64
	loaded    bool
}

// NewLeaderSwapWatcher creates a watcher. A nil hook disables it.
func NewLeaderSwapWatcher(hook Hook, o oracle.Oracle, b Backend, store ProcessedStore, chain string, catchUp uint64, logger *zap.Logger) *LeaderSwapWatcher {
	return &LeaderSwapWatcher{
		hook:     hook,
		oracle:   o,
		backend:  b,
		store:    store,
		chain:    chain,
		catchUp:  catchUp,
		maxRange: defaultMaxBlockRange,
		logger:   logger.Named("leader_swaps"),
	}
}

// SetMaxBlockRange sets the widest block span fetched in one call. Zero keeps
// the current value.
func (w *LeaderSwapWatcher) SetMaxBlockRange(blocks uint64) {
	if blocks > 0 {
		w.maxRange = blocks
	}
}

// LastBlock returns the last block the watcher has scanned
func (w *LeaderSwapWatcher) LastBlock() uint64 {
	return w.lastBlock.Load()
}

// Scan processes the LeaderSwap events emitted since the last scan. Ranges
// wider than the max block range are fetched in chunks and the cursor is
// persisted after each one. The cursor advances past a chunk even when
// single events in it fail.
func (w *LeaderSwapWatcher) Scan(ctx context.Context) error {
	if w.hook == nil {
		return nil
	}

	current, err := w.hook.LatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}

	if !w.loaded {
		w.loadCursor(ctx)
	}

	for from := w.fromBlock(current); from <= current; from = w.lastBlock.Load() + 1 {
		to := current
		if current-from >= w.maxRange {
			to = from + w.maxRange - 1
		}

		events, err := w.hook.LeaderSwaps(ctx, from, to)
		if err != nil {
			return fmt.Errorf("fetch leader swaps [%d, %d]: %w", from, to, err)
		}
		w.processEvents(ctx, events)
		w.advance(ctx, to)
	}
	return nil
}

func (w *LeaderSwapWatcher) processEvents(ctx context.Context, events []*contracts.CopyTradeHookLeaderSwap) {
	for _, ev := range events {
		txHash := ev.Raw.TxHash.Hex()
		added, err := w.store.MarkProcessed(ctx, db.KindLeaderSwap, txHash, ev.Leader.Hex())
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("leader_swaps", "store").Inc()
			w.logger.Error("Failed to record leader swap", zap.String("tx_hash", txHash), zap.Error(err))
			continue
		}
		if !added {
			continue
		}
		metrics.EventsDetected.WithLabelValues(w.chain, "leader_swap").Inc()
		w.handle(ctx, ev)
	}
}

func (w *LeaderSwapWatcher) advance(ctx context.Context, block uint64) {
	w.lastBlock.Store(block)
	metrics.LastProcessedBlock.WithLabelValues(w.chain).Set(float64(block))
	if err := w.store.SetCursor(ctx, w.chain, block); err != nil {
		w.logger.Warn("Failed to persist cursor", zap.Uint64("block", block), zap.Error(err))
	}
}

func (w *LeaderSwapWatcher) loadCursor(ctx context.Context) {
	block, ok, err := w.store.GetCursor(ctx, w.chain)
	if err != nil {
		w.logger.Warn("Failed to load cursor", zap.Error(err))
		return
	}
	w.loaded = true
	if ok {
		w.lastBlock.Store(block)
		w.logger.Info("Resuming leader swaps", zap.Uint64("block", block))
	}
}

func (w *LeaderSwapWatcher) fromBlock(current uint64) uint64 {
	if last := w.lastBlock.Load(); last > 0 {
		return last + 1
	}
	if current > w.catchUp {
		return current - w.catchUp
	}
	return 0
}

func (w *LeaderSwapWatcher) handle(ctx context.Context, ev *contracts.CopyTradeHookLeaderSwap) {
	amount := hookAmount(ev.AmountSpecified)
	logger := w.logger.With(
		zap.String("leader", ev.Leader.Hex()),
		zap.String("tx_hash", ev.Raw.TxHash.Hex()))

	logger.Info("Leader swap detected",
		zap.Bool("zero_for_one", ev.ZeroForOne),
		zap.String("amount", amount),
		zap.Uint64("block", ev.Raw.BlockNumber))

	followers, err := w.hook.Followers(ctx, ev.Leader)
	if err != nil {
		logger.Warn("Failed to read followers", zap.Error(err))
	}
	tradeCount, err := w.hook.LeaderTradeCount(ctx, ev.Leader)
	if err != nil {
		logger.Warn("Failed to read leader trades", zap.Error(err))
	}

	if len(followers) == 0 {
		logger.Info("No followers, skipping")
		return
	}

	verdict := w.oracle.EvaluateLeaderSwap(ctx, oracle.LeaderSwapContext{
		Leader:           ev.Leader,
		FollowerCount:    len(followers),
		ZeroForOne:       ev.ZeroForOne,
		Amount:           amount,
		Delta0:           bigString(ev.Delta0),
		Delta1:           bigString(ev.Delta1),
		LeaderTradeCount: tradeCount,
	})
	logger.Info("Oracle verdict",
		zap.String("action", string(verdict.Action)),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("reason", verdict.Reason))

	if !verdict.Approves(oracle.LeaderSwapThreshold) {
		return
	}

	for _, follower := range followers {
		w.backend.CreateTradeProposal(ctx, backend.Proposal{
			UserAddress:   follower.Hex(),
			Type:          backend.ProposalCopyTrade,
			ZeroForOne:    ev.ZeroForOne,
			Amount:        amount,
			LeaderAddress: ev.Leader.Hex(),
			AIConfidence:  verdict.Confidence,
			AIReason:      verdict.Reason,
			SlippageBps:   verdict.SlippageBps(),
			Urgency:       verdict.Urgency(),
		})
	}
	logger.Info("Relayed leader swap", zap.Int("followers", len(followers)))
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// hookAmount renders the magnitude of a signed hook amount
func hookAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return ethereum.FormatUnits(new(big.Int).Abs(v), hookAmountDecimals)
}
