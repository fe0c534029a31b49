package relayer

import (
	"context"
	"math/big"

	"github.com/chainsafe/copytrade-relayer/internal/metrics"
	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/chainsafe/copytrade-relayer/pkg/backend"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/chainsafe/copytrade-relayer/pkg/orchestrator"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// PoolDefaults fill in pool key fields pending orders leave out
type PoolDefaults struct {
	USDC        common.Address
	Hook        common.Address
	Fee         uint32
	TickSpacing int32
	Decimals    int32
}

// PendingOrderProcessor executes backend orders through the bridge and swap flow
type PendingOrderProcessor struct {
	backend  Backend
	runner   BridgeSwapper
	store    ProcessedStore
	defaults PoolDefaults
	logger   *zap.Logger
}

// NewPendingOrderProcessor creates a processor. A nil runner means no signing
// key is configured and orders are only logged, never consumed.
func NewPendingOrderProcessor(b Backend, runner BridgeSwapper, store ProcessedStore, defaults PoolDefaults, logger *zap.Logger) *PendingOrderProcessor {
	return &PendingOrderProcessor{
		backend:  b,
		runner:   runner,
		store:    store,
		defaults: defaults,
		logger:   logger.Named("pending_orders"),
	}
}

// ProcessPending attempts every pending order not seen before. An order id is
// recorded before execution starts so it is attempted at most once. Without a
// runner nothing is recorded, so the orders are picked up once a key is set.
func (p *PendingOrderProcessor) ProcessPending(ctx context.Context) error {
	orders := p.backend.FetchPendingOrders(ctx)
	if len(orders) == 0 {
		return nil
	}

	if p.runner == nil {
		p.logger.Warn("No signing key configured, leaving pending orders untouched", zap.Int("orders", len(orders)))
		for i := range orders {
			p.logger.Debug("Skipping order", zap.String("order_id", orders[i].ID), zap.String("amount", orders[i].Amount))
		}
		return nil
	}

	for i := range orders {
		order := &orders[i]
		added, err := p.store.MarkProcessed(ctx, db.KindOrder, order.ID, order.UserAddress)
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("pending_orders", "store").Inc()
			p.logger.Error("Failed to record order", zap.String("order_id", order.ID), zap.Error(err))
			continue
		}
		if !added {
			continue
		}
		p.execute(ctx, order)
	}
	return nil
}

func (p *PendingOrderProcessor) execute(ctx context.Context, order *backend.PendingOrder) {
	logger := p.logger.With(
		zap.String("order_id", order.ID),
		zap.String("user", order.UserAddress),
		zap.String("username", order.Username))

	logger.Info("Processing order",
		zap.Bool("zero_for_one", order.ZeroForOne != 0),
		zap.String("amount", order.Amount),
		zap.String("trigger_price", order.TriggerPrice),
		zap.String("pair", order.Pair))

	txHash, bridgeTx, err := p.run(ctx, order, logger)
	if err != nil {
		metrics.OrdersProcessed.WithLabelValues(string(backend.OrderFailed)).Inc()
		logger.Error("Order failed", zap.Error(err))
		p.backend.UpdateOrderStatus(ctx, order.ID, backend.OrderFailed, "")
		return
	}

	metrics.OrdersProcessed.WithLabelValues(string(backend.OrderExecuted)).Inc()
	logger.Info("Order executed", zap.String("swap_tx", txHash))
	p.backend.UpdateOrderStatus(ctx, order.ID, backend.OrderExecuted, txHash)
	p.backend.Notify(ctx, backend.EventOrderExecuted, map[string]any{
		"orderId":  order.ID,
		"swapTx":   txHash,
		"bridgeTx": bridgeTx,
		"user":     order.UserAddress,
	})
}

func (p *PendingOrderProcessor) run(ctx context.Context, order *backend.PendingOrder, logger *zap.Logger) (string, string, error) {
	if !common.IsHexAddress(order.UserAddress) {
		return "", "", apperrors.ValidationError(nil, "invalid user address "+order.UserAddress)
	}
	amount, err := ethereum.ParseUnits(order.Amount, p.defaults.Decimals)
	if err != nil {
		return "", "", err
	}

	key := p.PoolKey(order)
	logger.Info("Executing bridge and swap",
		zap.String("currency0", key.Currency0.Hex()),
		zap.String("currency1", key.Currency1.Hex()),
		zap.String("fee", key.Fee.String()),
		zap.String("hooks", key.Hooks.Hex()))

	res, err := p.runner.Run(ctx, amount, key, order.ZeroForOne != 0,
		common.HexToAddress(order.UserAddress), orchestrator.WithOrderID(order.ID))
	if err != nil {
		return "", "", err
	}
	return res.SwapTx.Hex(), res.BridgeToDestinationTx.Hex(), nil
}

// PoolKey builds the venue pool key for order. Missing pair addresses fall
// back to USDC and a missing fee to the configured default.
func (p *PendingOrderProcessor) PoolKey(order *backend.PendingOrder) contracts.PoolKey {
	fee := order.PoolFee
	if fee == 0 {
		fee = p.defaults.Fee
	}
	return contracts.PoolKey{
		Currency0:   p.addressOrUSDC(order.PairAddress0),
		Currency1:   p.addressOrUSDC(order.PairAddress1),
		Fee:         new(big.Int).SetUint64(uint64(fee)),
		TickSpacing: big.NewInt(int64(p.defaults.TickSpacing)),
		Hooks:       p.defaults.Hook,
	}
}

func (p *PendingOrderProcessor) addressOrUSDC(addr string) common.Address {
	if addr == "" {
		return p.defaults.USDC
	}
	return common.HexToAddress(addr)
}
