package relayer

import (
	"context"
	"fmt"
	"math/big"

	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// hookContract is the subset of the hook binding ChainHook calls
type hookContract interface {
	GetFollowers(opts *bind.CallOpts, leader common.Address) ([]common.Address, error)
	GetLeaderTrades(opts *bind.CallOpts, leader common.Address) ([]contracts.LeaderTrade, error)
	GetLimitOrderCount(opts *bind.CallOpts) (*big.Int, error)
	LimitOrders(opts *bind.CallOpts, index *big.Int) (contracts.LimitOrder, error)
	MarkLimitOrderExecuted(opts *bind.TransactOpts, orderID *big.Int) (*types.Transaction, error)
	FilterLeaderSwap(opts *bind.FilterOpts, leader []common.Address) ([]*contracts.CopyTradeHookLeaderSwap, error)
}

type hookChain interface {
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
	SendAndWait(ctx context.Context, method string, send ethereum.SendFunc) (common.Hash, error)
}

// ChainHook implements Hook against the deployed copy-trade hook
type ChainHook struct {
	chain    hookChain
	contract hookContract
	logger   *zap.Logger
}

var _ Hook = (*ChainHook)(nil)

// NewChainHook binds the hook at addr on the execution chain
func NewChainHook(client *ethereum.Client, addr common.Address, logger *zap.Logger) (*ChainHook, error) {
	contract, err := contracts.NewCopyTradeHook(addr, client.Backend())
	if err != nil {
		return nil, fmt.Errorf("failed to bind copy-trade hook: %w", err)
	}
	return newChainHook(client, contract, logger), nil
}

func newChainHook(chain hookChain, contract hookContract, logger *zap.Logger) *ChainHook {
	return &ChainHook{chain: chain, contract: contract, logger: logger.Named("hook")}
}

// LatestBlock returns the execution chain head
func (h *ChainHook) LatestBlock(ctx context.Context) (uint64, error) {
	return h.chain.GetLatestBlockNumber(ctx)
}

// LeaderSwaps returns LeaderSwap events in [from, to]
func (h *ChainHook) LeaderSwaps(ctx context.Context, from, to uint64) ([]*contracts.CopyTradeHookLeaderSwap, error) {
	events, err := h.contract.FilterLeaderSwap(&bind.FilterOpts{Start: from, End: &to, Context: ctx}, nil)
	if err != nil {
		return nil, apperrors.TransientError(err, "failed to filter leader swaps")
	}
	return events, nil
}

// Followers returns the addresses following leader
func (h *ChainHook) Followers(ctx context.Context, leader common.Address) ([]common.Address, error) {
	followers, err := h.contract.GetFollowers(&bind.CallOpts{Context: ctx}, leader)
	if err != nil {
		return nil, apperrors.TransientError(err, "failed to read followers")
	}
	return followers, nil
}

// LeaderTradeCount returns the number of trades the hook recorded for leader
func (h *ChainHook) LeaderTradeCount(ctx context.Context, leader common.Address) (int, error) {
	trades, err := h.contract.GetLeaderTrades(&bind.CallOpts{Context: ctx}, leader)
	if err != nil {
		return 0, apperrors.TransientError(err, "failed to read leader trades")
	}
	return len(trades), nil
}

// LimitOrderCount returns the number of limit orders ever placed
func (h *ChainHook) LimitOrderCount(ctx context.Context) (uint64, error) {
	count, err := h.contract.GetLimitOrderCount(&bind.CallOpts{Context: ctx})
	if err != nil {
		return 0, apperrors.TransientError(err, "failed to read limit order count")
	}
	if !count.IsUint64() {
		return 0, apperrors.ValidationError(nil, "limit order count out of range")
	}
	return count.Uint64(), nil
}

// LimitOrder reads the order at index
func (h *ChainHook) LimitOrder(ctx context.Context, index uint64) (*contracts.LimitOrder, error) {
	order, err := h.contract.LimitOrders(&bind.CallOpts{Context: ctx}, new(big.Int).SetUint64(index))
	if err != nil {
		return nil, apperrors.TransientError(err, "failed to read limit order")
	}
	return &order, nil
}

// MarkLimitOrderExecuted flags the order at index as executed. Only the
// agent key may call it.
func (h *ChainHook) MarkLimitOrderExecuted(ctx context.Context, index uint64) (common.Hash, error) {
	hash, err := h.chain.SendAndWait(ctx, "markLimitOrderExecuted", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return h.contract.MarkLimitOrderExecuted(opts, new(big.Int).SetUint64(index))
	})
	if err != nil {
		return hash, err
	}
	h.logger.Info("Marked limit order executed",
		zap.Uint64("order_index", index),
		zap.String("tx_hash", hash.Hex()))
	return hash, nil
}
