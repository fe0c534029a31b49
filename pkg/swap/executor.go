// Package swap executes exact-input swaps against the v4 test router.
package swap

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

var (
	// MinSqrtPrice is the pool's lower price bound plus one
	MinSqrtPrice = big.NewInt(4295128739 + 1)
	// MaxSqrtPrice is the pool's upper price bound minus one
	MaxSqrtPrice, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970341", 10)
)

// ChainClient is the chain access the executor needs
type ChainClient interface {
	EnsureAllowance(ctx context.Context, token, spender common.Address, amount *big.Int) error
	SendAndWait(ctx context.Context, method string, send ethereum.SendFunc) (common.Hash, error)
}

// Router submits swaps
type Router interface {
	Swap(opts *bind.TransactOpts, key contracts.PoolKey, params contracts.SwapParams, settings contracts.TestSettings, hookData []byte) (*types.Transaction, error)
}

// Executor swaps on the execution chain
type Executor struct {
	client     ChainClient
	routerAddr common.Address
	router     Router
	logger     *zap.Logger
}

// NewExecutor binds the router at routerAddr
func NewExecutor(client *ethereum.Client, routerAddr common.Address, logger *zap.Logger) (*Executor, error) {
	router, err := contracts.NewPoolSwapTest(routerAddr, client.Backend())
	if err != nil {
		return nil, fmt.Errorf("failed to bind swap router: %w", err)
	}
	return NewExecutorWithRouter(client, routerAddr, router, logger), nil
}

// NewExecutorWithRouter builds an executor around an already bound router
func NewExecutorWithRouter(client ChainClient, routerAddr common.Address, router Router, logger *zap.Logger) *Executor {
	return &Executor{
		client:     client,
		routerAddr: routerAddr,
		router:     router,
		logger:     logger.Named("swap"),
	}
}

// PriceLimit returns the most permissive price limit for the direction
func PriceLimit(zeroForOne bool) *big.Int {
	if zeroForOne {
		return new(big.Int).Set(MinSqrtPrice)
	}
	return new(big.Int).Set(MaxSqrtPrice)
}

// InputToken returns the token sold by a swap in the given direction
func InputToken(key contracts.PoolKey, zeroForOne bool) common.Address {
	if zeroForOne {
		return key.Currency0
	}
	return key.Currency1
}

// OutputToken returns the token bought by a swap in the given direction
func OutputToken(key contracts.PoolKey, zeroForOne bool) common.Address {
	if zeroForOne {
		return key.Currency1
	}
	return key.Currency0
}

// Swap approves the input token and swaps exactly amountIn of it
func (e *Executor) Swap(ctx context.Context, key contracts.PoolKey, zeroForOne bool, amountIn *big.Int) (common.Hash, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return common.Hash{}, apperrors.ValidationError(nil, "swap amount must be positive")
	}

	input := InputToken(key, zeroForOne)
	e.logger.Info("Approving input token for router",
		zap.String("token", input.Hex()),
		zap.String("amount", amountIn.String()))
	if err := e.client.EnsureAllowance(ctx, input, e.routerAddr, amountIn); err != nil {
		return common.Hash{}, fmt.Errorf("approve swap input: %w", err)
	}

	params := contracts.SwapParams{
		ZeroForOne:        zeroForOne,
		AmountSpecified:   new(big.Int).Neg(amountIn),
		SqrtPriceLimitX96: PriceLimit(zeroForOne),
	}

	hash, err := e.client.SendAndWait(ctx, "swap", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return e.router.Swap(opts, key, params, contracts.TestSettings{}, []byte{})
	})
	if err != nil {
		return hash, fmt.Errorf("swap: %w", err)
	}

	e.logger.Info("Swap executed",
		zap.String("tx_hash", hash.Hex()),
		zap.Bool("zero_for_one", zeroForOne))
	return hash, nil
}
