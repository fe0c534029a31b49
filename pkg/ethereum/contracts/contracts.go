// Package contracts holds the minimal contract bindings the relayer needs on
// both chains. Only the methods and events that are actually called are bound.
package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// PoolKey identifies a v4 pool
type PoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

// SwapParams are the swap parameters handed to the pool manager
type SwapParams struct {
	ZeroForOne        bool
	AmountSpecified   *big.Int
	SqrtPriceLimitX96 *big.Int
}

// TestSettings control how the test router settles balances
type TestSettings struct {
	TakeClaims      bool
	SettleUsingBurn bool
}

// boundContract pairs a BoundContract with what is needed for synchronous log queries
type boundContract struct {
	address  common.Address
	abi      *abi.ABI
	contract *bind.BoundContract
	filterer bind.ContractFilterer
}

func newBoundContract(meta *bind.MetaData, address common.Address, backend bind.ContractBackend) (*boundContract, error) {
	parsed, err := meta.GetAbi()
	if err != nil {
		return nil, err
	}
	return &boundContract{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, *parsed, backend, backend, backend),
		filterer: backend,
	}, nil
}

// filterLogs runs a one-shot eth_getLogs for the named event
func (b *boundContract) filterLogs(opts *bind.FilterOpts, name string, query ...[]interface{}) ([]types.Log, error) {
	event, ok := b.abi.Events[name]
	if !ok {
		return nil, fmt.Errorf("event %s not in abi", name)
	}
	topics, err := abi.MakeTopics(query...)
	if err != nil {
		return nil, err
	}
	topics = append([][]common.Hash{{event.ID}}, topics...)

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	q := ethereum.FilterQuery{
		Addresses: []common.Address{b.address},
		Topics:    topics,
		FromBlock: new(big.Int).SetUint64(opts.Start),
	}
	if opts.End != nil {
		q.ToBlock = new(big.Int).SetUint64(*opts.End)
	}
	return b.filterer.FilterLogs(ctx, q)
}
