package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CopyTradeHookMetaData contains the hook's leader registry and limit order book.
var CopyTradeHookMetaData = &bind.MetaData{
	ABI: `[
{"anonymous":false,"inputs":[{"indexed":true,"name":"leader","type":"address"},{"indexed":true,"name":"poolId","type":"bytes32"},{"indexed":false,"name":"zeroForOne","type":"bool"},{"indexed":false,"name":"amountSpecified","type":"int256"},{"indexed":false,"name":"delta0","type":"int128"},{"indexed":false,"name":"delta1","type":"int128"},{"indexed":false,"name":"timestamp","type":"uint256"}],"name":"LeaderSwap","type":"event"},
{"inputs":[{"name":"leader","type":"address"}],"name":"getFollowers","outputs":[{"name":"","type":"address[]"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"leader","type":"address"}],"name":"getLeaderTrades","outputs":[{"name":"","type":"tuple[]","components":[{"name":"poolId","type":"bytes32"},{"name":"zeroForOne","type":"bool"},{"name":"amountSpecified","type":"int256"},{"name":"timestamp","type":"uint256"}]}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"getLimitOrderCount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"","type":"uint256"}],"name":"limitOrders","outputs":[{"name":"owner","type":"address"},{"name":"key","type":"tuple","components":` + poolKeyComponents + `},{"name":"zeroForOne","type":"bool"},{"name":"amountSpecified","type":"int256"},{"name":"triggerPrice","type":"uint256"},{"name":"executed","type":"bool"},{"name":"createdAt","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"orderId","type":"uint256"}],"name":"markLimitOrderExecuted","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`,
}

// CopyTradeHook is a binding around the copy-trade hook contract
type CopyTradeHook struct {
	*boundContract
}

// CopyTradeHookLeaderSwap represents a LeaderSwap event
type CopyTradeHookLeaderSwap struct {
	Leader          common.Address
	PoolId          [32]byte
	ZeroForOne      bool
	AmountSpecified *big.Int
	Delta0          *big.Int
	Delta1          *big.Int
	Timestamp       *big.Int
	Raw             types.Log
}

// LeaderTrade is one entry of a leader's on-chain trade history
type LeaderTrade struct {
	PoolId          [32]byte
	ZeroForOne      bool
	AmountSpecified *big.Int
	Timestamp       *big.Int
}

// LimitOrder is a limit order as stored by the hook
type LimitOrder struct {
	Owner           common.Address
	Key             PoolKey
	ZeroForOne      bool
	AmountSpecified *big.Int
	TriggerPrice    *big.Int
	Executed        bool
	CreatedAt       *big.Int
}

// NewCopyTradeHook binds the hook at address
func NewCopyTradeHook(address common.Address, backend bind.ContractBackend) (*CopyTradeHook, error) {
	b, err := newBoundContract(CopyTradeHookMetaData, address, backend)
	if err != nil {
		return nil, err
	}
	return &CopyTradeHook{b}, nil
}

// GetFollowers is a free data retrieval call binding the contract method getFollowers.
//
// Solidity: function getFollowers(address leader) view returns(address[])
func (h *CopyTradeHook) GetFollowers(opts *bind.CallOpts, leader common.Address) ([]common.Address, error) {
	var out []interface{}
	if err := h.contract.Call(opts, &out, "getFollowers", leader); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address), nil
}

// GetLeaderTrades is a free data retrieval call binding the contract method getLeaderTrades.
func (h *CopyTradeHook) GetLeaderTrades(opts *bind.CallOpts, leader common.Address) ([]LeaderTrade, error) {
	var out []interface{}
	if err := h.contract.Call(opts, &out, "getLeaderTrades", leader); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]LeaderTrade)).(*[]LeaderTrade), nil
}

// GetLimitOrderCount is a free data retrieval call binding the contract method getLimitOrderCount.
//
// Solidity: function getLimitOrderCount() view returns(uint256)
func (h *CopyTradeHook) GetLimitOrderCount(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := h.contract.Call(opts, &out, "getLimitOrderCount"); err != nil {
		return new(big.Int), err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// LimitOrders is a free data retrieval call binding the contract method limitOrders.
func (h *CopyTradeHook) LimitOrders(opts *bind.CallOpts, index *big.Int) (LimitOrder, error) {
	var out []interface{}
	if err := h.contract.Call(opts, &out, "limitOrders", index); err != nil {
		return LimitOrder{}, err
	}
	return LimitOrder{
		Owner:           *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Key:             *abi.ConvertType(out[1], new(PoolKey)).(*PoolKey),
		ZeroForOne:      *abi.ConvertType(out[2], new(bool)).(*bool),
		AmountSpecified: *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
		TriggerPrice:    *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
		Executed:        *abi.ConvertType(out[5], new(bool)).(*bool),
		CreatedAt:       *abi.ConvertType(out[6], new(*big.Int)).(**big.Int),
	}, nil
}

// MarkLimitOrderExecuted is a paid mutator transaction binding the contract method markLimitOrderExecuted.
//
// Solidity: function markLimitOrderExecuted(uint256 orderId) returns()
func (h *CopyTradeHook) MarkLimitOrderExecuted(opts *bind.TransactOpts, orderID *big.Int) (*types.Transaction, error) {
	return h.contract.Transact(opts, "markLimitOrderExecuted", orderID)
}

// FilterLeaderSwap returns LeaderSwap events in the range, optionally
// restricted to the given leaders.
func (h *CopyTradeHook) FilterLeaderSwap(opts *bind.FilterOpts, leader []common.Address) ([]*CopyTradeHookLeaderSwap, error) {
	var leaderRule []interface{}
	for _, item := range leader {
		leaderRule = append(leaderRule, item)
	}

	logs, err := h.filterLogs(opts, "LeaderSwap", leaderRule)
	if err != nil {
		return nil, err
	}

	events := make([]*CopyTradeHookLeaderSwap, 0, len(logs))
	for _, log := range logs {
		ev := new(CopyTradeHookLeaderSwap)
		if err := h.contract.UnpackLog(ev, "LeaderSwap", log); err != nil {
			return nil, err
		}
		ev.Raw = log
		events = append(events, ev)
	}
	return events, nil
}
