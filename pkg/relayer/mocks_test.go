package relayer

import (
	"context"
	"math/big"
	"sync"

	"github.com/chainsafe/copytrade-relayer/pkg/backend"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/chainsafe/copytrade-relayer/pkg/oracle"
	"github.com/chainsafe/copytrade-relayer/pkg/orchestrator"
	"github.com/ethereum/go-ethereum/common"
)

// MockHook is a mock implementation of Hook
type MockHook struct {
	LatestBlockFunc            func(ctx context.Context) (uint64, error)
	LeaderSwapsFunc            func(ctx context.Context, from, to uint64) ([]*contracts.CopyTradeHookLeaderSwap, error)
	FollowersFunc              func(ctx context.Context, leader common.Address) ([]common.Address, error)
	LeaderTradeCountFunc       func(ctx context.Context, leader common.Address) (int, error)
	LimitOrderCountFunc        func(ctx context.Context) (uint64, error)
	LimitOrderFunc             func(ctx context.Context, index uint64) (*contracts.LimitOrder, error)
	MarkLimitOrderExecutedFunc func(ctx context.Context, index uint64) (common.Hash, error)

	mu     sync.Mutex
	marked []uint64
}

func (m *MockHook) LatestBlock(ctx context.Context) (uint64, error) {
	if m.LatestBlockFunc != nil {
		return m.LatestBlockFunc(ctx)
	}
	return 0, nil
}

func (m *MockHook) LeaderSwaps(ctx context.Context, from, to uint64) ([]*contracts.CopyTradeHookLeaderSwap, error) {
	if m.LeaderSwapsFunc != nil {
		return m.LeaderSwapsFunc(ctx, from, to)
	}
	return nil, nil
}

func (m *MockHook) Followers(ctx context.Context, leader common.Address) ([]common.Address, error) {
	if m.FollowersFunc != nil {
		return m.FollowersFunc(ctx, leader)
	}
	return nil, nil
}

func (m *MockHook) LeaderTradeCount(ctx context.Context, leader common.Address) (int, error) {
	if m.LeaderTradeCountFunc != nil {
		return m.LeaderTradeCountFunc(ctx, leader)
	}
	return 0, nil
}

func (m *MockHook) LimitOrderCount(ctx context.Context) (uint64, error) {
	if m.LimitOrderCountFunc != nil {
		return m.LimitOrderCountFunc(ctx)
	}
	return 0, nil
}

func (m *MockHook) LimitOrder(ctx context.Context, index uint64) (*contracts.LimitOrder, error) {
	if m.LimitOrderFunc != nil {
		return m.LimitOrderFunc(ctx, index)
	}
	return &contracts.LimitOrder{}, nil
}

func (m *MockHook) MarkLimitOrderExecuted(ctx context.Context, index uint64) (common.Hash, error) {
	m.mu.Lock()
	m.marked = append(m.marked, index)
	m.mu.Unlock()
	if m.MarkLimitOrderExecutedFunc != nil {
		return m.MarkLimitOrderExecutedFunc(ctx, index)
	}
	return common.BigToHash(new(big.Int).SetUint64(index + 1000)), nil
}

func (m *MockHook) Marked() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.marked...)
}

type statusUpdate struct {
	OrderID string
	Status  backend.OrderStatus
	TxHash  string
}

type notification struct {
	Event string
	Data  map[string]any
}

// MockBackend is a mock implementation of Backend that records every call
type MockBackend struct {
	CreateTradeProposalFunc   func(ctx context.Context, p backend.Proposal) bool
	FetchPendingOrdersFunc    func(ctx context.Context) []backend.PendingOrder
	FetchUnprocessedIdeasFunc func(ctx context.Context) []backend.IdeaPost

	mu            sync.Mutex
	proposals     []backend.Proposal
	statuses      []statusUpdate
	notifications []notification
	ideasMarked   []string
}

func (m *MockBackend) CreateTradeProposal(ctx context.Context, p backend.Proposal) bool {
	m.mu.Lock()
	m.proposals = append(m.proposals, p)
	m.mu.Unlock()
	if m.CreateTradeProposalFunc != nil {
		return m.CreateTradeProposalFunc(ctx, p)
	}
	return true
}

func (m *MockBackend) FetchPendingOrders(ctx context.Context) []backend.PendingOrder {
	if m.FetchPendingOrdersFunc != nil {
		return m.FetchPendingOrdersFunc(ctx)
	}
	return nil
}

func (m *MockBackend) UpdateOrderStatus(_ context.Context, orderID string, status backend.OrderStatus, txHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, statusUpdate{OrderID: orderID, Status: status, TxHash: txHash})
}

func (m *MockBackend) FetchUnprocessedIdeas(ctx context.Context) []backend.IdeaPost {
	if m.FetchUnprocessedIdeasFunc != nil {
		return m.FetchUnprocessedIdeasFunc(ctx)
	}
	return nil
}

func (m *MockBackend) MarkIdeaProcessed(_ context.Context, postID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ideasMarked = append(m.ideasMarked, postID)
}

func (m *MockBackend) Notify(_ context.Context, event string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, notification{Event: event, Data: data})
}

func (m *MockBackend) Proposals() []backend.Proposal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]backend.Proposal(nil), m.proposals...)
}

func (m *MockBackend) Statuses() []statusUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]statusUpdate(nil), m.statuses...)
}

func (m *MockBackend) Notifications() []notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification(nil), m.notifications...)
}

func (m *MockBackend) IdeasMarked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ideasMarked...)
}

type runCall struct {
	Amount     *big.Int
	Key        contracts.PoolKey
	ZeroForOne bool
	User       common.Address
}

// MockRunner is a mock implementation of BridgeSwapper
type MockRunner struct {
	RunFunc func(ctx context.Context, amount *big.Int, key contracts.PoolKey, zeroForOne bool, user common.Address) (*orchestrator.Result, error)

	mu    sync.Mutex
	calls []runCall
}

func (m *MockRunner) Run(ctx context.Context, amount *big.Int, key contracts.PoolKey, zeroForOne bool, user common.Address, _ ...orchestrator.RunOption) (*orchestrator.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, runCall{Amount: amount, Key: key, ZeroForOne: zeroForOne, User: user})
	m.mu.Unlock()
	if m.RunFunc != nil {
		return m.RunFunc(ctx, amount, key, zeroForOne, user)
	}
	return &orchestrator.Result{
		BridgeToDestinationTx: common.HexToHash("0xb1"),
		SwapTx:                common.HexToHash("0x5a"),
	}, nil
}

func (m *MockRunner) Calls() []runCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]runCall(nil), m.calls...)
}

// MockBalanceChecker is a mock implementation of BalanceChecker
type MockBalanceChecker struct {
	name   string
	usdc   common.Address
	native *big.Int
	token  *big.Int
	err    error
}

func (m *MockBalanceChecker) Name() string         { return m.name }
func (m *MockBalanceChecker) USDC() common.Address { return m.usdc }

func (m *MockBalanceChecker) NativeBalance(context.Context, common.Address) (*big.Int, error) {
	return m.native, m.err
}

func (m *MockBalanceChecker) BalanceOf(context.Context, common.Address, common.Address) (*big.Int, error) {
	return m.token, m.err
}

// MockOracle is a mock implementation of oracle.Oracle
type MockOracle struct {
	LeaderSwapFunc func(in oracle.LeaderSwapContext) oracle.Verdict
	LimitOrderFunc func(in oracle.LimitOrderContext) oracle.Verdict
	IdeaFunc       func(in oracle.IdeaContext) oracle.IdeaVerdict

	mu          sync.Mutex
	leaderSwaps []oracle.LeaderSwapContext
	limitOrders []oracle.LimitOrderContext
	ideas       []oracle.IdeaContext
}

func (m *MockOracle) EvaluateLeaderSwap(_ context.Context, in oracle.LeaderSwapContext) oracle.Verdict {
	m.mu.Lock()
	m.leaderSwaps = append(m.leaderSwaps, in)
	m.mu.Unlock()
	if m.LeaderSwapFunc != nil {
		return m.LeaderSwapFunc(in)
	}
	return oracle.Verdict{Action: oracle.ActionWait}
}

func (m *MockOracle) EvaluateLimitOrder(_ context.Context, in oracle.LimitOrderContext) oracle.Verdict {
	m.mu.Lock()
	m.limitOrders = append(m.limitOrders, in)
	m.mu.Unlock()
	if m.LimitOrderFunc != nil {
		return m.LimitOrderFunc(in)
	}
	return oracle.Verdict{Action: oracle.ActionWait}
}

func (m *MockOracle) AnalyzeIdea(_ context.Context, in oracle.IdeaContext) oracle.IdeaVerdict {
	m.mu.Lock()
	m.ideas = append(m.ideas, in)
	m.mu.Unlock()
	if m.IdeaFunc != nil {
		return m.IdeaFunc(in)
	}
	return oracle.IdeaVerdict{Verdict: oracle.Verdict{Action: oracle.ActionWait}, OrderType: in.OrderType()}
}

func execute(confidence float64) oracle.Verdict {
	return oracle.Verdict{Action: oracle.ActionExecute, Reason: "looks good", Confidence: confidence}
}
