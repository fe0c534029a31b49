package relayer

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chainsafe/copytrade-relayer/internal/metrics"
	"github.com/chainsafe/copytrade-relayer/pkg/backend"
	"github.com/chainsafe/copytrade-relayer/pkg/config"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/chainsafe/copytrade-relayer/pkg/oracle"
	"github.com/chainsafe/copytrade-relayer/pkg/orchestrator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Hook defines the interface for the copy-trade hook on the execution chain
type Hook interface {
	LatestBlock(ctx context.Context) (uint64, error)
	LeaderSwaps(ctx context.Context, from, to uint64) ([]*contracts.CopyTradeHookLeaderSwap, error)
	Followers(ctx context.Context, leader common.Address) ([]common.Address, error)
	LeaderTradeCount(ctx context.Context, leader common.Address) (int, error)
	LimitOrderCount(ctx context.Context) (uint64, error)
	LimitOrder(ctx context.Context, index uint64) (*contracts.LimitOrder, error)
	MarkLimitOrderExecuted(ctx context.Context, index uint64) (common.Hash, error)
}

// Backend defines the interface for the social backend. Every call is
// best-effort and never fails the caller.
type Backend interface {
	CreateTradeProposal(ctx context.Context, p backend.Proposal) bool
	FetchPendingOrders(ctx context.Context) []backend.PendingOrder
	UpdateOrderStatus(ctx context.Context, orderID string, status backend.OrderStatus, txHash string)
	FetchUnprocessedIdeas(ctx context.Context) []backend.IdeaPost
	MarkIdeaProcessed(ctx context.Context, postID string)
	Notify(ctx context.Context, event string, data map[string]any)
}

// ProcessedStore defines the interface for the de-duplication sets and the
// watcher cursor
type ProcessedStore interface {
	IsProcessed(ctx context.Context, kind db.ItemKind, key string) (bool, error)
	MarkProcessed(ctx context.Context, kind db.ItemKind, key, note string) (bool, error)
	GetCursor(ctx context.Context, chain string) (uint64, bool, error)
	SetCursor(ctx context.Context, chain string, block uint64) error
}

// BridgeSwapper runs the full bridge and swap flow for one order
type BridgeSwapper interface {
	Run(ctx context.Context, amount *big.Int, key contracts.PoolKey, zeroForOne bool, user common.Address, opts ...orchestrator.RunOption) (*orchestrator.Result, error)
}

// BalanceChecker reads the operator's balances on one chain
type BalanceChecker interface {
	Name() string
	USDC() common.Address
	NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// Dependencies are the collaborators of the engine. Hook is nil when no hook
// address is configured, Runner is nil when no signing key is configured and
// the balance checkers are optional.
type Dependencies struct {
	Hook    Hook
	Backend Backend
	Oracle  oracle.Oracle
	Store   ProcessedStore
	Runner  BridgeSwapper
	Home    BalanceChecker
	Exec    BalanceChecker
	Agent   common.Address
}

// Status is a snapshot of the engine for the operational API
type Status struct {
	Ready       bool      `json:"ready"`
	Tick        int       `json:"tick"`
	LastSweepAt time.Time `json:"last_sweep_at,omitempty"`
	LastBlock   uint64    `json:"last_block"`
	HookEnabled bool      `json:"hook_enabled"`
	DryRun      bool      `json:"dry_run"`
}

// nativeDecimals is the precision of the home chain's native gas token
const nativeDecimals = 18

// Engine drives the sweeps on a fixed interval
type Engine struct {
	config *config.Config
	deps   Dependencies
	logger *zap.Logger

	watcher *LeaderSwapWatcher
	limits  *LimitOrderScanner
	pending *PendingOrderProcessor
	ideas   *IdeaProcessor

	sweepMu sync.Mutex
	tick    int

	stateMu   sync.RWMutex
	ticks     int
	lastSweep time.Time
	ready     atomic.Bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewEngine creates a new relayer engine
func NewEngine(cfg *config.Config, deps Dependencies, logger *zap.Logger) *Engine {
	logger = logger.Named("relayer")
	e := &Engine{
		config:  cfg,
		deps:    deps,
		logger:  logger,
		watcher: NewLeaderSwapWatcher(deps.Hook, deps.Oracle, deps.Backend, deps.Store, cfg.ExecutionChain.Name, cfg.Agent.CatchUpBlocks, logger),
		limits:  NewLimitOrderScanner(deps.Hook, deps.Oracle, deps.Backend, deps.Store, logger),
		pending: NewPendingOrderProcessor(deps.Backend, deps.Runner, deps.Store, PoolDefaults{
			USDC:        common.HexToAddress(cfg.ExecutionChain.USDC),
			Hook:        common.HexToAddress(cfg.Venue.Hook),
			Fee:         cfg.Venue.DefaultFee,
			TickSpacing: cfg.Venue.DefaultTickSpacing,
			Decimals:    cfg.Agent.USDCDecimals,
		}, logger),
		ideas:  NewIdeaProcessor(deps.Hook, deps.Oracle, deps.Backend, deps.Store, logger),
		stopCh: make(chan struct{}),
	}
	e.watcher.SetMaxBlockRange(cfg.Agent.MaxBlockRange)
	return e
}

// Start launches the tick loop and returns. The loop reports balances and runs
// the initial sweep before the first tick; IsReady turns true once that sweep
// has finished.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Starting relayer engine",
		zap.String("home_chain", e.config.HomeChain.Name),
		zap.String("execution_chain", e.config.ExecutionChain.Name),
		zap.String("hook", e.config.Venue.Hook),
		zap.String("pool_swap_test", e.config.Venue.PoolSwapTest),
		zap.String("oracle_model", e.config.Oracle.Model),
		zap.Bool("oracle_key_set", e.config.Oracle.APIKey != ""),
		zap.Bool("agent_key_set", e.deps.Runner != nil),
		zap.String("backend", e.config.Backend.URL),
		zap.Duration("poll_interval", e.config.Agent.PollInterval))

	if e.deps.Hook == nil {
		e.logger.Info("No hook configured; leader swaps and limit orders are disabled")
	}

	e.wg.Add(1)
	go e.loop(ctx)

	e.logger.Info("Relayer engine started")
	return nil
}

// Stop stops the tick loop and waits for the running sweep to finish
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.logger.Info("Stopping relayer engine")
		close(e.stopCh)
	})
	e.wg.Wait()
	e.logger.Info("Relayer engine stopped")
}

// IsReady reports whether the initial sweep has completed
func (e *Engine) IsReady() bool {
	return e.ready.Load()
}

// Status returns a snapshot of the engine state
func (e *Engine) Status() Status {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return Status{
		Ready:       e.ready.Load(),
		Tick:        e.ticks,
		LastSweepAt: e.lastSweep,
		LastBlock:   e.watcher.LastBlock(),
		HookEnabled: e.deps.Hook != nil,
		DryRun:      e.deps.Runner == nil,
	}
}

func (e *Engine) loop(ctx context.Context) {
	defer e.wg.Done()

	e.reportBalances(ctx)
	if e.stopped(ctx) {
		return
	}
	e.RunSweep(ctx)
	e.ready.Store(true)
	e.logger.Info("Initial sweep complete")

	ticker := time.NewTicker(e.config.Agent.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.RunSweep(ctx)
		}
	}
}

func (e *Engine) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-e.stopCh:
		return true
	default:
		return false
	}
}

// RunSweep runs one tick: leader swaps, limit orders and pending orders in
// order, plus idea posts every idea_every_n_ticks ticks. The first sweep
// always includes ideas. Sweeps never overlap.
func (e *Engine) RunSweep(ctx context.Context) {
	e.sweepMu.Lock()
	defer e.sweepMu.Unlock()

	tick := e.tick
	e.tick++

	e.sweep(ctx, "leader_swaps", e.watcher.Scan)
	e.sweep(ctx, "limit_orders", e.limits.Scan)
	e.sweep(ctx, "pending_orders", e.pending.ProcessPending)
	if every := e.config.Agent.IdeaEveryNTicks; every > 0 && tick%every == 0 {
		e.sweep(ctx, "ideas", e.ideas.Process)
	}

	e.stateMu.Lock()
	e.ticks = e.tick
	e.lastSweep = time.Now()
	e.stateMu.Unlock()
}

func (e *Engine) sweep(ctx context.Context, name string, fn func(context.Context) error) {
	start := time.Now()
	err := fn(ctx)
	metrics.SweepDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(name, "sweep").Inc()
		e.logger.Error("Sweep failed", zap.String("sweep", name), zap.Error(err))
	}
}

// reportBalances logs the operator's balances. Failures are not fatal.
func (e *Engine) reportBalances(ctx context.Context) {
	if e.deps.Runner == nil || e.deps.Home == nil || e.deps.Exec == nil {
		return
	}
	agent := e.deps.Agent

	native, err := e.deps.Home.NativeBalance(ctx, agent)
	if err != nil {
		e.logger.Warn("Could not fetch agent balances", zap.Error(err))
		return
	}
	usdc, err := e.deps.Exec.BalanceOf(ctx, e.deps.Exec.USDC(), agent)
	if err != nil {
		e.logger.Warn("Could not fetch agent balances", zap.Error(err))
		return
	}

	// native gas on the home chain is USDC with 18 decimals
	homeUSDC := ethereum.FormatUnits(native, nativeDecimals)
	execUSDC := ethereum.FormatUnits(usdc, e.config.Agent.USDCDecimals)

	setBalanceGauge(e.deps.Home.Name(), "native", native, nativeDecimals)
	setBalanceGauge(e.deps.Exec.Name(), "usdc", usdc, e.config.Agent.USDCDecimals)

	e.logger.Info("Agent balances",
		zap.String("address", agent.Hex()),
		zap.String(e.deps.Home.Name()+"_usdc", homeUSDC),
		zap.String(e.deps.Exec.Name()+"_usdc", execUSDC))
}

func setBalanceGauge(chain, token string, amount *big.Int, decimals int32) {
	f, _ := decimal.NewFromBigInt(amount, -decimals).Float64()
	metrics.AgentBalance.WithLabelValues(chain, token).Set(f)
}
