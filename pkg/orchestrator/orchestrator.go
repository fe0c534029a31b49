// Package orchestrator runs the bridge, swap and optional bridge-back
// sequence for one order.
package orchestrator

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/chainsafe/copytrade-relayer/internal/metrics"
	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/chainsafe/copytrade-relayer/pkg/attestation"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/chainsafe/copytrade-relayer/pkg/swap"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Run stages, in order
const (
	StageBurnOnSource         = "burn_on_source"
	StageAwaitAttestation     = "await_attestation"
	StageMintOnDestination    = "mint_on_destination"
	StageSwap                 = "swap"
	StageCheckOutput          = "check_output"
	StageBurnOnDestination    = "burn_on_destination"
	StageAwaitAttestationBack = "await_attestation_back"
	StageMintOnSource         = "mint_on_source"
	StageDone                 = "done"
)

// BridgeLeg burns on and mints to one chain
type BridgeLeg interface {
	Domain() uint32
	Chain() string
	Burn(ctx context.Context, amount *big.Int, destDomain uint32, recipient common.Address) (common.Hash, error)
	Mint(ctx context.Context, rec *attestation.Record) (common.Hash, error)
}

// Attestor waits for a burn to be attested
type Attestor interface {
	AwaitAttestation(ctx context.Context, sourceDomain uint32, txHash common.Hash) (*attestation.Record, error)
}

// Swapper executes an exact-input swap on the execution chain
type Swapper interface {
	Swap(ctx context.Context, key contracts.PoolKey, zeroForOne bool, amountIn *big.Int) (common.Hash, error)
}

// BalanceReader reads token balances on the execution chain
type BalanceReader interface {
	USDC() common.Address
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// RunRecorder persists run audit records
type RunRecorder interface {
	CreateRun(ctx context.Context, run *db.BridgeRun) error
	UpdateRun(ctx context.Context, run *db.BridgeRun) error
}

// Result carries every transaction hash of a run. Steps that did not happen
// hold the zero hash.
type Result struct {
	RunID                 uuid.UUID
	BridgeToDestinationTx common.Hash
	MintOnDestinationTx   common.Hash
	SwapTx                common.Hash
	BridgeBackTx          common.Hash
	MintOnSourceTx        common.Hash
	OutputToken           common.Address
	OutputBalance         *big.Int
}

// BridgedBack reports whether the proceeds were returned to the home chain
func (r *Result) BridgedBack() bool {
	return r.MintOnSourceTx != (common.Hash{})
}

// RunOption customises a single run
type RunOption func(*runOptions)

type runOptions struct {
	orderID string
}

// WithOrderID tags the run record with the backend order id
func WithOrderID(id string) RunOption {
	return func(o *runOptions) { o.orderID = id }
}

// Orchestrator moves USDC from the home chain to the execution chain, swaps
// it and returns USDC proceeds to the user on the home chain.
type Orchestrator struct {
	home     BridgeLeg
	exec     BridgeLeg
	attestor Attestor
	swapper  Swapper
	balances BalanceReader
	agent    common.Address
	recorder RunRecorder
	logger   *zap.Logger
}

// New creates an orchestrator. recorder may be nil.
func New(
	home, exec BridgeLeg,
	attestor Attestor,
	swapper Swapper,
	balances BalanceReader,
	agent common.Address,
	recorder RunRecorder,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		home:     home,
		exec:     exec,
		attestor: attestor,
		swapper:  swapper,
		balances: balances,
		agent:    agent,
		recorder: recorder,
		logger:   logger.Named("orchestrator"),
	}
}

// Run bridges amount of USDC to the execution chain, swaps it through key in
// the given direction and, when the output is USDC, bridges the proceeds back
// to user on the home chain. On error the result holds the hashes of the
// steps that completed.
func (o *Orchestrator) Run(ctx context.Context, amount *big.Int, key contracts.PoolKey, zeroForOne bool, user common.Address, opts ...RunOption) (*Result, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	res := &Result{RunID: uuid.New()}
	if amount == nil || amount.Sign() <= 0 {
		return res, apperrors.ValidationError(nil, "run amount must be positive")
	}

	run := &db.BridgeRun{
		ID:          res.RunID,
		OrderID:     ro.orderID,
		UserAddress: user.Hex(),
		Amount:      amount.String(),
		ZeroForOne:  zeroForOne,
		Status:      db.RunStatusStarted,
		Stage:       StageBurnOnSource,
	}
	logger := o.logger.With(
		zap.String("run_id", res.RunID.String()),
		zap.String("order_id", ro.orderID),
		zap.String("user", user.Hex()))
	o.create(ctx, run, logger)

	logger.Info("Starting bridge and swap",
		zap.String("amount", amount.String()),
		zap.Bool("zero_for_one", zeroForOne))

	start := time.Now()
	err := o.execute(ctx, run, res, amount, key, zeroForOne, user, logger)

	status := db.RunStatusCompleted
	if err != nil {
		status = db.RunStatusFailed
		run.Error = err.Error()
		logger.Error("Bridge and swap failed", zap.String("stage", run.Stage), zap.Error(err))
	} else {
		run.Stage = StageDone
		logger.Info("Bridge and swap complete",
			zap.String("swap_tx", res.SwapTx.Hex()),
			zap.Bool("bridged_back", res.BridgedBack()))
	}
	run.Status = status
	o.update(ctx, run, res, logger)

	metrics.RunsTotal.WithLabelValues(string(status)).Inc()
	metrics.RunDuration.WithLabelValues(string(status)).Observe(time.Since(start).Seconds())
	return res, err
}

func (o *Orchestrator) execute(
	ctx context.Context,
	run *db.BridgeRun,
	res *Result,
	amount *big.Int,
	key contracts.PoolKey,
	zeroForOne bool,
	user common.Address,
	logger *zap.Logger,
) error {
	var err error

	// the agent receives the mint so it can pay for the swap
	if err = o.step(ctx, run, res, StageBurnOnSource, logger, func() error {
		res.BridgeToDestinationTx, err = o.home.Burn(ctx, amount, o.exec.Domain(), o.agent)
		return err
	}); err != nil {
		return err
	}

	var rec *attestation.Record
	if err = o.step(ctx, run, res, StageAwaitAttestation, logger, func() error {
		rec, err = o.attestor.AwaitAttestation(ctx, o.home.Domain(), res.BridgeToDestinationTx)
		return err
	}); err != nil {
		return err
	}

	if err = o.step(ctx, run, res, StageMintOnDestination, logger, func() error {
		res.MintOnDestinationTx, err = o.exec.Mint(ctx, rec)
		return err
	}); err != nil {
		return err
	}

	if err = o.step(ctx, run, res, StageSwap, logger, func() error {
		res.SwapTx, err = o.swapper.Swap(ctx, key, zeroForOne, amount)
		return err
	}); err != nil {
		return err
	}

	res.OutputToken = swap.OutputToken(key, zeroForOne)
	if err = o.step(ctx, run, res, StageCheckOutput, logger, func() error {
		res.OutputBalance, err = o.balances.BalanceOf(ctx, res.OutputToken, o.agent)
		if err != nil {
			return fmt.Errorf("read output balance: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	if res.OutputToken != o.balances.USDC() || res.OutputBalance.Sign() <= 0 {
		logger.Info("Output stays on execution chain",
			zap.String("token", res.OutputToken.Hex()),
			zap.String("balance", res.OutputBalance.String()))
		return nil
	}

	proceeds := res.OutputBalance
	logger.Info("Bridging proceeds back",
		zap.String("from", o.exec.Chain()),
		zap.String("to", o.home.Chain()),
		zap.String("amount", proceeds.String()))

	if err = o.step(ctx, run, res, StageBurnOnDestination, logger, func() error {
		res.BridgeBackTx, err = o.exec.Burn(ctx, proceeds, o.home.Domain(), user)
		return err
	}); err != nil {
		return err
	}

	if err = o.step(ctx, run, res, StageAwaitAttestationBack, logger, func() error {
		rec, err = o.attestor.AwaitAttestation(ctx, o.exec.Domain(), res.BridgeBackTx)
		return err
	}); err != nil {
		return err
	}

	return o.step(ctx, run, res, StageMintOnSource, logger, func() error {
		res.MintOnSourceTx, err = o.home.Mint(ctx, rec)
		return err
	})
}

// step records the stage, runs fn and times it
func (o *Orchestrator) step(ctx context.Context, run *db.BridgeRun, res *Result, stage string, logger *zap.Logger, fn func() error) error {
	if run.Stage != stage {
		run.Stage = stage
		o.update(ctx, run, res, logger)
	}
	start := time.Now()
	err := fn()
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return nil
}

func (o *Orchestrator) create(ctx context.Context, run *db.BridgeRun, logger *zap.Logger) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.CreateRun(context.WithoutCancel(ctx), run); err != nil {
		metrics.ErrorsTotal.WithLabelValues("orchestrator", "record_run").Inc()
		logger.Warn("Failed to record run", zap.Error(err))
	}
}

// update writes the run record; audit failures never stop a run
func (o *Orchestrator) update(ctx context.Context, run *db.BridgeRun, res *Result, logger *zap.Logger) {
	if o.recorder == nil {
		return
	}
	run.BridgeToDestinationTx = hashString(res.BridgeToDestinationTx)
	run.MintOnDestinationTx = hashString(res.MintOnDestinationTx)
	run.SwapTx = hashString(res.SwapTx)
	run.BridgeBackTx = hashString(res.BridgeBackTx)
	run.MintOnSourceTx = hashString(res.MintOnSourceTx)
	if err := o.recorder.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		metrics.ErrorsTotal.WithLabelValues("orchestrator", "record_run").Inc()
		logger.Warn("Failed to update run record", zap.String("stage", run.Stage), zap.Error(err))
	}
}

func hashString(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	return h.Hex()
}
