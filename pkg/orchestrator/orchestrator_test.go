package orchestrator

import (
	"context"
	"math/big"
	"strings"
	"testing"

	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/chainsafe/copytrade-relayer/pkg/attestation"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	execUSDC = common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	weth     = common.HexToAddress("0x4200000000000000000000000000000000000006")
	agent    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	user     = common.HexToAddress("0x00000000000000000000000000000000000000b2")

	homeBurnHash = common.HexToHash("0x01")
	execMintHash = common.HexToHash("0x02")
	swapHash     = common.HexToHash("0x03")
	execBurnHash = common.HexToHash("0x04")
	homeMintHash = common.HexToHash("0x05")
)

type harness struct {
	home     *mockLeg
	exec     *mockLeg
	attestor *mockAttestor
	swapper  *mockSwapper
	balances *mockBalances
	recorder *mockRecorder
	orch     *Orchestrator
}

func newHarness() *harness {
	h := &harness{
		home:     &mockLeg{domain: 26, chain: "arc-testnet", burnHash: homeBurnHash, mintHash: homeMintHash},
		exec:     &mockLeg{domain: 6, chain: "base-sepolia", burnHash: execBurnHash, mintHash: execMintHash},
		attestor: &mockAttestor{},
		swapper:  &mockSwapper{hash: swapHash},
		balances: &mockBalances{usdc: execUSDC, balance: big.NewInt(9_900_000)},
		recorder: &mockRecorder{},
	}
	h.orch = New(h.home, h.exec, h.attestor, h.swapper, h.balances, agent, h.recorder, zap.NewNop())
	return h
}

// usdcOut returns a key whose one-for-zero swap pays out USDC
func usdcOut() contracts.PoolKey {
	return contracts.PoolKey{
		Currency0:   execUSDC,
		Currency1:   weth,
		Fee:         big.NewInt(3000),
		TickSpacing: big.NewInt(60),
	}
}

func TestRun_BridgesProceedsBackToUser(t *testing.T) {
	h := newHarness()
	amount := big.NewInt(10_000_000)

	res, err := h.orch.Run(context.Background(), amount, usdcOut(), false, user, WithOrderID("order-7"))
	require.NoError(t, err)

	assert.Equal(t, homeBurnHash, res.BridgeToDestinationTx)
	assert.Equal(t, execMintHash, res.MintOnDestinationTx)
	assert.Equal(t, swapHash, res.SwapTx)
	assert.Equal(t, execBurnHash, res.BridgeBackTx)
	assert.Equal(t, homeMintHash, res.MintOnSourceTx)
	assert.True(t, res.BridgedBack())

	// outbound leg pays the agent, return leg pays the user
	require.Len(t, h.home.burns, 1)
	assert.Equal(t, burnCall{Amount: amount, DestDomain: 6, Recipient: agent}, h.home.burns[0])
	require.Len(t, h.exec.burns, 1)
	assert.Equal(t, burnCall{Amount: big.NewInt(9_900_000), DestDomain: 26, Recipient: user}, h.exec.burns[0])

	require.Len(t, h.attestor.calls, 2)
	assert.Equal(t, attestCall{Domain: 26, TxHash: homeBurnHash}, h.attestor.calls[0])
	assert.Equal(t, attestCall{Domain: 6, TxHash: execBurnHash}, h.attestor.calls[1])

	require.Len(t, h.swapper.amounts, 1)
	assert.Equal(t, amount, h.swapper.amounts[0])
	assert.Equal(t, []common.Address{execUSDC}, h.balances.tokens)

	assert.Equal(t, []string{
		StageBurnOnSource,
		StageAwaitAttestation,
		StageMintOnDestination,
		StageSwap,
		StageCheckOutput,
		StageBurnOnDestination,
		StageAwaitAttestationBack,
		StageMintOnSource,
		StageDone,
	}, h.recorder.stages())

	last := h.recorder.last()
	assert.Equal(t, db.RunStatusCompleted, last.Status)
	assert.Equal(t, "order-7", last.OrderID)
	assert.Equal(t, res.RunID, last.ID)
	assert.Equal(t, homeMintHash.Hex(), last.MintOnSourceTx)
	assert.Equal(t, "10000000", last.Amount)
}

func TestRun_NonBridgeableOutputStaysOnExecutionChain(t *testing.T) {
	h := newHarness()

	// zero-for-one sells USDC for WETH
	res, err := h.orch.Run(context.Background(), big.NewInt(5_000_000), usdcOut(), true, user)
	require.NoError(t, err)

	assert.Equal(t, swapHash, res.SwapTx)
	assert.Equal(t, weth, res.OutputToken)
	assert.Equal(t, common.Hash{}, res.BridgeBackTx)
	assert.Equal(t, common.Hash{}, res.MintOnSourceTx)
	assert.False(t, res.BridgedBack())

	assert.Empty(t, h.exec.burns)
	assert.Empty(t, h.home.mints)
	assert.Len(t, h.attestor.calls, 1)
	assert.Equal(t, []string{
		StageBurnOnSource,
		StageAwaitAttestation,
		StageMintOnDestination,
		StageSwap,
		StageCheckOutput,
		StageDone,
	}, h.recorder.stages())
	last := h.recorder.last()
	assert.Empty(t, last.BridgeBackTx)
	assert.Empty(t, last.MintOnSourceTx)
}

func TestRun_ZeroUSDCBalanceSkipsBridgeBack(t *testing.T) {
	h := newHarness()
	h.balances.balance = big.NewInt(0)

	res, err := h.orch.Run(context.Background(), big.NewInt(1), usdcOut(), false, user)
	require.NoError(t, err)

	assert.False(t, res.BridgedBack())
	assert.Empty(t, h.exec.burns)
}

func TestRun_OutputMatchIgnoresAddressCase(t *testing.T) {
	h := newHarness()
	key := usdcOut()
	key.Currency0 = common.HexToAddress(strings.ToLower(execUSDC.Hex()))

	res, err := h.orch.Run(context.Background(), big.NewInt(1_000_000), key, false, user)
	require.NoError(t, err)
	assert.True(t, res.BridgedBack())
}

func TestRun_AttestationTimeoutStopsBeforeMint(t *testing.T) {
	h := newHarness()
	h.attestor.AwaitFunc = func(context.Context, uint32, common.Hash) (*attestation.Record, error) {
		return nil, apperrors.TimeoutError(nil, "attestation not ready after 120 attempts")
	}

	res, err := h.orch.Run(context.Background(), big.NewInt(10_000_000), usdcOut(), false, user)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategoryTimeout))

	assert.Equal(t, homeBurnHash, res.BridgeToDestinationTx)
	assert.Equal(t, common.Hash{}, res.MintOnDestinationTx)
	assert.Empty(t, h.exec.mints)
	assert.Empty(t, h.swapper.amounts)

	last := h.recorder.last()
	assert.Equal(t, db.RunStatusFailed, last.Status)
	assert.Equal(t, StageAwaitAttestation, last.Stage)
	assert.Contains(t, last.Error, "await_attestation")
	assert.Equal(t, homeBurnHash.Hex(), last.BridgeToDestinationTx)
}

func TestRun_SwapFailureKeepsEarlierHashes(t *testing.T) {
	h := newHarness()
	h.swapper.err = apperrors.RevertError(nil, "swap reverted")

	res, err := h.orch.Run(context.Background(), big.NewInt(10_000_000), usdcOut(), false, user)
	require.Error(t, err)
	assert.ErrorContains(t, err, "swap")

	assert.Equal(t, homeBurnHash, res.BridgeToDestinationTx)
	assert.Equal(t, execMintHash, res.MintOnDestinationTx)
	assert.Equal(t, common.Hash{}, res.SwapTx)
	assert.Empty(t, h.balances.tokens)
	assert.Equal(t, StageSwap, h.recorder.last().Stage)
}

func TestRun_BalanceReadFailureFailsRun(t *testing.T) {
	h := newHarness()
	h.balances.err = errBoom

	_, err := h.orch.Run(context.Background(), big.NewInt(10_000_000), usdcOut(), false, user)
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, h.exec.burns)
	assert.Equal(t, StageCheckOutput, h.recorder.last().Stage)
}

func TestRun_RejectsNonPositiveAmount(t *testing.T) {
	h := newHarness()

	_, err := h.orch.Run(context.Background(), big.NewInt(0), usdcOut(), false, user)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategoryValidation))
	assert.Empty(t, h.home.burns)
	assert.Empty(t, h.recorder.stages())
}

func TestRun_RecorderFailureDoesNotStopRun(t *testing.T) {
	h := newHarness()
	h.recorder.failWith = errBoom

	res, err := h.orch.Run(context.Background(), big.NewInt(10_000_000), usdcOut(), false, user)
	require.NoError(t, err)
	assert.True(t, res.BridgedBack())
}

func TestRun_WithoutRecorder(t *testing.T) {
	h := newHarness()
	orch := New(h.home, h.exec, h.attestor, h.swapper, h.balances, agent, nil, zap.NewNop())

	res, err := orch.Run(context.Background(), big.NewInt(10_000_000), usdcOut(), false, user)
	require.NoError(t, err)
	assert.Equal(t, homeMintHash, res.MintOnSourceTx)
}
