package bridge

import (
	"context"
	"errors"
	"math/big"
	"testing"

	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/chainsafe/copytrade-relayer/pkg/attestation"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testUSDC      = common.HexToAddress("0x3600000000000000000000000000000000000000")
	testMessenger = common.HexToAddress("0x8FE6B999Dc680CcFDD5Bf7EB0974218be2542DAA")
	testOperator  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testRecipient = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type fakeChain struct {
	domain     uint32
	methods    []string
	approvals  []*big.Int
	approveErr error
	sendErr    error
	latest     uint64
}

func (f *fakeChain) Name() string            { return "arc-testnet" }
func (f *fakeChain) Domain() uint32          { return f.domain }
func (f *fakeChain) USDC() common.Address    { return testUSDC }
func (f *fakeChain) Address() common.Address { return testOperator }

func (f *fakeChain) EnsureAllowance(_ context.Context, token, spender common.Address, amount *big.Int) error {
	if token != testUSDC || spender != testMessenger {
		return errors.New("unexpected approval target")
	}
	f.approvals = append(f.approvals, amount)
	return f.approveErr
}

func (f *fakeChain) SendAndWait(_ context.Context, method string, send ethereum.SendFunc) (common.Hash, error) {
	f.methods = append(f.methods, method)
	tx, err := send(&bind.TransactOpts{})
	if err != nil {
		return common.Hash{}, err
	}
	if f.sendErr != nil {
		return tx.Hash(), f.sendErr
	}
	return tx.Hash(), nil
}

func (f *fakeChain) GetLatestBlockNumber(context.Context) (uint64, error) { return f.latest, nil }

type burnCall struct {
	amount      *big.Int
	destDomain  uint32
	recipient   [32]byte
	burnToken   common.Address
	caller      [32]byte
	maxFee      *big.Int
	minFinality uint32
}

type fakeMessenger struct {
	burns  []burnCall
	events []*contracts.TokenMessengerDepositForBurn
	filter *bind.FilterOpts
}

func (f *fakeMessenger) DepositForBurn(_ *bind.TransactOpts, amount *big.Int, destinationDomain uint32, mintRecipient [32]byte,
	burnToken common.Address, destinationCaller [32]byte, maxFee *big.Int, minFinalityThreshold uint32) (*types.Transaction, error) {
	f.burns = append(f.burns, burnCall{amount, destinationDomain, mintRecipient, burnToken, destinationCaller, maxFee, minFinalityThreshold})
	return types.NewTx(&types.LegacyTx{Nonce: uint64(len(f.burns))}), nil
}

func (f *fakeMessenger) FilterDepositForBurn(opts *bind.FilterOpts, _, _ []common.Address) ([]*contracts.TokenMessengerDepositForBurn, error) {
	f.filter = opts
	return f.events, nil
}

type fakeTransmitter struct {
	messages [][]byte
}

func (f *fakeTransmitter) ReceiveMessage(_ *bind.TransactOpts, message, _ []byte) (*types.Transaction, error) {
	f.messages = append(f.messages, message)
	return types.NewTx(&types.LegacyTx{Nonce: 99}), nil
}

func newTestLeg(chain *fakeChain) (*Leg, *fakeMessenger, *fakeTransmitter) {
	m := &fakeMessenger{}
	tr := &fakeTransmitter{}
	return NewLegWithContracts(chain, testMessenger, m, tr, zap.NewNop()), m, tr
}

func TestBurn_StandardTransferParameters(t *testing.T) {
	chain := &fakeChain{domain: 26}
	leg, messenger, _ := newTestLeg(chain)

	hash, err := leg.Burn(context.Background(), big.NewInt(10_000_000), 6, testRecipient)
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)

	require.Len(t, messenger.burns, 1)
	burn := messenger.burns[0]
	assert.Equal(t, "10000000", burn.amount.String())
	assert.Equal(t, uint32(6), burn.destDomain)
	assert.Equal(t, ethereum.AddressToBytes32(testRecipient), burn.recipient)
	assert.Equal(t, testUSDC, burn.burnToken)
	assert.Equal(t, [32]byte{}, burn.caller)
	assert.Equal(t, int64(0), burn.maxFee.Int64())
	assert.Equal(t, uint32(2000), burn.minFinality)

	assert.Equal(t, []string{"depositForBurn"}, chain.methods)
	assert.Len(t, chain.approvals, 1)
}

func TestBurn_Validation(t *testing.T) {
	leg, messenger, _ := newTestLeg(&fakeChain{domain: 26})

	_, err := leg.Burn(context.Background(), big.NewInt(0), 6, testRecipient)
	assert.True(t, apperrors.Is(err, apperrors.CategoryValidation))

	_, err = leg.Burn(context.Background(), big.NewInt(1), 26, testRecipient)
	assert.True(t, apperrors.Is(err, apperrors.CategoryValidation))

	assert.Empty(t, messenger.burns)
}

func TestBurn_ApprovalFailureSkipsBurn(t *testing.T) {
	chain := &fakeChain{domain: 26, approveErr: errors.New("approve reverted")}
	leg, messenger, _ := newTestLeg(chain)

	_, err := leg.Burn(context.Background(), big.NewInt(5), 6, testRecipient)
	require.Error(t, err)
	assert.Empty(t, messenger.burns)
}

func TestMint_RequiresCompleteAttestation(t *testing.T) {
	leg, _, transmitter := newTestLeg(&fakeChain{domain: 6})

	_, err := leg.Mint(context.Background(), nil)
	assert.Error(t, err)

	_, err = leg.Mint(context.Background(), &attestation.Record{Message: []byte{1}, Attestation: []byte{2}, Status: "pending_confirmations"})
	assert.True(t, apperrors.Is(err, apperrors.CategoryValidation))
	assert.Empty(t, transmitter.messages)

	hash, err := leg.Mint(context.Background(), &attestation.Record{Message: []byte{1}, Attestation: []byte{2}, Status: attestation.StatusComplete})
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)
	assert.Equal(t, [][]byte{{1}}, transmitter.messages)
}

func TestMint_RevertIsReported(t *testing.T) {
	chain := &fakeChain{domain: 6, sendErr: apperrors.RevertError(nil, "receiveMessage reverted")}
	leg, _, _ := newTestLeg(chain)

	_, err := leg.Mint(context.Background(), &attestation.Record{Message: []byte{1}, Attestation: []byte{2}, Status: attestation.StatusComplete})
	assert.True(t, apperrors.Is(err, apperrors.CategoryRevert))
}

func TestFindBurnSince(t *testing.T) {
	chain := &fakeChain{domain: 26, latest: 1000}
	leg, messenger, _ := newTestLeg(chain)

	match := common.HexToHash("0x0b")
	messenger.events = []*contracts.TokenMessengerDepositForBurn{
		{Amount: big.NewInt(5), DestinationDomain: 6, MintRecipient: ethereum.AddressToBytes32(testRecipient), Raw: types.Log{TxHash: common.HexToHash("0x0a")}},
		{Amount: big.NewInt(5), DestinationDomain: 6, MintRecipient: ethereum.AddressToBytes32(testRecipient), Raw: types.Log{TxHash: match}},
		{Amount: big.NewInt(7), DestinationDomain: 6, MintRecipient: ethereum.AddressToBytes32(testRecipient), Raw: types.Log{TxHash: common.HexToHash("0x0c")}},
	}

	hash, found, err := leg.FindBurnSince(context.Background(), big.NewInt(5), 6, testRecipient, 800)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, match, hash)
	assert.Equal(t, uint64(800), messenger.filter.Start)
	assert.Equal(t, uint64(1000), *messenger.filter.End)

	_, found, err = leg.FindBurnSince(context.Background(), big.NewInt(5), 26, testRecipient, 0)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBurn_RecoversAfterReceiptTimeout(t *testing.T) {
	chain := &fakeChain{domain: 26, latest: 500, sendErr: apperrors.TimeoutError(nil, "waiting for receipt")}
	leg, messenger, _ := newTestLeg(chain)

	landed := common.HexToHash("0xfeed")
	messenger.events = []*contracts.TokenMessengerDepositForBurn{
		{Amount: big.NewInt(5), DestinationDomain: 6, MintRecipient: ethereum.AddressToBytes32(testRecipient), Raw: types.Log{TxHash: landed}},
	}

	hash, err := leg.Burn(context.Background(), big.NewInt(5), 6, testRecipient)
	require.NoError(t, err)
	assert.Equal(t, landed, hash)
	assert.Len(t, messenger.burns, 1)
	assert.Equal(t, uint64(500), messenger.filter.Start)
}

func TestBurn_RevertIsNotRecovered(t *testing.T) {
	chain := &fakeChain{domain: 26, sendErr: apperrors.RevertError(nil, "depositForBurn reverted")}
	leg, messenger, _ := newTestLeg(chain)
	messenger.events = []*contracts.TokenMessengerDepositForBurn{
		{Amount: big.NewInt(5), DestinationDomain: 6, MintRecipient: ethereum.AddressToBytes32(testRecipient)},
	}

	_, err := leg.Burn(context.Background(), big.NewInt(5), 6, testRecipient)
	assert.True(t, apperrors.Is(err, apperrors.CategoryRevert))
	assert.Nil(t, messenger.filter)
}

func TestBurn_TimeoutWithoutLandedBurnFails(t *testing.T) {
	chain := &fakeChain{domain: 26, sendErr: apperrors.TimeoutError(nil, "waiting for receipt")}
	leg, messenger, _ := newTestLeg(chain)

	_, err := leg.Burn(context.Background(), big.NewInt(5), 6, testRecipient)
	assert.True(t, apperrors.Is(err, apperrors.CategoryTimeout))
	assert.Len(t, messenger.burns, 1)
}
