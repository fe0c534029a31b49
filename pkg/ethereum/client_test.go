package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/chainsafe/copytrade-relayer/pkg/config"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBackend embeds the interface so only the methods under test need bodies
type fakeBackend struct {
	bind.ContractBackend

	mu         sync.Mutex
	nonce      uint64
	nonceCalls int
	receipts   []*types.Receipt
	header     *types.Header
	balance    *big.Int
	allowance  *big.Int
	nonceErr   error
}

func (f *fakeBackend) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonceCalls++
	return f.nonce, f.nonceErr
}

// CallContract answers the allowance(owner, spender) view
func (f *fakeBackend) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	return common.LeftPadBytes(f.allowance.Bytes(), 32), nil
}

func (f *fakeBackend) HeaderByNumber(_ context.Context, _ *big.Int) (*types.Header, error) {
	return f.header, nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.receipts) == 0 {
		return nil, ethereum.NotFound
	}
	r := f.receipts[0]
	f.receipts = f.receipts[1:]
	if r == nil {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeBackend) BalanceAt(_ context.Context, _ common.Address, _ *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeBackend) Close() {}

func newTestClient(t *testing.T, backend *fakeBackend) *Client {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	cfg := &config.ChainConfig{
		Name:           "test-chain",
		ChainID:        1337,
		Domain:         6,
		GasLimit:       300000,
		ReceiptPoll:    time.Millisecond,
		ReceiptTimeout: time.Second,
	}
	return NewClientWithBackend(cfg, backend, key, zap.NewNop())
}

func TestTransact_FetchesNonceForEverySubmission(t *testing.T) {
	backend := &fakeBackend{nonce: 7}
	c := newTestClient(t, backend)

	var seen []uint64
	send := func(opts *bind.TransactOpts) (*types.Transaction, error) {
		seen = append(seen, opts.Nonce.Uint64())
		// the node accepts the tx, so the pending nonce moves on
		backend.mu.Lock()
		backend.nonce++
		backend.mu.Unlock()
		return types.NewTx(&types.LegacyTx{Nonce: opts.Nonce.Uint64()}), nil
	}

	_, err := c.Transact(context.Background(), "approve", send)
	require.NoError(t, err)
	_, err = c.Transact(context.Background(), "depositForBurn", send)
	require.NoError(t, err)

	assert.Equal(t, 2, backend.nonceCalls)
	assert.Equal(t, []uint64{7, 8}, seen)
}

func TestTransact_ReadOnlyClient(t *testing.T) {
	cfg := &config.ChainConfig{Name: "ro", ChainID: 1}
	c := NewClientWithBackend(cfg, &fakeBackend{}, nil, zap.NewNop())

	assert.False(t, c.CanSign())
	_, err := c.Transact(context.Background(), "swap", func(*bind.TransactOpts) (*types.Transaction, error) {
		t.Fatal("send must not be called without a signer")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrNoSigner)
	assert.True(t, apperrors.Is(err, apperrors.CategoryConfiguration))
}

func TestWaitMined(t *testing.T) {
	t.Run("success after pending", func(t *testing.T) {
		backend := &fakeBackend{receipts: []*types.Receipt{nil, nil, {Status: types.ReceiptStatusSuccessful, GasUsed: 21000}}}
		c := newTestClient(t, backend)

		receipt, err := c.WaitMined(context.Background(), common.HexToHash("0x01"))
		require.NoError(t, err)
		assert.Equal(t, uint64(21000), receipt.GasUsed)
	})

	t.Run("reverted", func(t *testing.T) {
		backend := &fakeBackend{receipts: []*types.Receipt{{Status: types.ReceiptStatusFailed}}}
		c := newTestClient(t, backend)

		_, err := c.WaitMined(context.Background(), common.HexToHash("0x02"))
		assert.True(t, apperrors.Is(err, apperrors.CategoryRevert))
	})

	t.Run("timeout", func(t *testing.T) {
		c := newTestClient(t, &fakeBackend{})
		c.config.ReceiptTimeout = 20 * time.Millisecond

		_, err := c.WaitMined(context.Background(), common.HexToHash("0x03"))
		assert.True(t, apperrors.Is(err, apperrors.CategoryTimeout))
	})
}

func TestGetLatestBlockNumber(t *testing.T) {
	c := newTestClient(t, &fakeBackend{header: &types.Header{Number: big.NewInt(1234)}})

	n, err := c.GetLatestBlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), n)
}

func TestNativeBalance(t *testing.T) {
	balance, _ := new(big.Int).SetString("2500000000000000000", 10)
	c := newTestClient(t, &fakeBackend{balance: balance})

	got, err := c.NativeBalance(context.Background(), c.Address())
	require.NoError(t, err)
	assert.Equal(t, "2.5", FormatUnits(got, 18))
}

func TestTransact_ClassifiesSubmissionErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  apperrors.Category
		retryable bool
	}{
		{"estimate gas revert", errors.New("failed to estimate gas needed: execution reverted: ERC20: transfer amount exceeds allowance"), apperrors.CategoryRevert, false},
		{"insufficient funds", errors.New("insufficient funds for gas * price + value"), apperrors.CategoryGeneralError, false},
		{"nonce too low", errors.New("nonce too low: next nonce 9, tx nonce 8"), apperrors.CategoryGeneralError, false},
		{"connection reset", errors.New("Post \"https://sepolia.base.org\": read: connection reset by peer"), apperrors.CategoryTransient, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeBackend{})
			_, err := c.Transact(context.Background(), "depositForBurn", func(*bind.TransactOpts) (*types.Transaction, error) {
				return nil, tt.err
			})
			require.Error(t, err)
			assert.Equal(t, tt.category, apperrors.CategoryOf(err))
			assert.Equal(t, tt.retryable, apperrors.IsRetryable(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestEnsureAllowance(t *testing.T) {
	token := common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	spender := common.HexToAddress("0x8FE6B999Dc680CcFDD5Bf7EB0974218be2542DAA")

	t.Run("covered allowance sends nothing", func(t *testing.T) {
		backend := &fakeBackend{allowance: big.NewInt(5_000_000)}
		c := newTestClient(t, backend)

		require.NoError(t, c.EnsureAllowance(context.Background(), token, spender, big.NewInt(5_000_000)))
		assert.Zero(t, backend.nonceCalls, "no approve submitted")
	})

	t.Run("short allowance submits approve", func(t *testing.T) {
		backend := &fakeBackend{allowance: big.NewInt(4_999_999), nonceErr: errors.New("node unavailable")}
		c := newTestClient(t, backend)

		err := c.EnsureAllowance(context.Background(), token, spender, big.NewInt(5_000_000))
		require.Error(t, err)
		assert.Equal(t, 1, backend.nonceCalls, "approve reached the signer")
	})
}
