package orchestrator

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/chainsafe/copytrade-relayer/pkg/attestation"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/ethereum/go-ethereum/common"
)

type burnCall struct {
	Amount     *big.Int
	DestDomain uint32
	Recipient  common.Address
}

type mockLeg struct {
	domain   uint32
	chain    string
	burnHash common.Hash
	mintHash common.Hash
	burnErr  error
	mintErr  error

	burns []burnCall
	mints []*attestation.Record
}

func (m *mockLeg) Domain() uint32 { return m.domain }
func (m *mockLeg) Chain() string  { return m.chain }

func (m *mockLeg) Burn(_ context.Context, amount *big.Int, destDomain uint32, recipient common.Address) (common.Hash, error) {
	m.burns = append(m.burns, burnCall{Amount: new(big.Int).Set(amount), DestDomain: destDomain, Recipient: recipient})
	if m.burnErr != nil {
		return common.Hash{}, m.burnErr
	}
	return m.burnHash, nil
}

func (m *mockLeg) Mint(_ context.Context, rec *attestation.Record) (common.Hash, error) {
	m.mints = append(m.mints, rec)
	if m.mintErr != nil {
		return common.Hash{}, m.mintErr
	}
	return m.mintHash, nil
}

type attestCall struct {
	Domain uint32
	TxHash common.Hash
}

type mockAttestor struct {
	AwaitFunc func(ctx context.Context, sourceDomain uint32, txHash common.Hash) (*attestation.Record, error)
	calls     []attestCall
}

func (m *mockAttestor) AwaitAttestation(ctx context.Context, sourceDomain uint32, txHash common.Hash) (*attestation.Record, error) {
	m.calls = append(m.calls, attestCall{Domain: sourceDomain, TxHash: txHash})
	if m.AwaitFunc != nil {
		return m.AwaitFunc(ctx, sourceDomain, txHash)
	}
	return &attestation.Record{
		Message:     txHash.Bytes(),
		Attestation: []byte{0x01},
		Status:      attestation.StatusComplete,
	}, nil
}

type mockSwapper struct {
	hash    common.Hash
	err     error
	amounts []*big.Int
}

func (m *mockSwapper) Swap(_ context.Context, _ contracts.PoolKey, _ bool, amountIn *big.Int) (common.Hash, error) {
	m.amounts = append(m.amounts, amountIn)
	return m.hash, m.err
}

type mockBalances struct {
	usdc    common.Address
	balance *big.Int
	err     error
	tokens  []common.Address
}

func (m *mockBalances) USDC() common.Address { return m.usdc }

func (m *mockBalances) BalanceOf(_ context.Context, token, _ common.Address) (*big.Int, error) {
	m.tokens = append(m.tokens, token)
	if m.err != nil {
		return nil, m.err
	}
	return m.balance, nil
}

type mockRecorder struct {
	mu        sync.Mutex
	snapshots []db.BridgeRun
	failWith  error
}

func (m *mockRecorder) CreateRun(_ context.Context, run *db.BridgeRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, *run)
	return m.failWith
}

func (m *mockRecorder) UpdateRun(_ context.Context, run *db.BridgeRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, *run)
	return m.failWith
}

func (m *mockRecorder) stages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.snapshots))
	for i, s := range m.snapshots {
		out[i] = s.Stage
	}
	return out
}

func (m *mockRecorder) last() db.BridgeRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[len(m.snapshots)-1]
}

var errBoom = errors.New("boom")
