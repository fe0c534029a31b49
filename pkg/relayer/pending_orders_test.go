package relayer

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/chainsafe/copytrade-relayer/pkg/backend"
	"github.com/chainsafe/copytrade-relayer/pkg/db"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/chainsafe/copytrade-relayer/pkg/orchestrator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	execUSDC  = common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	venueHook = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	orderUser = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	weth      = common.HexToAddress("0x4200000000000000000000000000000000000006")
)

func testPoolDefaults() PoolDefaults {
	return PoolDefaults{USDC: execUSDC, Hook: venueHook, Fee: 3000, TickSpacing: 60, Decimals: 6}
}

func pendingOrder(id string) backend.PendingOrder {
	return backend.PendingOrder{
		ID:           id,
		UserAddress:  orderUser.Hex(),
		Username:     "alice",
		ZeroForOne:   1,
		Amount:       "10",
		PairAddress0: execUSDC.Hex(),
		PairAddress1: weth.Hex(),
		PoolFee:      500,
	}
}

func fixedOrders(orders ...backend.PendingOrder) func(context.Context) []backend.PendingOrder {
	return func(context.Context) []backend.PendingOrder { return orders }
}

func TestPendingOrderProcessor_ExecutesOrder(t *testing.T) {
	be := &MockBackend{FetchPendingOrdersFunc: fixedOrders(pendingOrder("ord-1"))}
	runner := &MockRunner{}

	p := NewPendingOrderProcessor(be, runner, db.NewMemoryStore(), testPoolDefaults(), zap.NewNop())
	require.NoError(t, p.ProcessPending(context.Background()))

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "10000000", calls[0].Amount.String(), "10 USDC at 6 decimals")
	assert.True(t, calls[0].ZeroForOne)
	assert.Equal(t, orderUser, calls[0].User)
	assert.Equal(t, contracts.PoolKey{
		Currency0:   execUSDC,
		Currency1:   weth,
		Fee:         big.NewInt(500),
		TickSpacing: big.NewInt(60),
		Hooks:       venueHook,
	}, calls[0].Key)

	swapTx := common.HexToHash("0x5a").Hex()
	assert.Equal(t, []statusUpdate{{OrderID: "ord-1", Status: backend.OrderExecuted, TxHash: swapTx}}, be.Statuses())

	notes := be.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, backend.EventOrderExecuted, notes[0].Event)
	assert.Equal(t, map[string]any{
		"orderId":  "ord-1",
		"swapTx":   swapTx,
		"bridgeTx": common.HexToHash("0xb1").Hex(),
		"user":     orderUser.Hex(),
	}, notes[0].Data)
}

func TestPendingOrderProcessor_AttemptsEachOrderOnce(t *testing.T) {
	be := &MockBackend{FetchPendingOrdersFunc: fixedOrders(pendingOrder("ord-1"), pendingOrder("ord-1"))}
	runner := &MockRunner{RunFunc: func(context.Context, *big.Int, contracts.PoolKey, bool, common.Address) (*orchestrator.Result, error) {
		return nil, errors.New("attestation timeout")
	}}

	p := NewPendingOrderProcessor(be, runner, db.NewMemoryStore(), testPoolDefaults(), zap.NewNop())
	require.NoError(t, p.ProcessPending(context.Background()))
	// the backend still lists the failed order on the next tick
	require.NoError(t, p.ProcessPending(context.Background()))

	assert.Len(t, runner.Calls(), 1)
	assert.Equal(t, []statusUpdate{{OrderID: "ord-1", Status: backend.OrderFailed}}, be.Statuses())
	assert.Empty(t, be.Notifications())
}

func TestPendingOrderProcessor_NoSigningKey(t *testing.T) {
	ctx := context.Background()
	be := &MockBackend{FetchPendingOrdersFunc: fixedOrders(pendingOrder("ord-1"))}
	store := db.NewMemoryStore()

	p := NewPendingOrderProcessor(be, nil, store, testPoolDefaults(), zap.NewNop())
	require.NoError(t, p.ProcessPending(ctx))

	assert.Empty(t, be.Statuses())
	seen, err := store.IsProcessed(ctx, db.KindOrder, "ord-1")
	require.NoError(t, err)
	assert.False(t, seen, "dry run must not consume the order id")
}

func TestPendingOrderProcessor_OrdersSurviveDryRun(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	be := &MockBackend{FetchPendingOrdersFunc: fixedOrders(pendingOrder("ord-1"), pendingOrder("ord-2"))}

	dry := NewPendingOrderProcessor(be, nil, store, testPoolDefaults(), zap.NewNop())
	require.NoError(t, dry.ProcessPending(ctx))
	require.NoError(t, dry.ProcessPending(ctx))

	runner := &MockRunner{}
	live := NewPendingOrderProcessor(be, runner, store, testPoolDefaults(), zap.NewNop())
	require.NoError(t, live.ProcessPending(ctx))

	assert.Len(t, runner.Calls(), 2)
	statuses := be.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "ord-1", statuses[0].OrderID)
	assert.Equal(t, backend.OrderExecuted, statuses[0].Status)
	assert.Equal(t, "ord-2", statuses[1].OrderID)
	assert.Equal(t, backend.OrderExecuted, statuses[1].Status)
}

func TestPendingOrderProcessor_InvalidOrdersFail(t *testing.T) {
	badUser := pendingOrder("bad-user")
	badUser.UserAddress = "alice.eth"
	badAmount := pendingOrder("bad-amount")
	badAmount.Amount = "ten"

	be := &MockBackend{FetchPendingOrdersFunc: fixedOrders(badUser, badAmount)}
	runner := &MockRunner{}

	p := NewPendingOrderProcessor(be, runner, db.NewMemoryStore(), testPoolDefaults(), zap.NewNop())
	require.NoError(t, p.ProcessPending(context.Background()))

	assert.Empty(t, runner.Calls())
	assert.Equal(t, []statusUpdate{
		{OrderID: "bad-user", Status: backend.OrderFailed},
		{OrderID: "bad-amount", Status: backend.OrderFailed},
	}, be.Statuses())
}

func TestPendingOrderProcessor_PoolKeyDefaults(t *testing.T) {
	p := NewPendingOrderProcessor(&MockBackend{}, nil, db.NewMemoryStore(), testPoolDefaults(), zap.NewNop())

	order := pendingOrder("ord-1")
	order.PairAddress0 = ""
	order.PairAddress1 = ""
	order.PoolFee = 0

	assert.Equal(t, contracts.PoolKey{
		Currency0:   execUSDC,
		Currency1:   execUSDC,
		Fee:         big.NewInt(3000),
		TickSpacing: big.NewInt(60),
		Hooks:       venueHook,
	}, p.PoolKey(&order))
}

func TestPendingOrderProcessor_NoOrders(t *testing.T) {
	runner := &MockRunner{}
	p := NewPendingOrderProcessor(&MockBackend{}, runner, db.NewMemoryStore(), testPoolDefaults(), zap.NewNop())
	require.NoError(t, p.ProcessPending(context.Background()))
	assert.Empty(t, runner.Calls())
}
