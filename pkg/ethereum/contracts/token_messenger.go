package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TokenMessengerMetaData contains the burn entry point of the v2 token messenger.
var TokenMessengerMetaData = &bind.MetaData{
	ABI: `[
{"inputs":[{"name":"amount","type":"uint256"},{"name":"destinationDomain","type":"uint32"},{"name":"mintRecipient","type":"bytes32"},{"name":"burnToken","type":"address"},{"name":"destinationCaller","type":"bytes32"},{"name":"maxFee","type":"uint256"},{"name":"minFinalityThreshold","type":"uint32"}],"name":"depositForBurn","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"burnToken","type":"address"},{"indexed":false,"name":"amount","type":"uint256"},{"indexed":true,"name":"depositor","type":"address"},{"indexed":false,"name":"mintRecipient","type":"bytes32"},{"indexed":false,"name":"destinationDomain","type":"uint32"},{"indexed":false,"name":"destinationTokenMessenger","type":"bytes32"},{"indexed":false,"name":"destinationCaller","type":"bytes32"},{"indexed":false,"name":"maxFee","type":"uint256"},{"indexed":true,"name":"minFinalityThreshold","type":"uint32"},{"indexed":false,"name":"hookData","type":"bytes"}],"name":"DepositForBurn","type":"event"}
]`,
}

// TokenMessenger is a binding around the bridge's burn contract
type TokenMessenger struct {
	*boundContract
}

// TokenMessengerDepositForBurn represents a DepositForBurn event
type TokenMessengerDepositForBurn struct {
	BurnToken                 common.Address
	Amount                    *big.Int
	Depositor                 common.Address
	MintRecipient             [32]byte
	DestinationDomain         uint32
	DestinationTokenMessenger [32]byte
	DestinationCaller         [32]byte
	MaxFee                    *big.Int
	MinFinalityThreshold      uint32
	HookData                  []byte
	Raw                       types.Log
}

// NewTokenMessenger binds the token messenger at address
func NewTokenMessenger(address common.Address, backend bind.ContractBackend) (*TokenMessenger, error) {
	b, err := newBoundContract(TokenMessengerMetaData, address, backend)
	if err != nil {
		return nil, err
	}
	return &TokenMessenger{b}, nil
}

// DepositForBurn is a paid mutator transaction binding the contract method 0x8e0250ee.
//
// Solidity: function depositForBurn(uint256 amount, uint32 destinationDomain, bytes32 mintRecipient, address burnToken, bytes32 destinationCaller, uint256 maxFee, uint32 minFinalityThreshold) returns()
func (m *TokenMessenger) DepositForBurn(
	opts *bind.TransactOpts,
	amount *big.Int,
	destinationDomain uint32,
	mintRecipient [32]byte,
	burnToken common.Address,
	destinationCaller [32]byte,
	maxFee *big.Int,
	minFinalityThreshold uint32,
) (*types.Transaction, error) {
	return m.contract.Transact(opts, "depositForBurn",
		amount, destinationDomain, mintRecipient, burnToken, destinationCaller, maxFee, minFinalityThreshold)
}

// FilterDepositForBurn returns DepositForBurn events in the range, optionally
// restricted to the given burn tokens and depositors.
func (m *TokenMessenger) FilterDepositForBurn(opts *bind.FilterOpts, burnToken, depositor []common.Address) ([]*TokenMessengerDepositForBurn, error) {
	var burnTokenRule []interface{}
	for _, item := range burnToken {
		burnTokenRule = append(burnTokenRule, item)
	}
	var depositorRule []interface{}
	for _, item := range depositor {
		depositorRule = append(depositorRule, item)
	}

	logs, err := m.filterLogs(opts, "DepositForBurn", burnTokenRule, depositorRule)
	if err != nil {
		return nil, err
	}

	events := make([]*TokenMessengerDepositForBurn, 0, len(logs))
	for _, log := range logs {
		ev := new(TokenMessengerDepositForBurn)
		if err := m.contract.UnpackLog(ev, "DepositForBurn", log); err != nil {
			return nil, err
		}
		ev.Raw = log
		events = append(events, ev)
	}
	return events, nil
}
