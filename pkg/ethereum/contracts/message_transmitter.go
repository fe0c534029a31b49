package contracts

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// MessageTransmitterMetaData contains the mint entry point of the v2 message transmitter.
var MessageTransmitterMetaData = &bind.MetaData{
	ABI: `[
{"inputs":[{"name":"message","type":"bytes"},{"name":"attestation","type":"bytes"}],"name":"receiveMessage","outputs":[{"name":"success","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`,
}

// MessageTransmitter is a binding around the bridge's mint contract
type MessageTransmitter struct {
	*boundContract
}

// NewMessageTransmitter binds the message transmitter at address
func NewMessageTransmitter(address common.Address, backend bind.ContractBackend) (*MessageTransmitter, error) {
	b, err := newBoundContract(MessageTransmitterMetaData, address, backend)
	if err != nil {
		return nil, err
	}
	return &MessageTransmitter{b}, nil
}

// ReceiveMessage is a paid mutator transaction binding the contract method 0x57ecfd28.
//
// Solidity: function receiveMessage(bytes message, bytes attestation) returns(bool success)
func (t *MessageTransmitter) ReceiveMessage(opts *bind.TransactOpts, message, attestation []byte) (*types.Transaction, error) {
	return t.contract.Transact(opts, "receiveMessage", message, attestation)
}
