// Package bridge burns USDC on one chain and mints it on another through the
// cross-chain transfer protocol.
package bridge

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/chainsafe/copytrade-relayer/pkg/attestation"
	"github.com/chainsafe/copytrade-relayer/pkg/config"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const (
	// StandardFinalityThreshold requests a standard (non-fast) transfer
	StandardFinalityThreshold uint32 = 2000
)

// StandardMaxFee is zero: standard transfers carry no protocol fee
var StandardMaxFee = big.NewInt(0)

// ChainClient is the chain access a leg needs
type ChainClient interface {
	Name() string
	Domain() uint32
	USDC() common.Address
	Address() common.Address
	EnsureAllowance(ctx context.Context, token, spender common.Address, amount *big.Int) error
	SendAndWait(ctx context.Context, method string, send ethereum.SendFunc) (common.Hash, error)
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
}

// TokenMessenger is the burn side of the bridge
type TokenMessenger interface {
	DepositForBurn(opts *bind.TransactOpts, amount *big.Int, destinationDomain uint32, mintRecipient [32]byte,
		burnToken common.Address, destinationCaller [32]byte, maxFee *big.Int, minFinalityThreshold uint32) (*types.Transaction, error)
	FilterDepositForBurn(opts *bind.FilterOpts, burnToken, depositor []common.Address) ([]*contracts.TokenMessengerDepositForBurn, error)
}

// MessageTransmitter is the mint side of the bridge
type MessageTransmitter interface {
	ReceiveMessage(opts *bind.TransactOpts, message, attestation []byte) (*types.Transaction, error)
}

// Leg burns on and mints to one chain
type Leg struct {
	client        ChainClient
	messengerAddr common.Address
	messenger     TokenMessenger
	transmitter   MessageTransmitter
	logger        *zap.Logger
}

// NewLeg binds the bridge contracts of cfg on client
func NewLeg(client *ethereum.Client, cfg *config.ChainConfig, logger *zap.Logger) (*Leg, error) {
	messengerAddr := common.HexToAddress(cfg.TokenMessenger)
	messenger, err := contracts.NewTokenMessenger(messengerAddr, client.Backend())
	if err != nil {
		return nil, fmt.Errorf("failed to bind token messenger: %w", err)
	}
	transmitter, err := contracts.NewMessageTransmitter(common.HexToAddress(cfg.MessageTransmitter), client.Backend())
	if err != nil {
		return nil, fmt.Errorf("failed to bind message transmitter: %w", err)
	}
	return NewLegWithContracts(client, messengerAddr, messenger, transmitter, logger), nil
}

// NewLegWithContracts builds a leg from already bound contracts
func NewLegWithContracts(client ChainClient, messengerAddr common.Address, messenger TokenMessenger, transmitter MessageTransmitter, logger *zap.Logger) *Leg {
	return &Leg{
		client:        client,
		messengerAddr: messengerAddr,
		messenger:     messenger,
		transmitter:   transmitter,
		logger:        logger.Named("bridge").With(zap.String("chain", client.Name())),
	}
}

// Domain returns the bridge domain of the leg's chain
func (l *Leg) Domain() uint32 { return l.client.Domain() }

// Chain returns the leg's chain name
func (l *Leg) Chain() string { return l.client.Name() }

// Burn approves and burns amount of USDC for recipient on destDomain and
// returns the burn transaction hash once it is mined.
func (l *Leg) Burn(ctx context.Context, amount *big.Int, destDomain uint32, recipient common.Address) (common.Hash, error) {
	if amount == nil || amount.Sign() <= 0 {
		return common.Hash{}, apperrors.ValidationError(nil, "burn amount must be positive")
	}
	if destDomain == l.client.Domain() {
		return common.Hash{}, apperrors.ValidationError(nil, "destination domain equals source domain")
	}

	usdc := l.client.USDC()

	l.logger.Info("Approving USDC for token messenger", zap.String("amount", amount.String()))
	if err := l.client.EnsureAllowance(ctx, usdc, l.messengerAddr, amount); err != nil {
		return common.Hash{}, fmt.Errorf("approve burn: %w", err)
	}

	startBlock, startErr := l.client.GetLatestBlockNumber(ctx)

	l.logger.Info("Burning USDC",
		zap.String("amount", amount.String()),
		zap.Uint32("destination_domain", destDomain),
		zap.String("recipient", recipient.Hex()))

	hash, err := l.client.SendAndWait(ctx, "depositForBurn", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return l.messenger.DepositForBurn(opts,
			amount,
			destDomain,
			ethereum.AddressToBytes32(recipient),
			usdc,
			[32]byte{},
			StandardMaxFee,
			StandardFinalityThreshold,
		)
	})
	if err != nil {
		if startErr != nil || !isAmbiguous(err) {
			return hash, fmt.Errorf("burn: %w", err)
		}
		// the burn may have landed even though we never saw its receipt
		found, ok, findErr := l.FindBurnSince(ctx, amount, destDomain, recipient, startBlock)
		if findErr != nil || !ok {
			return hash, fmt.Errorf("burn: %w", err)
		}
		l.logger.Warn("Recovered burn after ambiguous failure",
			zap.String("tx_hash", found.Hex()),
			zap.Error(err))
		hash = found
	}

	l.logger.Info("Burned", zap.String("tx_hash", hash.Hex()))
	return hash, nil
}

// Mint submits the attested message on this chain. Only complete
// attestations are accepted.
func (l *Leg) Mint(ctx context.Context, rec *attestation.Record) (common.Hash, error) {
	if rec == nil || rec.Status != attestation.StatusComplete {
		return common.Hash{}, apperrors.ValidationError(nil, "mint requires a complete attestation")
	}
	if len(rec.Message) == 0 || len(rec.Attestation) == 0 {
		return common.Hash{}, apperrors.ValidationError(nil, "attestation record is empty")
	}

	l.logger.Info("Minting USDC")
	hash, err := l.client.SendAndWait(ctx, "receiveMessage", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return l.transmitter.ReceiveMessage(opts, rec.Message, rec.Attestation)
	})
	if err != nil {
		return hash, fmt.Errorf("mint: %w", err)
	}

	l.logger.Info("Minted", zap.String("tx_hash", hash.Hex()))
	return hash, nil
}

// FindBurnSince looks for a burn from the operator with the same amount,
// destination and recipient at or after fromBlock. It returns the most
// recent match.
func (l *Leg) FindBurnSince(ctx context.Context, amount *big.Int, destDomain uint32, recipient common.Address, fromBlock uint64) (common.Hash, bool, error) {
	latest, err := l.client.GetLatestBlockNumber(ctx)
	if err != nil {
		return common.Hash{}, false, err
	}

	events, err := l.messenger.FilterDepositForBurn(
		&bind.FilterOpts{Start: fromBlock, End: &latest, Context: ctx},
		[]common.Address{l.client.USDC()},
		[]common.Address{l.client.Address()},
	)
	if err != nil {
		return common.Hash{}, false, apperrors.TransientError(err, "failed to query burns")
	}

	want := ethereum.AddressToBytes32(recipient)
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.DestinationDomain == destDomain &&
			ev.Amount.Cmp(amount) == 0 &&
			bytes.Equal(ev.MintRecipient[:], want[:]) {
			return ev.Raw.TxHash, true, nil
		}
	}
	return common.Hash{}, false, nil
}

// isAmbiguous reports whether a failed submission may still have been mined
func isAmbiguous(err error) bool {
	return apperrors.Is(err, apperrors.CategoryTimeout) || apperrors.Is(err, apperrors.CategoryTransient)
}
