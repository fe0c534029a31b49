package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/chainsafe/copytrade-relayer/internal/metrics"
	apperrors "github.com/chainsafe/copytrade-relayer/pkg/app/errors"
	"github.com/chainsafe/copytrade-relayer/pkg/config"
	"github.com/chainsafe/copytrade-relayer/pkg/ethereum/contracts"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ErrNoSigner is returned by signing operations on a read-only client
var ErrNoSigner = apperrors.ConfigurationError("no signing key configured")

// Backend is the subset of ethclient.Client the relayer uses
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

// SendFunc builds and submits one transaction with the given signer
type SendFunc func(opts *bind.TransactOpts) (*types.Transaction, error)

// Client represents a connection to one EVM chain, optionally holding the
// operator's signing key.
type Client struct {
	config     *config.ChainConfig
	backend    Backend
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger

	// txMu serializes nonce reads with the submission that consumes them
	txMu sync.Mutex
}

// NewClient dials the chain's RPC endpoint. An empty privateKeyHex yields a
// read-only client.
func NewClient(cfg *config.ChainConfig, privateKeyHex string, logger *zap.Logger) (*Client, error) {
	backend, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s RPC: %w", cfg.Name, err)
	}

	var privateKey *ecdsa.PrivateKey
	if privateKeyHex != "" {
		privateKey, err = crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
	}

	c := NewClientWithBackend(cfg, backend, privateKey, logger)

	c.logger.Info("Connected to chain",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("rpc_url", cfg.RPCURL),
		zap.Uint32("domain", cfg.Domain),
		zap.String("operator", c.address.Hex()))

	return c, nil
}

// NewClientWithBackend wraps an existing backend
func NewClientWithBackend(cfg *config.ChainConfig, backend Backend, privateKey *ecdsa.PrivateKey, logger *zap.Logger) *Client {
	c := &Client{
		config:     cfg,
		backend:    backend,
		privateKey: privateKey,
		logger:     logger.Named(cfg.Name),
	}
	if privateKey != nil {
		c.address = crypto.PubkeyToAddress(privateKey.PublicKey)
	}
	return c
}

// Close closes the RPC connection
func (c *Client) Close() {
	if c.backend != nil {
		c.backend.Close()
	}
}

// Name returns the configured chain name
func (c *Client) Name() string { return c.config.Name }

// Domain returns the chain's bridge domain id
func (c *Client) Domain() uint32 { return c.config.Domain }

// USDC returns the chain's USDC token address
func (c *Client) USDC() common.Address { return common.HexToAddress(c.config.USDC) }

// Address returns the operator address, zero for a read-only client
func (c *Client) Address() common.Address { return c.address }

// CanSign reports whether the client holds a signing key
func (c *Client) CanSign() bool { return c.privateKey != nil }

// Backend returns the underlying contract backend
func (c *Client) Backend() bind.ContractBackend { return c.backend }

// GetTransactor returns a transaction signer with a freshly fetched pending nonce
func (c *Client) GetTransactor(ctx context.Context) (*bind.TransactOpts, error) {
	if c.privateKey == nil {
		return nil, ErrNoSigner
	}

	chainID := big.NewInt(c.config.ChainID)

	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	nonce, err := c.backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, apperrors.TransientError(err, "failed to get nonce")
	}

	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.GasLimit = c.config.GasLimit

	if c.config.MaxGasPrice != "" {
		maxGasPrice, ok := new(big.Int).SetString(c.config.MaxGasPrice, 10)
		if !ok {
			return nil, apperrors.ConfigurationError("invalid max_gas_price " + c.config.MaxGasPrice)
		}

		gasPrice, err := c.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, apperrors.TransientError(err, "failed to suggest gas price")
		}

		if gasPrice.Cmp(maxGasPrice) > 0 {
			c.logger.Warn("Suggested gas price exceeds maximum",
				zap.String("suggested", gasPrice.String()),
				zap.String("max", maxGasPrice.String()))
			auth.GasPrice = maxGasPrice
		} else {
			auth.GasPrice = gasPrice
		}
	}

	return auth, nil
}

// Transact signs and submits one transaction. The nonce is read from the
// pending state immediately before signing and the client lock is held until
// the node has accepted the transaction.
func (c *Client) Transact(ctx context.Context, method string, send SendFunc) (common.Hash, error) {
	c.txMu.Lock()
	defer c.txMu.Unlock()

	auth, err := c.GetTransactor(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	tx, err := send(auth)
	if err != nil {
		metrics.TransactionsSent.WithLabelValues(c.config.Name, method, "failed").Inc()
		return common.Hash{}, classifySendError(err, method)
	}
	metrics.TransactionsSent.WithLabelValues(c.config.Name, method, "submitted").Inc()

	c.logger.Info("Transaction submitted",
		zap.String("method", method),
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("nonce", tx.Nonce()))

	return tx.Hash(), nil
}

// WaitMined polls for the receipt of txHash until it is mined, the receipt
// timeout elapses or ctx is cancelled. A failed receipt is a revert error.
func (c *Client) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	interval := c.config.ReceiptPoll
	if interval <= 0 {
		interval = time.Second
	}
	timeout := c.config.ReceiptTimeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, apperrors.RevertError(nil, "transaction "+txHash.Hex()+" reverted")
			}
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
		default:
			c.logger.Debug("Receipt lookup failed", zap.String("tx_hash", txHash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, apperrors.TimeoutError(ctx.Err(), "waiting for receipt of "+txHash.Hex())
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SendAndWait submits a transaction and waits for a successful receipt
func (c *Client) SendAndWait(ctx context.Context, method string, send SendFunc) (common.Hash, error) {
	hash, err := c.Transact(ctx, method, send)
	if err != nil {
		return common.Hash{}, err
	}
	receipt, err := c.WaitMined(ctx, hash)
	if err != nil {
		if apperrors.Is(err, apperrors.CategoryRevert) {
			metrics.TransactionsSent.WithLabelValues(c.config.Name, method, "reverted").Inc()
		}
		return hash, fmt.Errorf("%s: %w", method, err)
	}
	metrics.GasUsed.WithLabelValues(method).Observe(float64(receipt.GasUsed))
	return hash, nil
}

// GetLatestBlockNumber gets the latest block number
func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	header, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, apperrors.TransientError(err, "failed to get latest block")
	}
	return header.Number.Uint64(), nil
}

// BalanceOf returns the ERC-20 balance of owner
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	erc20, err := contracts.NewERC20(token, c.backend)
	if err != nil {
		return nil, err
	}
	balance, err := erc20.BalanceOf(&bind.CallOpts{Context: ctx}, owner)
	if err != nil {
		return nil, apperrors.TransientError(err, "failed to read balance")
	}
	return balance, nil
}

// NativeBalance returns the gas-token balance of owner at the latest block
func (c *Client) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, apperrors.TransientError(err, "failed to read native balance")
	}
	return balance, nil
}

// EnsureAllowance approves spender for amount of token unless the current
// allowance already covers it.
func (c *Client) EnsureAllowance(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	erc20, err := contracts.NewERC20(token, c.backend)
	if err != nil {
		return err
	}

	allowance, err := erc20.Allowance(&bind.CallOpts{Context: ctx}, c.address, spender)
	if err != nil {
		return apperrors.TransientError(err, "failed to read allowance")
	}
	if allowance.Cmp(amount) >= 0 {
		return nil
	}

	_, err = c.SendAndWait(ctx, "approve", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return erc20.Approve(opts, spender, amount)
	})
	return err
}
