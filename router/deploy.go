package router

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/pkg/logger"
	"github.com/betbot/polyrouter/wallet"
)

const safeFactoryABIJSON = `[
  {"inputs":[{"name":"owner","type":"address"}],"name":"createProxy","outputs":[{"name":"proxy","type":"address"}],"stateMutability":"nonpayable","type":"function"}
]`

// Deployer checks and performs smart wallet deployments through the venue's
// proxy factory. Deployment never changes the wallet address (CREATE2), so a
// deploy may happen at any point after derivation.
type Deployer struct {
	backend ChainBackend
	chainID *big.Int
	factory common.Address

	factoryABI abi.ABI

	confirmPoll    time.Duration
	confirmTimeout time.Duration
}

// NewDeployer creates a deployer against the fixed venue factory.
func NewDeployer(backend ChainBackend, chain types.Chain) (*Deployer, error) {
	factoryABI, err := abi.JSON(strings.NewReader(safeFactoryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse factory ABI: %w", err)
	}
	return &Deployer{
		backend:        backend,
		chainID:        big.NewInt(int64(chain)),
		factory:        common.HexToAddress(wallet.SafeFactoryAddress),
		factoryABI:     factoryABI,
		confirmPoll:    2 * time.Second,
		confirmTimeout: 3 * time.Minute,
	}, nil
}

// IsDeployed reports whether contract code exists at the wallet address.
func (d *Deployer) IsDeployed(ctx context.Context, safeAddr common.Address) (bool, error) {
	code, err := d.backend.CodeAt(ctx, safeAddr, nil)
	if err != nil {
		return false, fmt.Errorf("fetch code at %s: %w", safeAddr.Hex(), err)
	}
	return len(code) > 0, nil
}

// Deploy issues the factory createProxy transaction for the owner and waits
// for the receipt. The derived wallet address is returned unchanged.
func (d *Deployer) Deploy(ctx context.Context, owner common.Address, txSigner wallet.TxSigner) (common.Address, error) {
	safeAddr := wallet.MustDeriveSafeAddress(owner)

	data, err := d.factoryABI.Pack("createProxy", owner)
	if err != nil {
		return safeAddr, err
	}

	tx, err := d.buildSignedTx(ctx, txSigner, d.factory, data)
	if err != nil {
		return safeAddr, &DeploymentFailedError{SafeAddress: safeAddr.Hex(), Err: err}
	}
	if err := d.backend.SendTransaction(ctx, tx); err != nil {
		return safeAddr, &DeploymentFailedError{SafeAddress: safeAddr.Hex(), Err: err}
	}

	logger.WithFields(map[string]interface{}{
		"owner": owner.Hex(),
		"safe":  safeAddr.Hex(),
		"tx":    tx.Hash().Hex(),
	}).Info("smart wallet deployment submitted")

	if err := d.waitConfirmed(ctx, tx.Hash()); err != nil {
		return safeAddr, &DeploymentFailedError{SafeAddress: safeAddr.Hex(), TxHash: tx.Hash().Hex(), Err: err}
	}
	return safeAddr, nil
}

func (d *Deployer) buildSignedTx(ctx context.Context, txSigner wallet.TxSigner, to common.Address, data []byte) (*ethtypes.Transaction, error) {
	from := txSigner.Address()
	nonce, err := d.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := d.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch gas price: %w", err)
	}
	gasLimit, err := d.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: data,
	})
	if err != nil {
		// proxy deployment gas is stable across owners
		gasLimit = 400000
	}
	tx := ethtypes.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := txSigner.SignTx(tx, d.chainID)
	if err != nil {
		return nil, &wallet.SigningFailedError{Signer: from, Err: err}
	}
	return signed, nil
}

func (d *Deployer) waitConfirmed(ctx context.Context, txHash common.Hash) error {
	deadline := time.Now().Add(d.confirmTimeout)
	ticker := time.NewTicker(d.confirmPoll)
	defer ticker.Stop()

	for {
		receipt, err := d.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status != ethtypes.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction reverted")
			}
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("confirmation timeout after %s", d.confirmTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
