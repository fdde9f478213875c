package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// PrivateKeySigner signs with an in-process ECDSA key (EOA).
// It implements both Signer and TxSigner.
type PrivateKeySigner struct {
	key *ecdsa.PrivateKey
}

// NewPrivateKeySigner wraps an existing key.
func NewPrivateKeySigner(key *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{key: key}
}

// NewPrivateKeySignerFromHex parses a hex private key (with or without 0x prefix).
func NewPrivateKeySignerFromHex(hexKey string) (*PrivateKeySigner, error) {
	if len(hexKey) >= 2 && hexKey[0:2] == "0x" {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &PrivateKeySigner{key: key}, nil
}

func (s *PrivateKeySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SignTypedData hashes the typed data per EIP-712 and signs the digest.
// The recovery byte is adjusted to the Ethereum {27,28} convention.
func (s *PrivateKeySigner) SignTypedData(ctx context.Context, typedData apitypes.TypedData) (string, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", &SigningFailedError{Signer: s.Address(), Err: fmt.Errorf("hash typed data: %w", err)}
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return "", &SigningFailedError{Signer: s.Address(), Err: err}
	}
	if len(sig) == 65 && sig[64] < 27 {
		sig[64] += 27
	}
	return "0x" + common.Bytes2Hex(sig), nil
}

// SignTx signs a raw transaction with EIP-155 replay protection.
func (s *PrivateKeySigner) SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), s.key)
	if err != nil {
		return nil, &SigningFailedError{Signer: s.Address(), Err: err}
	}
	return signed, nil
}
