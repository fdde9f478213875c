package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer is the capability any wallet backend must provide: an account
// address and EIP-712 typed-data signing. Backends may be a local private
// key, a remote signing service, or a browser wallet relay; the rest of
// the module never sees key material.
type Signer interface {
	Address() common.Address
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) (string, error)
}

// TxSigner is the additional capability needed for on-chain writes
// (allowance approvals, smart wallet deployment). Remote signing backends
// that cannot sign raw transactions simply don't implement it.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
}

// SigningFailedError wraps a signer backend rejection or failure.
// Signing errors are never retried: the user declined, or the backend is
// misconfigured; either way a retry loop only spams signature prompts.
type SigningFailedError struct {
	Signer common.Address
	Err    error
}

func (e *SigningFailedError) Error() string {
	return fmt.Sprintf("signing failed for %s: %v", e.Signer.Hex(), e.Err)
}

func (e *SigningFailedError) Unwrap() error { return e.Err }

// InvalidAddressError reports a malformed account address.
type InvalidAddressError struct {
	Input string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address: %q", e.Input)
}
