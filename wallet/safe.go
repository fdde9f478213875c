package wallet

import (
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Fixed Polygon deployment parameters for the venue's Safe proxy wallets.
// The factory deploys one proxy per owner via CREATE2, so the wallet
// address is fully determined by the owner address before deployment.
const (
	// SafeFactoryAddress is the venue's Safe proxy wallet factory.
	SafeFactoryAddress = "0xaacFeEa03eb1561C4e67d661e40682Bd20E3541b"

	// SafeImplementationAddress is the Safe singleton the proxies delegate to.
	SafeImplementationAddress = "0xd9Db270c1B5E3Bd161E8c8503c55cEABeE709552"

	// safeProxyInitCodeHash is keccak256 of the proxy creation code with the
	// implementation address baked in. Must match the factory deployment.
	safeProxyInitCodeHash = "0x2467e16879e6a0c935d6d29ac51c4e4e0a2e9fbf1def80f8e91e1ec1e0a795fd"
)

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// DeriveSafeAddress computes the smart wallet address owned by owner.
// Pure CREATE2 arithmetic: no network access, no randomness, stable
// across processes. Deployment status is tracked elsewhere; deploying
// the wallet never changes this address.
//
//	address = keccak256(0xff ++ factory ++ keccak256(pad32(owner)) ++ initCodeHash)[12:]
func DeriveSafeAddress(owner string) (common.Address, error) {
	if !addressRe.MatchString(owner) {
		return common.Address{}, &InvalidAddressError{Input: owner}
	}
	ownerAddr := common.HexToAddress(owner)

	// salt = keccak256(abi.encode(owner)) — owner left-padded to 32 bytes
	salt := crypto.Keccak256(common.LeftPadBytes(ownerAddr.Bytes(), 32))

	factory := common.HexToAddress(SafeFactoryAddress)
	initCodeHash := common.HexToHash(safeProxyInitCodeHash)

	data := make([]byte, 0, 1+20+32+32)
	data = append(data, 0xff)
	data = append(data, factory.Bytes()...)
	data = append(data, salt...)
	data = append(data, initCodeHash.Bytes()...)

	return common.BytesToAddress(crypto.Keccak256(data)[12:]), nil
}

// MustDeriveSafeAddress is DeriveSafeAddress for callers that already
// validated the owner address.
func MustDeriveSafeAddress(owner common.Address) common.Address {
	addr, err := DeriveSafeAddress(owner.Hex())
	if err != nil {
		// unreachable: a common.Address always formats as a valid hex address
		panic(err)
	}
	return addr
}
