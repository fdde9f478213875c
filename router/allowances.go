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

	"github.com/betbot/polyrouter/clob/client"
	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/pkg/cache"
	"github.com/betbot/polyrouter/pkg/logger"
	"github.com/betbot/polyrouter/wallet"
)

// ChainBackend is the subset of ethclient.Client the router needs.
// *ethclient.Client satisfies it; tests substitute a fake.
type ChainBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
}

// PairKind is the approval mechanism a pair uses.
type PairKind string

const (
	PairERC20   PairKind = "erc20"   // USDC approve(spender, max)
	PairERC1155 PairKind = "erc1155" // CTF setApprovalForAll(operator, true)
)

// AllowancePair is one (token, spender) approval the venue requires.
type AllowancePair struct {
	Name    string
	Kind    PairKind
	Token   common.Address
	Spender common.Address
}

// AllowanceStatus is the checked state of a single pair.
type AllowanceStatus struct {
	Pair      AllowancePair
	Approved  bool
	Allowance *big.Int // ERC-20 only; nil for ERC-1155 pairs
}

// AllowanceSet is the full venue pair set for one wallet. The set is fixed
// by the venue deployment: three USDC spenders and three CTF operators.
type AllowanceSet struct {
	Wallet common.Address
	Pairs  []AllowanceStatus
	AllSet bool
}

// ProgressFunc is invoked after each confirmed approval during Set.
type ProgressFunc func(step string, current, total int)

// unlimitedThreshold: an ERC-20 allowance at or above this is treated as set.
// Approvals are always written as max uint256; anything this large cannot be
// consumed by realistic trading volume.
var unlimitedThreshold = new(big.Int).Exp(big.NewInt(10), big.NewInt(15), nil)

const erc20ABIJSON = `[
  {"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

const erc1155ABIJSON = `[
  {"inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"name":"setApprovalForAll","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"name":"account","type":"address"},{"name":"operator","type":"address"}],"name":"isApprovedForAll","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"}
]`

const safeExecABIJSON = `[
  {"inputs":[
    {"name":"to","type":"address"},
    {"name":"value","type":"uint256"},
    {"name":"data","type":"bytes"},
    {"name":"operation","type":"uint8"},
    {"name":"safeTxGas","type":"uint256"},
    {"name":"baseGas","type":"uint256"},
    {"name":"gasPrice","type":"uint256"},
    {"name":"gasToken","type":"address"},
    {"name":"refundReceiver","type":"address"},
    {"name":"signatures","type":"bytes"}
  ],"name":"execTransaction","outputs":[{"name":"success","type":"bool"}],"stateMutability":"payable","type":"function"}
]`

// AllowanceManager reads and repairs the venue's required approval pairs.
// Approval transactions are strictly sequential per wallet so nonces order
// deterministically; each transaction is confirmed before the next is sent.
type AllowanceManager struct {
	backend ChainBackend
	chainID *big.Int

	usdc              common.Address
	conditionalTokens common.Address
	pairs             []AllowancePair

	erc20ABI   abi.ABI
	erc1155ABI abi.ABI
	safeABI    abi.ABI

	// recently-confirmed pairs from this process; covers RPC nodes whose
	// reads lag a just-mined approval
	recent *cache.AllowanceCache

	confirmPoll    time.Duration
	confirmTimeout time.Duration
}

// NewAllowanceManager creates a manager for the given chain.
func NewAllowanceManager(backend ChainBackend, chain types.Chain) (*AllowanceManager, error) {
	cfg, err := client.GetContractConfig(chain)
	if err != nil {
		return nil, err
	}

	a20, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse ERC20 ABI: %w", err)
	}
	a1155, err := abi.JSON(strings.NewReader(erc1155ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse ERC1155 ABI: %w", err)
	}
	safe, err := abi.JSON(strings.NewReader(safeExecABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse safe ABI: %w", err)
	}

	usdc := common.HexToAddress(cfg.Collateral)
	ctf := common.HexToAddress(cfg.ConditionalTokens)
	exchange := common.HexToAddress(cfg.Exchange)
	negRiskExchange := common.HexToAddress(cfg.NegRiskExchange)
	negRiskAdapter := common.HexToAddress(cfg.NegRiskAdapter)

	// Fixed order: ERC-20 approvals first, then ERC-1155 operator approvals.
	pairs := []AllowancePair{
		{Name: "USDC -> CTF Exchange", Kind: PairERC20, Token: usdc, Spender: exchange},
		{Name: "USDC -> Neg Risk CTF Exchange", Kind: PairERC20, Token: usdc, Spender: negRiskExchange},
		{Name: "USDC -> Neg Risk Adapter", Kind: PairERC20, Token: usdc, Spender: negRiskAdapter},
		{Name: "CTF -> CTF Exchange", Kind: PairERC1155, Token: ctf, Spender: exchange},
		{Name: "CTF -> Neg Risk CTF Exchange", Kind: PairERC1155, Token: ctf, Spender: negRiskExchange},
		{Name: "CTF -> Neg Risk Adapter", Kind: PairERC1155, Token: ctf, Spender: negRiskAdapter},
	}

	return &AllowanceManager{
		backend:           backend,
		chainID:           big.NewInt(int64(chain)),
		usdc:              usdc,
		conditionalTokens: ctf,
		pairs:             pairs,
		erc20ABI:          a20,
		erc1155ABI:        a1155,
		safeABI:           safe,
		recent:            cache.NewAllowanceCache(),
		confirmPoll:       2 * time.Second,
		confirmTimeout:    2 * time.Minute,
	}, nil
}

// Pairs returns the fixed venue pair set.
func (m *AllowanceManager) Pairs() []AllowancePair {
	out := make([]AllowancePair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// Check reads the on-chain state of every pair for the wallet. Always reads
// all pairs, even after the first missing one is found.
func (m *AllowanceManager) Check(ctx context.Context, walletAddr common.Address) (*AllowanceSet, error) {
	statuses := make([]AllowanceStatus, 0, len(m.pairs))
	allSet := true

	for _, pair := range m.pairs {
		status, err := m.checkPair(ctx, walletAddr, pair)
		if err != nil {
			return nil, err
		}
		if !status.Approved {
			allSet = false
		}
		statuses = append(statuses, *status)
	}

	return &AllowanceSet{
		Wallet: walletAddr,
		Pairs:  statuses,
		AllSet: allSet,
	}, nil
}

func (m *AllowanceManager) checkPair(ctx context.Context, walletAddr common.Address, pair AllowancePair) (*AllowanceStatus, error) {
	switch pair.Kind {
	case PairERC20:
		data, err := m.erc20ABI.Pack("allowance", walletAddr, pair.Spender)
		if err != nil {
			return nil, err
		}
		raw, err := m.backend.CallContract(ctx, ethereum.CallMsg{To: &pair.Token, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("call allowance(%s): %w", pair.Name, err)
		}
		var allowance *big.Int
		if err := m.erc20ABI.UnpackIntoInterface(&allowance, "allowance", raw); err != nil {
			return nil, err
		}
		return &AllowanceStatus{
			Pair:      pair,
			Approved:  allowance.Cmp(unlimitedThreshold) >= 0,
			Allowance: allowance,
		}, nil

	case PairERC1155:
		data, err := m.erc1155ABI.Pack("isApprovedForAll", walletAddr, pair.Spender)
		if err != nil {
			return nil, err
		}
		raw, err := m.backend.CallContract(ctx, ethereum.CallMsg{To: &pair.Token, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("call isApprovedForAll(%s): %w", pair.Name, err)
		}
		var ok bool
		if err := m.erc1155ABI.UnpackIntoInterface(&ok, "isApprovedForAll", raw); err != nil {
			return nil, err
		}
		return &AllowanceStatus{Pair: pair, Approved: ok}, nil

	default:
		return nil, fmt.Errorf("unknown pair kind %q", pair.Kind)
	}
}

// Set issues approval transactions for every missing pair, in the fixed pair
// order, waiting for each confirmation before sending the next. onProgress
// (may be nil) fires after each confirmation. Already-approved pairs are
// skipped, so re-running after a mid-sequence failure is safe. Callers must
// not run concurrent Sets for the same wallet.
//
// When walletAddr differs from the transaction signer's address, walletAddr
// is taken to be a deployed safe owned by the signer and each approval is
// executed through the safe, so the approvals are recorded under the safe.
func (m *AllowanceManager) Set(ctx context.Context, walletAddr common.Address, txSigner wallet.TxSigner, onProgress ProgressFunc) ([]common.Hash, error) {
	status, err := m.Check(ctx, walletAddr)
	if err != nil {
		return nil, err
	}

	var hashes []common.Hash
	total := len(m.pairs)

	for i, ps := range status.Pairs {
		pair := ps.Pair
		approved := ps.Approved
		if !approved {
			if _, hit := m.recent.Get(pairKey(walletAddr, pair)); hit {
				approved = true
			}
		}
		if approved {
			if onProgress != nil {
				onProgress(pair.Name, i+1, total)
			}
			continue
		}

		txHash, err := m.approvePair(ctx, walletAddr, txSigner, pair)
		if err != nil {
			return hashes, &AllowanceTransactionFailedError{Step: pair.Name, Err: err}
		}

		if err := m.waitConfirmed(ctx, txHash); err != nil {
			return hashes, &AllowanceTransactionFailedError{Step: pair.Name, TxHash: txHash.Hex(), Err: err}
		}

		m.recent.Set(pairKey(walletAddr, pair), true)
		hashes = append(hashes, txHash)
		logger.WithFields(map[string]interface{}{
			"wallet": walletAddr.Hex(),
			"step":   pair.Name,
			"tx":     txHash.Hex(),
		}).Info("allowance approved")

		if onProgress != nil {
			onProgress(pair.Name, i+1, total)
		}
	}

	return hashes, nil
}

func pairKey(walletAddr common.Address, pair AllowancePair) string {
	return walletAddr.Hex() + "|" + pair.Token.Hex() + "|" + pair.Spender.Hex()
}

func (m *AllowanceManager) approvePair(ctx context.Context, walletAddr common.Address, txSigner wallet.TxSigner, pair AllowancePair) (common.Hash, error) {
	var data []byte
	var err error

	switch pair.Kind {
	case PairERC20:
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
		data, err = m.erc20ABI.Pack("approve", pair.Spender, max)
	case PairERC1155:
		data, err = m.erc1155ABI.Pack("setApprovalForAll", pair.Spender, true)
	default:
		err = fmt.Errorf("unknown pair kind %q", pair.Kind)
	}
	if err != nil {
		return common.Hash{}, err
	}

	// Approvals must be granted by the wallet that holds the funds. When the
	// wallet is a safe and the transaction signer is its owner, the call is
	// wrapped in execTransaction so msg.sender at the token is the safe.
	to := pair.Token
	if walletAddr != txSigner.Address() {
		data, err = m.wrapSafeExec(pair.Token, data, txSigner.Address())
		if err != nil {
			return common.Hash{}, err
		}
		to = walletAddr
	}

	tx, err := m.buildSignedTx(ctx, txSigner, to, data, big.NewInt(0))
	if err != nil {
		return common.Hash{}, err
	}
	if err := m.backend.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	return tx.Hash(), nil
}

// wrapSafeExec wraps an inner contract call in a safe execTransaction. The
// gas and refund fields are zero, matching the venue's relayed safe
// transactions.
func (m *AllowanceManager) wrapSafeExec(inner common.Address, data []byte, owner common.Address) ([]byte, error) {
	wrapped, err := m.safeABI.Pack("execTransaction",
		inner,
		big.NewInt(0),
		data,
		uint8(0), // Call
		big.NewInt(0),
		big.NewInt(0),
		big.NewInt(0),
		common.Address{},
		common.Address{},
		preValidatedSignature(owner),
	)
	if err != nil {
		return nil, fmt.Errorf("pack execTransaction: %w", err)
	}
	return wrapped, nil
}

// preValidatedSignature builds the safe's pre-validated owner signature
// (r = owner address, s = 0, v = 1). The safe accepts it without an ECDSA
// check when msg.sender equals the encoded owner.
func preValidatedSignature(owner common.Address) []byte {
	sig := make([]byte, 65)
	copy(sig[12:32], owner.Bytes())
	sig[64] = 1
	return sig
}

// buildSignedTx builds a legacy transaction and signs it through the
// TxSigner capability.
func (m *AllowanceManager) buildSignedTx(ctx context.Context, txSigner wallet.TxSigner, to common.Address, data []byte, value *big.Int) (*ethtypes.Transaction, error) {
	from := txSigner.Address()
	nonce, err := m.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := m.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch gas price: %w", err)
	}
	gasLimit, err := m.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Data:  data,
		Value: value,
	})
	if err != nil {
		// some nodes estimate approvals unreliably; fall back to a fixed
		// limit large enough for a safe-wrapped approval
		gasLimit = 250000
	}
	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := txSigner.SignTx(tx, m.chainID)
	if err != nil {
		return nil, &wallet.SigningFailedError{Signer: from, Err: err}
	}
	return signed, nil
}

// waitConfirmed polls for the receipt until it lands or the timeout expires.
func (m *AllowanceManager) waitConfirmed(ctx context.Context, txHash common.Hash) error {
	deadline := time.Now().Add(m.confirmTimeout)
	ticker := time.NewTicker(m.confirmPoll)
	defer ticker.Stop()

	for {
		receipt, err := m.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status != ethtypes.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction reverted")
			}
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("confirmation timeout after %s", m.confirmTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
