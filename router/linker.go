package router

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/pkg/logger"
	"github.com/betbot/polyrouter/wallet"
)

// LinkParams configures a LinkUser call.
type LinkParams struct {
	UserID     string
	Signer     wallet.Signer
	WalletType WalletType

	// TxSigner is required only when AutoDeploy or AutoSetAllowances may
	// issue on-chain transactions.
	TxSigner wallet.TxSigner

	AutoDeploy        bool
	AutoSetAllowances bool
	OnProgress        ProgressFunc
}

// LinkResult is the outcome of a completed LinkUser call. Allowances is nil
// when the link is a smart wallet that has not been deployed; an undeployed
// safe holds no approvals and cannot grant any.
type LinkResult struct {
	Link         *WalletLink
	Creds        *types.ApiKeyCreds
	Allowances   *AllowanceSet
	AllowanceTxs []common.Hash
	Deployed     bool // true when this call performed the deployment
}

// WalletLinker drives the linking sequence: credentials, then (smart wallets
// only) deployment check and optional deploy, then allowance check and
// optional repair. Each step is idempotent, so re-linking an already linked
// user re-checks state without re-issuing anything already in place.
type WalletLinker struct {
	creds      *CredentialStore
	allowances *AllowanceManager
	deployer   *Deployer
}

// NewWalletLinker wires the linker from its three sub-systems.
func NewWalletLinker(creds *CredentialStore, allowances *AllowanceManager, deployer *Deployer) *WalletLinker {
	return &WalletLinker{
		creds:      creds,
		allowances: allowances,
		deployer:   deployer,
	}
}

// LinkUser runs the full linking sequence. Sub-step errors propagate
// untranslated so callers can match on the step's typed error.
func (l *WalletLinker) LinkUser(ctx context.Context, params LinkParams) (*LinkResult, error) {
	if params.UserID == "" {
		return nil, fmt.Errorf("link: user id is required")
	}
	if params.Signer == nil {
		return nil, fmt.Errorf("link: signer is required")
	}
	switch params.WalletType {
	case WalletTypeDirect, WalletTypeSmart:
	default:
		return nil, fmt.Errorf("link: unknown wallet type %q", params.WalletType)
	}

	log := logger.WithFields(map[string]interface{}{
		"user":   params.UserID,
		"wallet": string(params.WalletType),
	})

	creds, err := l.creds.DeriveOrFetch(ctx, params.UserID, params.Signer)
	if err != nil {
		return nil, err
	}
	log.Debug("credentials ready")

	result := &LinkResult{Creds: creds}
	signerAddr := params.Signer.Address()

	switch params.WalletType {
	case WalletTypeDirect:
		result.Link = NewDirectLink(params.UserID, signerAddr)

	case WalletTypeSmart:
		safeAddr := wallet.MustDeriveSafeAddress(signerAddr)
		link := NewSmartLink(params.UserID, signerAddr, safeAddr)

		deployed, err := l.deployer.IsDeployed(ctx, safeAddr)
		if err != nil {
			return nil, err
		}
		if deployed {
			link.DeploymentState = DeploymentDeployed
		} else if params.AutoDeploy {
			if params.TxSigner == nil {
				return nil, fmt.Errorf("link: auto deploy requires a transaction signer")
			}
			link.DeploymentState = DeploymentDeploying
			if _, err := l.deployer.Deploy(ctx, signerAddr, params.TxSigner); err != nil {
				return nil, err
			}
			link.DeploymentState = DeploymentDeployed
			result.Deployed = true
			log.Info("smart wallet deployed")
		}
		result.Link = link
	}

	if result.Link.Type == WalletTypeSmart && result.Link.DeploymentState != DeploymentDeployed {
		if params.AutoSetAllowances {
			return nil, fmt.Errorf("link: auto set allowances requires a deployed smart wallet")
		}
		// skip the allowance check: an undeployed safe has no approvals
		log.WithField("all_set", false).Info("user linked")
		return result, nil
	}

	funding := result.Link.FundingAddress()
	allowances, err := l.allowances.Check(ctx, funding)
	if err != nil {
		return nil, err
	}

	if !allowances.AllSet && params.AutoSetAllowances {
		if params.TxSigner == nil {
			return nil, fmt.Errorf("link: auto set allowances requires a transaction signer")
		}
		txs, err := l.allowances.Set(ctx, funding, params.TxSigner, params.OnProgress)
		if err != nil {
			return nil, err
		}
		result.AllowanceTxs = txs

		// re-read so the result reflects confirmed state
		allowances, err = l.allowances.Check(ctx, funding)
		if err != nil {
			return nil, err
		}
	}
	result.Allowances = allowances

	log.WithField("all_set", allowances.AllSet).Info("user linked")
	return result, nil
}
