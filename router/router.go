package router

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/betbot/polyrouter/clob/client"
	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/pkg/credstore"
	"github.com/betbot/polyrouter/wallet"
)

// Options configures a Router.
type Options struct {
	Host    string      // venue API host
	Chain   types.Chain // 137 or 80002
	Backend ChainBackend

	// Persist enables on-disk credential persistence; nil keeps
	// credentials in memory only.
	Persist *credstore.Store
}

// Router is the facade over the linking and order-routing subsystems. All
// operations also come in a channel-returning Async form (async.go).
type Router struct {
	chain      types.Chain
	venue      *client.Client
	creds      *CredentialStore
	allowances *AllowanceManager
	deployer   *Deployer
	linker     *WalletLinker
	orders     *OrderRouter
}

// New wires a Router from its options.
func New(opts Options) (*Router, error) {
	venue := client.NewClient(opts.Host, opts.Chain)
	creds := NewCredentialStore(venue, opts.Persist)

	allowances, err := NewAllowanceManager(opts.Backend, opts.Chain)
	if err != nil {
		return nil, err
	}
	deployer, err := NewDeployer(opts.Backend, opts.Chain)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRouter(venue, opts.Chain)
	if err != nil {
		return nil, err
	}

	return &Router{
		chain:      opts.Chain,
		venue:      venue,
		creds:      creds,
		allowances: allowances,
		deployer:   deployer,
		linker:     NewWalletLinker(creds, allowances, deployer),
		orders:     orders,
	}, nil
}

// LinkUser runs the full linking sequence for a user.
func (r *Router) LinkUser(ctx context.Context, params LinkParams) (*LinkResult, error) {
	return r.linker.LinkUser(ctx, params)
}

// PlaceOrder routes one order for a linked user. Credentials come from the
// store (derived on first use for the user's signer).
func (r *Router) PlaceOrder(ctx context.Context, userID string, req *OrderRequest, link *WalletLink, signer wallet.Signer) (*OrderResult, error) {
	creds, err := r.creds.DeriveOrFetch(ctx, userID, signer)
	if err != nil {
		return nil, err
	}
	return r.orders.PlaceOrder(ctx, req, link, signer, creds)
}

// CancelOrder cancels a resting order for a linked user.
func (r *Router) CancelOrder(ctx context.Context, userID string, orderID string, signer wallet.Signer) error {
	creds, err := r.creds.DeriveOrFetch(ctx, userID, signer)
	if err != nil {
		return err
	}
	return r.orders.CancelOrder(ctx, orderID, creds)
}

// OrderStatus polls the venue for an order's current state.
func (r *Router) OrderStatus(ctx context.Context, userID string, orderID string, signer wallet.Signer) (*types.OpenOrder, error) {
	creds, err := r.creds.DeriveOrFetch(ctx, userID, signer)
	if err != nil {
		return nil, err
	}
	return r.orders.OrderStatus(ctx, orderID, creds)
}

// CheckAllowances reads the venue pair set for a wallet.
func (r *Router) CheckAllowances(ctx context.Context, walletAddr common.Address) (*AllowanceSet, error) {
	return r.allowances.Check(ctx, walletAddr)
}

// SetAllowances repairs missing approvals for a wallet.
func (r *Router) SetAllowances(ctx context.Context, walletAddr common.Address, txSigner wallet.TxSigner, onProgress ProgressFunc) ([]common.Hash, error) {
	return r.allowances.Set(ctx, walletAddr, txSigner, onProgress)
}

// DeriveSafeAddress computes the smart wallet address for an owner without
// touching the network.
func (r *Router) DeriveSafeAddress(owner string) (common.Address, error) {
	return wallet.DeriveSafeAddress(owner)
}

// Credentials exposes the credential store for callers that manage their own
// order submission.
func (r *Router) Credentials() *CredentialStore {
	return r.creds
}
