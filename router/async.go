package router

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/betbot/polyrouter/wallet"
)

// AsyncResult carries one operation's outcome over a channel.
type AsyncResult[T any] struct {
	Value T
	Err   error
}

// goAsync runs fn in its own goroutine and delivers exactly one result. The
// channel is buffered so an abandoned receiver never leaks the goroutine.
func goAsync[T any](fn func() (T, error)) <-chan AsyncResult[T] {
	ch := make(chan AsyncResult[T], 1)
	go func() {
		v, err := fn()
		ch <- AsyncResult[T]{Value: v, Err: err}
		close(ch)
	}()
	return ch
}

// LinkUserAsync is LinkUser in non-blocking form.
func (r *Router) LinkUserAsync(ctx context.Context, params LinkParams) <-chan AsyncResult[*LinkResult] {
	return goAsync(func() (*LinkResult, error) {
		return r.LinkUser(ctx, params)
	})
}

// PlaceOrderAsync is PlaceOrder in non-blocking form.
func (r *Router) PlaceOrderAsync(ctx context.Context, userID string, req *OrderRequest, link *WalletLink, signer wallet.Signer) <-chan AsyncResult[*OrderResult] {
	return goAsync(func() (*OrderResult, error) {
		return r.PlaceOrder(ctx, userID, req, link, signer)
	})
}

// CheckAllowancesAsync is CheckAllowances in non-blocking form.
func (r *Router) CheckAllowancesAsync(ctx context.Context, walletAddr common.Address) <-chan AsyncResult[*AllowanceSet] {
	return goAsync(func() (*AllowanceSet, error) {
		return r.CheckAllowances(ctx, walletAddr)
	})
}

// SetAllowancesAsync is SetAllowances in non-blocking form.
func (r *Router) SetAllowancesAsync(ctx context.Context, walletAddr common.Address, txSigner wallet.TxSigner, onProgress ProgressFunc) <-chan AsyncResult[[]common.Hash] {
	return goAsync(func() ([]common.Hash, error) {
		return r.SetAllowances(ctx, walletAddr, txSigner, onProgress)
	})
}

// DeriveSafeAddressAsync is DeriveSafeAddress in non-blocking form. The
// computation is pure; the async form exists for surface symmetry.
func (r *Router) DeriveSafeAddressAsync(owner string) <-chan AsyncResult[common.Address] {
	return goAsync(func() (common.Address, error) {
		return r.DeriveSafeAddress(owner)
	})
}
