package router

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/pkg/cache"
	"github.com/betbot/polyrouter/pkg/credstore"
	"github.com/betbot/polyrouter/pkg/logger"
	"github.com/betbot/polyrouter/wallet"
)

// CredentialExchanger performs the L1 signature → API credentials exchange
// with the venue. *client.Client satisfies it.
type CredentialExchanger interface {
	DeriveOrCreateAPIKey(ctx context.Context, signer wallet.Signer, nonce int64) (*types.ApiKeyCreds, error)
}

// CredentialStore caches venue credentials per (user, signer address).
// Credentials never expire locally: re-derivation is treated as a
// possibly-failing upstream operation, so once obtained the cached copy is
// the source of truth. Concurrent derivations for the same key are collapsed
// to a single signature request via singleflight.
type CredentialStore struct {
	exchange CredentialExchanger
	cache    *cache.InMemoryCache[string, *types.ApiKeyCreds]
	persist  *credstore.Store // optional, may be nil
	group    singleflight.Group
	nonce    int64
}

// NewCredentialStore creates a store backed by the given exchanger.
// persist may be nil to disable on-disk persistence.
func NewCredentialStore(exchange CredentialExchanger, persist *credstore.Store) *CredentialStore {
	return &CredentialStore{
		exchange: exchange,
		cache:    cache.NewInMemoryCache[string, *types.ApiKeyCreds](0),
		persist:  persist,
	}
}

func credentialKey(userID string, signerAddr string) string {
	return userID + "|" + signerAddr
}

// DeriveOrFetch returns credentials for the user, deriving them through the
// signer on first use. N concurrent callers for the same key trigger exactly
// one signature request; all receive the same credentials.
func (s *CredentialStore) DeriveOrFetch(ctx context.Context, userID string, signer wallet.Signer) (*types.ApiKeyCreds, error) {
	key := credentialKey(userID, signer.Address().Hex())

	if creds, ok := s.cache.Get(key); ok {
		return creds, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: a concurrent caller may have won.
		if creds, ok := s.cache.Get(key); ok {
			return creds, nil
		}

		if s.persist != nil {
			creds, found, err := s.persist.Get(key)
			if err != nil {
				logger.WithField("user", userID).Warnf("credential store read failed, deriving fresh: %v", err)
			} else if found && creds.SignerAddress == signer.Address().Hex() {
				s.cache.Set(key, creds, 0)
				return creds, nil
			}
		}

		creds, err := s.exchange.DeriveOrCreateAPIKey(ctx, signer, s.nonce)
		if err != nil {
			return nil, err
		}

		s.cache.Set(key, creds, 0)
		if s.persist != nil {
			if err := s.persist.Put(key, creds); err != nil {
				logger.WithField("user", userID).Warnf("credential store write failed: %v", err)
			}
		}
		return creds, nil
	})
	if err != nil {
		return nil, fmt.Errorf("derive credentials for %s: %w", userID, err)
	}
	return v.(*types.ApiKeyCreds), nil
}

// Invalidate drops cached credentials for a (user, signer) pair, forcing the
// next DeriveOrFetch to go through the full exchange again.
func (s *CredentialStore) Invalidate(userID string, signerAddr string) {
	key := credentialKey(userID, signerAddr)
	s.cache.Delete(key)
	if s.persist != nil {
		if err := s.persist.Delete(key); err != nil {
			logger.WithField("user", userID).Warnf("credential store delete failed: %v", err)
		}
	}
}
