package credstore

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/betbot/polyrouter/clob/types"
)

// Store persists derived venue credentials in a small encrypted-at-rest
// KV database (Badger). Encryption is provided by Badger options, not by
// this wrapper.
type Store struct {
	db *badger.DB
}

type OpenOptions struct {
	Path          string
	EncryptionKey []byte // 32 bytes; if nil, DB is opened without encryption (not recommended)
	ReadOnly      bool
}

func Open(opts OpenOptions) (*Store, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("credstore: path is required")
	}
	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithReadOnly(opts.ReadOnly)
	if len(opts.EncryptionKey) > 0 {
		// Badger requires index cache for encrypted workloads
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20) // 100MB
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func credKey(userID string) []byte {
	return []byte("creds:" + strings.TrimSpace(userID))
}

// Get returns the stored credentials for a user, or (nil, false, nil)
// when none are stored.
func (s *Store) Get(userID string) (*types.ApiKeyCreds, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("credstore: not opened")
	}
	k := credKey(userID)
	if len(k) <= len("creds:") {
		return nil, false, errors.New("credstore: user id is empty")
	}
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var creds types.ApiKeyCreds
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, false, fmt.Errorf("credstore: decode stored credentials: %w", err)
	}
	return &creds, true, nil
}

// Put stores credentials for a user, replacing any previous value.
func (s *Store) Put(userID string, creds *types.ApiKeyCreds) error {
	if s == nil || s.db == nil {
		return errors.New("credstore: not opened")
	}
	k := credKey(userID)
	if len(k) <= len("creds:") {
		return errors.New("credstore: user id is empty")
	}
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, raw)
	})
}

// Delete removes stored credentials for a user. Missing keys are not an error.
func (s *Store) Delete(userID string) error {
	if s == nil || s.db == nil {
		return errors.New("credstore: not opened")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(credKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// ParseKey expects 32 bytes (base64 or hex). Returns nil if input is empty.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	rawHex := strings.TrimPrefix(raw, "0x")
	if b, err := hex.DecodeString(rawHex); err == nil {
		if len(b) == 32 {
			return b, nil
		}
		return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
