// Package authstore provides the persistent auth-key→domain table: the one
// piece of global, cross-tenant state the service holds. It is small,
// rarely written, and loaded once into memory so the hot request path never
// waits on disk.
package authstore

import (
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/peterbecom/autocompeter/pkg/types"
)

const prefixKey byte = 0x01 // key:<auth-key> -> domain

// Store is a Pebble-backed table of auth-key → domain, read through an
// in-memory cache guarded by a shared lock so reads never touch disk.
type Store struct {
	db     *pebble.DB
	config types.AuthStoreConfig

	mu    sync.RWMutex
	cache map[string]string
}

// Open opens or creates the auth table at config.DataDir and loads every
// entry into the in-memory cache.
func Open(config types.AuthStoreConfig) (*Store, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(config.CacheSize),
		MaxOpenFiles: 1000,
	}

	db, err := pebble.Open(config.DataDir, opts)
	if err != nil {
		return nil, types.WrapError("authstore.Open", types.ErrStorageIO, err)
	}

	s := &Store{
		db:     db,
		config: config,
		cache:  make(map[string]string),
	}

	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) load() error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{prefixKey},
		UpperBound: []byte{prefixKey + 1},
	})
	if err != nil {
		return types.WrapError("authstore.load", types.ErrStorageIO, err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := string(iter.Key()[1:])
		domain := string(iter.Value())
		s.cache[key] = domain
	}
	if err := iter.Error(); err != nil {
		return types.WrapError("authstore.load", types.ErrStorageIO, err)
	}
	return nil
}

func authKeyKey(key string) []byte {
	out := make([]byte, 1+len(key))
	out[0] = prefixKey
	copy(out[1:], key)
	return out
}

// Resolve returns the domain an auth key is attributed to. ok is false for
// an absent, empty, or unknown key.
func (s *Store) Resolve(authKey string) (domain string, ok bool) {
	if authKey == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	domain, ok = s.cache[authKey]
	return domain, ok
}

// Set persists authKey → domain and updates the cache. Tests inject
// entries directly through this, bypassing HTTP.
func (s *Store) Set(authKey, domain string) error {
	writeOpts := pebble.NoSync
	if s.config.SyncWrites {
		writeOpts = pebble.Sync
	}

	if err := s.db.Set(authKeyKey(authKey), []byte(domain), writeOpts); err != nil {
		return types.WrapError("authstore.Set", types.ErrStorageIO, err)
	}

	s.mu.Lock()
	s.cache[authKey] = domain
	s.mu.Unlock()
	return nil
}

// Delete removes an auth key from the table. Missing key is a no-op.
func (s *Store) Delete(authKey string) error {
	writeOpts := pebble.NoSync
	if s.config.SyncWrites {
		writeOpts = pebble.Sync
	}

	if err := s.db.Delete(authKeyKey(authKey), writeOpts); err != nil {
		return types.WrapError("authstore.Delete", types.ErrStorageIO, err)
	}

	s.mu.Lock()
	delete(s.cache, authKey)
	s.mu.Unlock()
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
