package store

import (
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/swissborg/galactica-credential-ledger/internal/models"
)

// MemoryStore is a map backed Store for tests and local use. Writes made inside
// Update are staged on the transaction and only applied when fn succeeds.
type MemoryStore struct {
	mu          sync.RWMutex
	requests    map[models.RequestKey]string
	credentials map[common.Address][]models.Credential
	balances    map[common.Address]*big.Int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:    make(map[models.RequestKey]string),
		credentials: make(map[common.Address][]models.Credential),
		balances:    make(map[common.Address]*big.Int),
	}
}

func (s *MemoryStore) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newMemoryTx(s, false)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) View(fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(newMemoryTx(s, true))
}

func (s *MemoryStore) Close() error { return nil }

type memoryTx struct {
	store    *MemoryStore
	readOnly bool

	// nil value marks a staged delete
	requests    map[models.RequestKey]*string
	credentials map[common.Address][]models.Credential
	balances    map[common.Address]*big.Int
}

func newMemoryTx(s *MemoryStore, readOnly bool) *memoryTx {
	return &memoryTx{
		store:       s,
		readOnly:    readOnly,
		requests:    make(map[models.RequestKey]*string),
		credentials: make(map[common.Address][]models.Credential),
		balances:    make(map[common.Address]*big.Int),
	}
}

func (t *memoryTx) commit() {
	for key, metadata := range t.requests {
		if metadata == nil {
			delete(t.store.requests, key)
			continue
		}
		t.store.requests[key] = *metadata
	}
	for holder, credentials := range t.credentials {
		t.store.credentials[holder] = credentials
	}
	for account, balance := range t.balances {
		t.store.balances[account] = balance
	}
}

func (t *memoryTx) Requests() RequestLedger       { return (*memoryRequests)(t) }
func (t *memoryTx) Credentials() CredentialLedger { return (*memoryCredentials)(t) }
func (t *memoryTx) Balances() BalanceLedger       { return (*memoryBalances)(t) }

type memoryRequests memoryTx

func (r *memoryRequests) Get(key models.RequestKey) (string, bool, error) {
	if staged, ok := r.requests[key]; ok {
		if staged == nil {
			return "", false, nil
		}
		return *staged, true, nil
	}
	metadata, ok := r.store.requests[key]
	return metadata, ok, nil
}

func (r *memoryRequests) Put(key models.RequestKey, metadata string) error {
	if r.readOnly {
		return ErrReadOnly
	}
	r.requests[key] = &metadata
	return nil
}

func (r *memoryRequests) Delete(key models.RequestKey) error {
	if r.readOnly {
		return ErrReadOnly
	}
	r.requests[key] = nil
	return nil
}

type memoryCredentials memoryTx

func (c *memoryCredentials) List(holder common.Address) ([]models.Credential, error) {
	credentials, ok := c.credentials[holder]
	if !ok {
		credentials = c.store.credentials[holder]
	}
	// callers own the returned slice
	return append([]models.Credential{}, credentials...), nil
}

func (c *memoryCredentials) Append(credential models.Credential) error {
	if c.readOnly {
		return ErrReadOnly
	}
	credentials, _ := c.List(credential.IssuedTo)
	c.credentials[credential.IssuedTo] = slices.Clip(append(credentials, credential))
	return nil
}

type memoryBalances memoryTx

func (b *memoryBalances) Get(account common.Address) (*big.Int, error) {
	balance, ok := b.balances[account]
	if !ok {
		balance, ok = b.store.balances[account]
	}
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(balance), nil
}

func (b *memoryBalances) Set(account common.Address, amount *big.Int) error {
	if b.readOnly {
		return ErrReadOnly
	}
	b.balances[account] = new(big.Int).Set(amount)
	return nil
}
