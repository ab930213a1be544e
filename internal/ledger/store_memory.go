package ledger

import (
	"bytes"
	"context"
	"sync"

	id "idattest/pkg/domain"
	"idattest/pkg/platform/sentinel"
)

// InMemoryStore serializes transactions behind one mutex and applies a staged
// write set on commit.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[id.Pubkey][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[id.Pubkey][]byte)}
}

func (s *InMemoryStore) Get(_ context.Context, addr id.Pubkey) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.accounts[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (s *InMemoryStore) GetMany(_ context.Context, addrs []id.Pubkey) (map[id.Pubkey][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.Pubkey][]byte, len(addrs))
	for _, addr := range addrs {
		if data, ok := s.accounts[addr]; ok {
			out[addr] = bytes.Clone(data)
		}
	}
	return out, nil
}

// RunInTx holds the write lock for the whole callback. fn must use accts,
// not the store, or it deadlocks.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, accts Accounts) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{committed: s.accounts, staged: make(map[id.Pubkey][]byte)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for addr, data := range tx.staged {
		s.accounts[addr] = data
	}
	return nil
}

// Len reports the number of stored accounts.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

type memoryTx struct {
	committed map[id.Pubkey][]byte
	staged    map[id.Pubkey][]byte
}

func (t *memoryTx) lookup(addr id.Pubkey) ([]byte, bool) {
	if data, ok := t.staged[addr]; ok {
		return data, true
	}
	data, ok := t.committed[addr]
	return data, ok
}

func (t *memoryTx) Get(_ context.Context, addr id.Pubkey) ([]byte, error) {
	data, ok := t.lookup(addr)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (t *memoryTx) GetMany(_ context.Context, addrs []id.Pubkey) (map[id.Pubkey][]byte, error) {
	out := make(map[id.Pubkey][]byte, len(addrs))
	for _, addr := range addrs {
		if data, ok := t.lookup(addr); ok {
			out[addr] = bytes.Clone(data)
		}
	}
	return out, nil
}

func (t *memoryTx) Create(_ context.Context, addr id.Pubkey, data []byte) error {
	if _, ok := t.lookup(addr); ok {
		return sentinel.ErrAlreadyUsed
	}
	t.staged[addr] = bytes.Clone(data)
	return nil
}

func (t *memoryTx) Update(_ context.Context, addr id.Pubkey, data []byte) error {
	if _, ok := t.lookup(addr); !ok {
		return sentinel.ErrNotFound
	}
	t.staged[addr] = bytes.Clone(data)
	return nil
}
