// Package ledger is the account store the registry runs on: a key-value map
// from 32-byte addresses to account bytes with create-if-absent semantics and
// atomic multi-account transactions.
//
// Three backends share one contract: memory (tests, single node), postgres and
// redis. Stores return pkg/platform/sentinel errors; the registry translates
// them.
package ledger

import (
	"context"

	id "idattest/pkg/domain"
)

// Reader reads committed accounts.
type Reader interface {
	// Get returns the account bytes or sentinel.ErrNotFound.
	Get(ctx context.Context, addr id.Pubkey) ([]byte, error)
	// GetMany returns the accounts that exist; missing addresses are omitted.
	GetMany(ctx context.Context, addrs []id.Pubkey) (map[id.Pubkey][]byte, error)
}

// Accounts is the transactional view handed to RunInTx callbacks. Reads see
// the transaction's own writes.
type Accounts interface {
	Reader
	// Create writes a new account; sentinel.ErrAlreadyUsed if the address is occupied.
	Create(ctx context.Context, addr id.Pubkey, data []byte) error
	// Update overwrites an existing account; sentinel.ErrNotFound if absent.
	Update(ctx context.Context, addr id.Pubkey, data []byte) error
}

// Store is a ledger backend.
type Store interface {
	Reader
	// RunInTx runs fn atomically: every write lands or none does. A non-nil
	// error from fn aborts the transaction and is returned unchanged. fn may
	// be invoked more than once by optimistic backends and must not have side
	// effects outside the Accounts it is given.
	RunInTx(ctx context.Context, fn func(ctx context.Context, accts Accounts) error) error
}
