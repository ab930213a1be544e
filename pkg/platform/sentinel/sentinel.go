package sentinel

import "errors"

// Sentinel errors for ledger facts. Stores return these (optionally wrapped) so
// the registry can translate them into its own error taxonomy.
//
//   - ErrNotFound: no account at the address
//   - ErrAlreadyUsed: the address is already occupied (create-if-absent lost)
//   - ErrConflict: a concurrent writer changed a watched account
//   - ErrUnavailable: the backing store cannot be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
