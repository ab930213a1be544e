package models

import (
	dErrors "idattest/pkg/domain-errors"
)

// Error is a named registry failure. The name is stable and is what clients
// match on; the code decides the transport status.
type Error struct {
	name string
	code dErrors.Code
	msg  string
}

func (e *Error) Error() string { return e.name + ": " + e.msg }

// ErrorCode implements dErrors.Coder.
func (e *Error) ErrorCode() dErrors.Code { return e.code }

// Reason is the taxonomy name, e.g. "IdentityRevoked".
func (e *Error) Reason() string { return e.name }

// Description is the client-facing message.
func (e *Error) Description() string { return e.msg }

var (
	// Validation: malformed input, state unchanged.
	ErrInvalidPlatform    = &Error{"InvalidPlatform", dErrors.CodeValidation, "invalid platform type"}
	ErrMetadataTooLong    = &Error{"MetadataTooLong", dErrors.CodeValidation, "metadata too long (max 200 bytes)"}
	ErrInvalidNotaryCount = &Error{"InvalidNotaryCount", dErrors.CodeValidation, "invalid notary count (must be 3)"}
	ErrInvalidNotaryIndex = &Error{"InvalidNotaryIndex", dErrors.CodeValidation, "invalid notary index"}

	// Cryptographic: the notary signature did not verify.
	ErrInvalidSignature = &Error{"InvalidSignature", dErrors.CodeUnauthorized, "invalid signature"}

	// Authorization: signer is not the record owner.
	ErrUnauthorized = &Error{"Unauthorized", dErrors.CodeForbidden, "unauthorized"}

	// State: conflict with lifecycle state.
	ErrIdentityExists  = &Error{"IdentityExists", dErrors.CodeConflict, "identity already exists"}
	ErrIdentityExpired = &Error{"IdentityExpired", dErrors.CodeConflict, "identity expired"}
	ErrIdentityRevoked = &Error{"IdentityRevoked", dErrors.CodeConflict, "identity revoked"}
	ErrConfigExists    = &Error{"AccountAlreadyInitialized", dErrors.CodeConflict, "config already initialized"}

	// Missing accounts.
	ErrConfigNotFound       = &Error{"AccountNotInitialized", dErrors.CodeNotFound, "config not initialized"}
	ErrIdentityNotFound     = &Error{"AccountNotInitialized", dErrors.CodeNotFound, "identity not found"}
	ErrVerificationNotFound = &Error{"AccountNotInitialized", dErrors.CodeNotFound, "verification not found"}

	// Counter arithmetic would wrap.
	ErrCounterUnderflow = &Error{"ArithmeticOverflow", dErrors.CodeInvariantViolation, "total_verifications would underflow"}

	// Stored bytes do not decode as the expected account.
	ErrAccountDiscriminator = &Error{"AccountDiscriminatorMismatch", dErrors.CodeInternal, "account discriminator mismatch"}
)
