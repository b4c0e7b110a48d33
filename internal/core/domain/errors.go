package domain

import "errors"

var (
	// ErrUnauthorized is thrown when the caller lacks the role an operation requires
	ErrUnauthorized = errors.New("caller is not authorized for this operation")
	// ErrInvalidCiphertext is thrown when an input ciphertext fails proof validation
	ErrInvalidCiphertext = errors.New("ciphertext failed validity proof verification")
	// ErrEntityNotFound is thrown when an entity id is out of the current bounds
	ErrEntityNotFound = errors.New("entity id is out of range")
	// ErrCheckNotFound ...
	ErrCheckNotFound = errors.New("check not found")
	// ErrInvalidParty ...
	ErrInvalidParty = errors.New("party must be a 40-char hex identifier")
	// ErrInvalidHandle ...
	ErrInvalidHandle = errors.New("ciphertext handle must be a 64-char hex string")
	// ErrInvalidCipherType ...
	ErrInvalidCipherType = errors.New("unknown ciphertext type")
	// ErrEntityInvalidName ...
	ErrEntityInvalidName = errors.New("entity name fingerprint must be a uint64 ciphertext")
	// ErrEntityInvalidCountry ...
	ErrEntityInvalidCountry = errors.New("entity country fingerprint must be a uint32 ciphertext")
	// ErrEntityInvalidAccount ...
	ErrEntityInvalidAccount = errors.New("entity account must be an address ciphertext")
	// ErrEntityInvalidActiveFlag ...
	ErrEntityInvalidActiveFlag = errors.New("entity active flag must be a bool ciphertext")
	// ErrCheckInvalidStatus ...
	ErrCheckInvalidStatus = errors.New("check status must be a uint8 ciphertext")
	// ErrAccessNotInitialized is thrown when reading roles before the owner is set
	ErrAccessNotInitialized = errors.New("access state is not initialized")
	// ErrAccessAlreadyInitialized ...
	ErrAccessAlreadyInitialized = errors.New("access state is already initialized")
)
