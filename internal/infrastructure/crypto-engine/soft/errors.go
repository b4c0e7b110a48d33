package softengine

import "errors"

var (
	// ErrLockedVault ...
	ErrLockedVault = errors.New("engine vault must be unlocked")
	// ErrUnknownHandle ...
	ErrUnknownHandle = errors.New("unknown ciphertext handle")
	// ErrTypeMismatch ...
	ErrTypeMismatch = errors.New("ciphertext type mismatch")
	// ErrValueOutOfRange ...
	ErrValueOutOfRange = errors.New("value out of range for cipher type")
)
