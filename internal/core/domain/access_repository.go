package domain

import "context"

// AccessRepository is the abstraction for any kind of database intended to
// persist the singleton AccessState.
type AccessRepository interface {
	// InitAccessState stores the initial access state. It fails with
	// ErrAccessAlreadyInitialized if an owner is already recorded.
	InitAccessState(ctx context.Context, state *AccessState) error
	// GetAccessState returns the current access state, or
	// ErrAccessNotInitialized if no owner was ever recorded.
	GetAccessState(ctx context.Context) (*AccessState, error)
	// UpdateAccessState updates the access state. The closure function lets
	// the caller commit multiple role changes in a transactional way.
	UpdateAccessState(
		ctx context.Context,
		updateFn func(state *AccessState) (*AccessState, error),
	) error
}
