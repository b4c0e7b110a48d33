package domain

import "context"

// GrantRepository is the abstraction for any kind of database intended to
// persist per-check verdict visibility Grants.
type GrantRepository interface {
	// AddGrant records a grant. Granting an already-granted party is a
	// no-op success.
	AddGrant(ctx context.Context, grant *Grant) error
	// RemoveGrant clears a grant. Revoking a non-granted party is a no-op
	// success.
	RemoveGrant(ctx context.Context, checkID uint64, grantee Party) error
	// IsGranted returns whether the given party holds a grant for the given
	// check. Unknown check ids read as false.
	IsGranted(ctx context.Context, checkID uint64, grantee Party) (bool, error)
	// ListGrants returns the grantees of the given check.
	ListGrants(ctx context.Context, checkID uint64) ([]Grant, error)
}
