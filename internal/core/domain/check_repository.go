package domain

import "context"

// CheckRepository is the abstraction for any kind of database intended to
// persist screening Checks. Ids are sequential, zero-based and independent
// from entity ids. Records are write-once.
type CheckRepository interface {
	// AddCheck stores a new check, assigning it the next sequential id.
	// The check counter is bumped within the same transaction.
	AddCheck(ctx context.Context, check *Check) (uint64, error)
	// GetCheck returns the check with the given id, or ErrCheckNotFound.
	GetCheck(ctx context.Context, id uint64) (*Check, error)
	// GetAllChecks returns all recorded checks in id order.
	GetAllChecks(ctx context.Context) ([]Check, error)
	// GetCheckCount returns the total number of checks ever recorded.
	GetCheckCount(ctx context.Context) (uint64, error)
}
