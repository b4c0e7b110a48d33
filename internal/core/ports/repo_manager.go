package ports

import (
	"context"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

// RepoManager gives access to all the repositories of the daemon and lets
// callers run multiple repository operations as a single atomic commit.
type RepoManager interface {
	AccessRepository() domain.AccessRepository
	EntityRepository() domain.EntityRepository
	CheckRepository() domain.CheckRepository
	GrantRepository() domain.GrantRepository

	// RunTransaction runs the handler within a single storage transaction,
	// committed if the handler succeeds, fully discarded otherwise.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)

	Close()
}

// Transaction defines the methods to commit or discard a pending storage
// transaction.
type Transaction interface {
	Commit() error
	Discard()
}
