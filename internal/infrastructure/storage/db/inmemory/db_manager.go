package inmemory

import (
	"context"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
)

type RepoManager struct {
	accessRepository domain.AccessRepository
	entityRepository domain.EntityRepository
	checkRepository  domain.CheckRepository
	grantRepository  domain.GrantRepository
}

func NewRepoManager() ports.RepoManager {
	return &RepoManager{
		accessRepository: NewAccessRepositoryImpl(),
		entityRepository: NewEntityRepositoryImpl(),
		checkRepository:  NewCheckRepositoryImpl(),
		grantRepository:  NewGrantRepositoryImpl(),
	}
}

func (d *RepoManager) AccessRepository() domain.AccessRepository {
	return d.accessRepository
}

func (d *RepoManager) EntityRepository() domain.EntityRepository {
	return d.entityRepository
}

func (d *RepoManager) CheckRepository() domain.CheckRepository {
	return d.checkRepository
}

func (d *RepoManager) GrantRepository() domain.GrantRepository {
	return d.grantRepository
}

// RunTransaction runs the handler as-is. The in-memory repositories have no
// write-ahead transaction, callers rely on the services performing all
// validations before the first write.
func (d *RepoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	return handler(ctx)
}

func (d *RepoManager) Close() {}
