package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

// GrantRepositoryImpl represents an in memory storage
type GrantRepositoryImpl struct {
	grants map[string]domain.Grant

	lock *sync.RWMutex
}

// NewGrantRepositoryImpl returns a new empty GrantRepositoryImpl
func NewGrantRepositoryImpl() *GrantRepositoryImpl {
	return &GrantRepositoryImpl{
		grants: map[string]domain.Grant{},
		lock:   &sync.RWMutex{},
	}
}

func (r *GrantRepositoryImpl) AddGrant(
	_ context.Context, grant *domain.Grant,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	key := grantKey(grant.CheckID, grant.Grantee)
	if _, ok := r.grants[key]; ok {
		return nil
	}

	r.grants[key] = *grant
	return nil
}

func (r *GrantRepositoryImpl) RemoveGrant(
	_ context.Context, checkID uint64, grantee domain.Party,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.grants, grantKey(checkID, grantee))
	return nil
}

func (r *GrantRepositoryImpl) IsGranted(
	_ context.Context, checkID uint64, grantee domain.Party,
) (bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	_, ok := r.grants[grantKey(checkID, grantee)]
	return ok, nil
}

func (r *GrantRepositoryImpl) ListGrants(
	_ context.Context, checkID uint64,
) ([]domain.Grant, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	grants := make([]domain.Grant, 0)
	for _, grant := range r.grants {
		if grant.CheckID == checkID {
			grants = append(grants, grant)
		}
	}
	sort.Slice(grants, func(i, j int) bool {
		return grants[i].Grantee < grants[j].Grantee
	})

	return grants, nil
}

func grantKey(checkID uint64, grantee domain.Party) string {
	return fmt.Sprintf("%d/%s", checkID, grantee)
}
