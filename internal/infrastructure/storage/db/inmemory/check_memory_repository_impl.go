package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

// CheckRepositoryImpl represents an in memory storage
type CheckRepositoryImpl struct {
	checks  map[uint64]domain.Check
	counter uint64

	lock *sync.RWMutex
}

// NewCheckRepositoryImpl returns a new empty CheckRepositoryImpl
func NewCheckRepositoryImpl() *CheckRepositoryImpl {
	return &CheckRepositoryImpl{
		checks: map[uint64]domain.Check{},
		lock:   &sync.RWMutex{},
	}
}

func (r *CheckRepositoryImpl) AddCheck(
	_ context.Context, check *domain.Check,
) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	id := r.counter
	check.ID = id
	r.checks[id] = *check
	r.counter++

	return id, nil
}

func (r *CheckRepositoryImpl) GetCheck(
	_ context.Context, id uint64,
) (*domain.Check, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	check, ok := r.checks[id]
	if !ok {
		return nil, domain.ErrCheckNotFound
	}

	return &check, nil
}

func (r *CheckRepositoryImpl) GetAllChecks(
	_ context.Context,
) ([]domain.Check, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	checks := make([]domain.Check, 0, len(r.checks))
	for _, check := range r.checks {
		checks = append(checks, check)
	}
	sort.Slice(checks, func(i, j int) bool {
		return checks[i].ID < checks[j].ID
	})

	return checks, nil
}

func (r *CheckRepositoryImpl) GetCheckCount(
	_ context.Context,
) (uint64, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.counter, nil
}
