package inmemory

import (
	"context"
	"sync"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

// AccessRepositoryImpl represents an in memory storage
type AccessRepositoryImpl struct {
	state *domain.AccessState

	lock *sync.RWMutex
}

// NewAccessRepositoryImpl returns a new empty AccessRepositoryImpl
func NewAccessRepositoryImpl() *AccessRepositoryImpl {
	return &AccessRepositoryImpl{
		lock: &sync.RWMutex{},
	}
}

func (r *AccessRepositoryImpl) InitAccessState(
	_ context.Context, state *domain.AccessState,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.state != nil {
		return domain.ErrAccessAlreadyInitialized
	}

	stateCopy := copyAccessState(*state)
	r.state = &stateCopy
	return nil
}

func (r *AccessRepositoryImpl) GetAccessState(
	_ context.Context,
) (*domain.AccessState, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.state == nil {
		return nil, domain.ErrAccessNotInitialized
	}

	stateCopy := copyAccessState(*r.state)
	return &stateCopy, nil
}

func (r *AccessRepositoryImpl) UpdateAccessState(
	_ context.Context,
	updateFn func(state *domain.AccessState) (*domain.AccessState, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.state == nil {
		return domain.ErrAccessNotInitialized
	}

	stateCopy := copyAccessState(*r.state)
	updatedState, err := updateFn(&stateCopy)
	if err != nil {
		return err
	}

	r.state = updatedState
	return nil
}

// copyAccessState detaches the curator set so that callers cannot mutate the
// stored state in place.
func copyAccessState(state domain.AccessState) domain.AccessState {
	curators := make(map[domain.Party]bool, len(state.Curators))
	for party, ok := range state.Curators {
		curators[party] = ok
	}
	state.Curators = curators
	return state
}
