package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

// EntityRepositoryImpl represents an in memory storage
type EntityRepositoryImpl struct {
	entities map[uint64]domain.Entity
	counter  uint64

	lock *sync.RWMutex
}

// NewEntityRepositoryImpl returns a new empty EntityRepositoryImpl
func NewEntityRepositoryImpl() *EntityRepositoryImpl {
	return &EntityRepositoryImpl{
		entities: map[uint64]domain.Entity{},
		lock:     &sync.RWMutex{},
	}
}

func (r *EntityRepositoryImpl) AddEntity(
	_ context.Context, entity *domain.Entity,
) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	id := r.counter
	entity.ID = id
	r.entities[id] = *entity
	r.counter++

	return id, nil
}

func (r *EntityRepositoryImpl) GetEntity(
	_ context.Context, id uint64,
) (*domain.Entity, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	entity, ok := r.entities[id]
	if !ok {
		return nil, domain.ErrEntityNotFound
	}

	return &entity, nil
}

func (r *EntityRepositoryImpl) GetAllEntities(
	_ context.Context,
) ([]domain.Entity, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	entities := make([]domain.Entity, 0, len(r.entities))
	for _, entity := range r.entities {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].ID < entities[j].ID
	})

	return entities, nil
}

func (r *EntityRepositoryImpl) UpdateEntity(
	_ context.Context,
	id uint64, updateFn func(entity *domain.Entity) (*domain.Entity, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	currentEntity, ok := r.entities[id]
	if !ok {
		return domain.ErrEntityNotFound
	}

	updatedEntity, err := updateFn(&currentEntity)
	if err != nil {
		return err
	}

	r.entities[id] = *updatedEntity
	return nil
}

func (r *EntityRepositoryImpl) GetEntityCount(
	_ context.Context,
) (uint64, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.counter, nil
}
