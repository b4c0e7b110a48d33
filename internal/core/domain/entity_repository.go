package domain

import "context"

// EntityRepository is the abstraction for any kind of database intended to
// persist watchlist Entities. Ids are sequential and zero-based, records
// are never deleted.
type EntityRepository interface {
	// AddEntity stores a new entity, assigning it the next sequential id.
	// The entity counter is bumped within the same transaction.
	AddEntity(ctx context.Context, entity *Entity) (uint64, error)
	// GetEntity returns the entity with the given id, or ErrEntityNotFound
	// if the id is out of the current bounds.
	GetEntity(ctx context.Context, id uint64) (*Entity, error)
	// GetAllEntities returns all entities, active and inactive, in id order.
	GetAllEntities(ctx context.Context) ([]Entity, error)
	// UpdateEntity updates the state of an entity. The closure function lets
	// the caller commit multiple changes in a transactional way.
	UpdateEntity(
		ctx context.Context,
		id uint64, updateFn func(entity *Entity) (*Entity, error),
	) error
	// GetEntityCount returns the total number of entities ever stored.
	GetEntityCount(ctx context.Context) (uint64, error)
}
