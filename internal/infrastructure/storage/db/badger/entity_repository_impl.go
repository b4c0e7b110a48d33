package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

const entityCounterKey = "entities"

// counter tracks the next sequential id of an append-only collection.
type counter struct {
	Count uint64
}

type entityRepositoryImpl struct {
	db *repoManager
}

func newEntityRepositoryImpl(db *repoManager) domain.EntityRepository {
	return entityRepositoryImpl{db}
}

func (r entityRepositoryImpl) AddEntity(
	ctx context.Context, entity *domain.Entity,
) (uint64, error) {
	count, err := r.getCounter(ctx)
	if err != nil {
		return 0, err
	}

	entity.ID = count
	if err := r.insertEntity(ctx, *entity); err != nil {
		return 0, err
	}
	if err := r.updateCounter(ctx, count+1); err != nil {
		return 0, err
	}

	return count, nil
}

func (r entityRepositoryImpl) GetEntity(
	ctx context.Context, id uint64,
) (*domain.Entity, error) {
	return r.getEntity(ctx, id)
}

func (r entityRepositoryImpl) GetAllEntities(
	ctx context.Context,
) ([]domain.Entity, error) {
	query := badgerhold.Where("ID").Ge(uint64(0)).SortBy("ID")

	var err error
	var entities []domain.Entity
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxFind(tx, &entities, query)
	} else {
		err = r.db.store.Find(&entities, query)
	}
	if err != nil {
		return nil, err
	}

	return entities, nil
}

func (r entityRepositoryImpl) UpdateEntity(
	ctx context.Context,
	id uint64, updateFn func(entity *domain.Entity) (*domain.Entity, error),
) error {
	currentEntity, err := r.getEntity(ctx, id)
	if err != nil {
		return err
	}

	updatedEntity, err := updateFn(currentEntity)
	if err != nil {
		return err
	}

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.db.store.TxUpdate(tx, id, *updatedEntity)
	}
	return r.db.store.Update(id, *updatedEntity)
}

func (r entityRepositoryImpl) GetEntityCount(
	ctx context.Context,
) (uint64, error) {
	return r.getCounter(ctx)
}

func (r entityRepositoryImpl) getEntity(
	ctx context.Context, id uint64,
) (*domain.Entity, error) {
	var err error
	var entity domain.Entity

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxGet(tx, id, &entity)
	} else {
		err = r.db.store.Get(id, &entity)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrEntityNotFound
		}
		return nil, err
	}

	return &entity, nil
}

func (r entityRepositoryImpl) insertEntity(
	ctx context.Context, entity domain.Entity,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.db.store.TxInsert(tx, entity.ID, &entity)
	}
	return r.db.store.Insert(entity.ID, &entity)
}

func (r entityRepositoryImpl) getCounter(ctx context.Context) (uint64, error) {
	var err error
	var c counter

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxGet(tx, entityCounterKey, &c)
	} else {
		err = r.db.store.Get(entityCounterKey, &c)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}

	return c.Count, nil
}

func (r entityRepositoryImpl) updateCounter(
	ctx context.Context, count uint64,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.db.store.TxUpsert(tx, entityCounterKey, &counter{count})
	}
	return r.db.store.Upsert(entityCounterKey, &counter{count})
}
