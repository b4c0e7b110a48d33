package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

const accessStateKey = "access"

type accessRepositoryImpl struct {
	db *repoManager
}

func newAccessRepositoryImpl(db *repoManager) domain.AccessRepository {
	return accessRepositoryImpl{db}
}

func (r accessRepositoryImpl) InitAccessState(
	ctx context.Context, state *domain.AccessState,
) error {
	current, err := r.getAccessState(ctx)
	if err != nil {
		return err
	}
	if current != nil {
		return domain.ErrAccessAlreadyInitialized
	}

	return r.insertAccessState(ctx, *state)
}

func (r accessRepositoryImpl) GetAccessState(
	ctx context.Context,
) (*domain.AccessState, error) {
	state, err := r.getAccessState(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, domain.ErrAccessNotInitialized
	}

	return state, nil
}

func (r accessRepositoryImpl) UpdateAccessState(
	ctx context.Context,
	updateFn func(state *domain.AccessState) (*domain.AccessState, error),
) error {
	state, err := r.GetAccessState(ctx)
	if err != nil {
		return err
	}

	updatedState, err := updateFn(state)
	if err != nil {
		return err
	}

	return r.updateAccessState(ctx, *updatedState)
}

func (r accessRepositoryImpl) getAccessState(
	ctx context.Context,
) (*domain.AccessState, error) {
	var err error
	var state domain.AccessState

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxGet(tx, accessStateKey, &state)
	} else {
		err = r.db.store.Get(accessStateKey, &state)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &state, nil
}

func (r accessRepositoryImpl) insertAccessState(
	ctx context.Context, state domain.AccessState,
) error {
	var err error

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxInsert(tx, accessStateKey, &state)
	} else {
		err = r.db.store.Insert(accessStateKey, &state)
	}
	if err == badgerhold.ErrKeyExists {
		return domain.ErrAccessAlreadyInitialized
	}

	return err
}

func (r accessRepositoryImpl) updateAccessState(
	ctx context.Context, state domain.AccessState,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.db.store.TxUpsert(tx, accessStateKey, &state)
	}
	return r.db.store.Upsert(accessStateKey, &state)
}
