package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

const checkCounterKey = "checks"

type checkRepositoryImpl struct {
	db *repoManager
}

func newCheckRepositoryImpl(db *repoManager) domain.CheckRepository {
	return checkRepositoryImpl{db}
}

func (r checkRepositoryImpl) AddCheck(
	ctx context.Context, check *domain.Check,
) (uint64, error) {
	count, err := r.getCounter(ctx)
	if err != nil {
		return 0, err
	}

	check.ID = count
	if err := r.insertCheck(ctx, *check); err != nil {
		return 0, err
	}
	if err := r.updateCounter(ctx, count+1); err != nil {
		return 0, err
	}

	return count, nil
}

func (r checkRepositoryImpl) GetCheck(
	ctx context.Context, id uint64,
) (*domain.Check, error) {
	var err error
	var check domain.Check

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxGet(tx, id, &check)
	} else {
		err = r.db.store.Get(id, &check)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrCheckNotFound
		}
		return nil, err
	}

	return &check, nil
}

func (r checkRepositoryImpl) GetAllChecks(
	ctx context.Context,
) ([]domain.Check, error) {
	query := badgerhold.Where("ID").Ge(uint64(0)).SortBy("ID")

	var err error
	var checks []domain.Check
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxFind(tx, &checks, query)
	} else {
		err = r.db.store.Find(&checks, query)
	}
	if err != nil {
		return nil, err
	}

	return checks, nil
}

func (r checkRepositoryImpl) GetCheckCount(
	ctx context.Context,
) (uint64, error) {
	return r.getCounter(ctx)
}

func (r checkRepositoryImpl) insertCheck(
	ctx context.Context, check domain.Check,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.db.store.TxInsert(tx, check.ID, &check)
	}
	return r.db.store.Insert(check.ID, &check)
}

func (r checkRepositoryImpl) getCounter(ctx context.Context) (uint64, error) {
	var err error
	var c counter

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxGet(tx, checkCounterKey, &c)
	} else {
		err = r.db.store.Get(checkCounterKey, &c)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}

	return c.Count, nil
}

func (r checkRepositoryImpl) updateCounter(
	ctx context.Context, count uint64,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.db.store.TxUpsert(tx, checkCounterKey, &counter{count})
	}
	return r.db.store.Upsert(checkCounterKey, &counter{count})
}
