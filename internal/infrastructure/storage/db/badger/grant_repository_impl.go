package dbbadger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

type grantRepositoryImpl struct {
	db *repoManager
}

func newGrantRepositoryImpl(db *repoManager) domain.GrantRepository {
	return grantRepositoryImpl{db}
}

func (r grantRepositoryImpl) AddGrant(
	ctx context.Context, grant *domain.Grant,
) error {
	key := grantKey(grant.CheckID, grant.Grantee)

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.db.store.TxUpsert(tx, key, grant)
	}
	return r.db.store.Upsert(key, grant)
}

func (r grantRepositoryImpl) RemoveGrant(
	ctx context.Context, checkID uint64, grantee domain.Party,
) error {
	var err error
	key := grantKey(checkID, grantee)

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxDelete(tx, key, domain.Grant{})
	} else {
		err = r.db.store.Delete(key, domain.Grant{})
	}
	if err != nil && err != badgerhold.ErrNotFound {
		return err
	}

	return nil
}

func (r grantRepositoryImpl) IsGranted(
	ctx context.Context, checkID uint64, grantee domain.Party,
) (bool, error) {
	var err error
	var grant domain.Grant
	key := grantKey(checkID, grantee)

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxGet(tx, key, &grant)
	} else {
		err = r.db.store.Get(key, &grant)
	}
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (r grantRepositoryImpl) ListGrants(
	ctx context.Context, checkID uint64,
) ([]domain.Grant, error) {
	query := badgerhold.Where("CheckID").Eq(checkID).SortBy("CreatedAt")

	var err error
	var grants []domain.Grant
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.db.store.TxFind(tx, &grants, query)
	} else {
		err = r.db.store.Find(&grants, query)
	}
	if err != nil {
		return nil, err
	}

	return grants, nil
}

func grantKey(checkID uint64, grantee domain.Party) string {
	return fmt.Sprintf("%d/%s", checkID, grantee)
}
