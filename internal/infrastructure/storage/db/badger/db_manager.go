package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
)

type repoManager struct {
	store *badgerhold.Store

	accessRepository domain.AccessRepository
	entityRepository domain.EntityRepository
	checkRepository  domain.CheckRepository
	grantRepository  domain.GrantRepository
}

// NewRepoManager opens (or creates if not existing) the badger store on disk
// and returns the set of repositories backed by it. An empty baseDbDir makes
// the whole store volatile in memory.
func NewRepoManager(
	baseDbDir string, logger badger.Logger,
) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "main")
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening main db: %w", err)
	}

	rm := &repoManager{store: store}
	rm.accessRepository = newAccessRepositoryImpl(rm)
	rm.entityRepository = newEntityRepositoryImpl(rm)
	rm.checkRepository = newCheckRepositoryImpl(rm)
	rm.grantRepository = newGrantRepositoryImpl(rm)
	return rm, nil
}

func (d *repoManager) AccessRepository() domain.AccessRepository {
	return d.accessRepository
}

func (d *repoManager) EntityRepository() domain.EntityRepository {
	return d.entityRepository
}

func (d *repoManager) CheckRepository() domain.CheckRepository {
	return d.checkRepository
}

func (d *repoManager) GrantRepository() domain.GrantRepository {
	return d.grantRepository
}

func (d *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	tx := d.store.Badger().NewTransaction(!readOnly)
	defer tx.Discard()

	res, err := handler(context.WithValue(ctx, "tx", tx))
	if err != nil {
		return nil, err
	}

	if !readOnly {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (d *repoManager) Close() {
	d.store.Close()
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				if err := db.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			}
		}()
	}

	return db, nil
}
