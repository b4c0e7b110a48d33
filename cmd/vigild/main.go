package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vigil-network/vigil-daemon/config"
	"github.com/vigil-network/vigil-daemon/internal/core/application"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
	remoteengine "github.com/vigil-network/vigil-daemon/internal/infrastructure/crypto-engine/remote"
	softengine "github.com/vigil-network/vigil-daemon/internal/infrastructure/crypto-engine/soft"
	pubsubservice "github.com/vigil-network/vigil-daemon/internal/infrastructure/pubsub"
	dbbadger "github.com/vigil-network/vigil-daemon/internal/infrastructure/storage/db/badger"
	"github.com/vigil-network/vigil-daemon/internal/infrastructure/storage/db/inmemory"
	httpinterface "github.com/vigil-network/vigil-daemon/internal/interfaces/http"
	"github.com/vigil-network/vigil-daemon/internal/metrics"
	"github.com/vigil-network/vigil-daemon/pkg/macaroons"
	boltsecurestore "github.com/vigil-network/vigil-daemon/pkg/securestore/bolt"
	"github.com/vigil-network/vigil-daemon/pkg/stats"
)

// Build info, overridden at link time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const macaroonsLocation = "vigild"

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	datadir := config.GetDatadir()
	dbDir := filepath.Join(datadir, config.DbLocation)

	password := config.GetString(config.VaultPasswordKey)
	if password == "" {
		log.Panic("VIGIL_VAULT_PASSWORD must be set")
	}

	repoManager, err := newRepoManager(dbDir)
	if err != nil {
		log.WithError(err).Panic("error while opening db")
	}
	defer repoManager.Close()

	engine, sealer, err := newCryptoEngine(dbDir, password)
	if err != nil {
		log.WithError(err).Panic("error while setting up crypto engine")
	}
	defer engine.Close()

	pubsubStore, err := boltsecurestore.NewSecureStorage(dbDir, "pubsub.db")
	if err != nil {
		log.WithError(err).Panic("error while opening pubsub store")
	}
	pubsubSvc, err := pubsubservice.NewService(pubsubStore)
	if err != nil {
		log.WithError(err).Panic("error while setting up pubsub service")
	}
	if err := pubsubSvc.Store().Unlock(password); err != nil {
		log.WithError(err).Panic("error while unlocking pubsub store")
	}
	defer pubsubSvc.Store().Close()

	var macaroonSvc *macaroons.Service
	noMacaroons := config.GetBool(config.NoMacaroonsKey)
	if !noMacaroons {
		macaroonSvc, err = newMacaroonService(dbDir, password)
		if err != nil {
			log.WithError(err).Panic("error while setting up macaroon service")
		}
	}

	stateLock := &sync.Mutex{}
	buildInfo := application.BuildInfo{
		Version: version, Commit: commit, Date: date,
	}
	operatorSvc, err := application.NewOperatorService(
		repoManager, engine, pubsubSvc, buildInfo, stateLock,
	)
	if err != nil {
		log.WithError(err).Panic("error while setting up operator service")
	}
	screeningSvc, err := application.NewScreeningService(
		repoManager, engine, pubsubSvc, stateLock,
	)
	if err != nil {
		log.WithError(err).Panic("error while setting up screening service")
	}

	ctx := context.Background()
	if err := initAccessRegistry(ctx, operatorSvc); err != nil {
		log.WithError(err).Panic("error while initializing access registry")
	}

	svc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:            config.GetListenAddress(),
		Datadir:            datadir,
		TLSLocation:        config.TLSLocation,
		MacaroonsLocation:  config.MacaroonsLocation,
		ExtraIPs:           config.GetStringSlice(config.ExtraIPsKey),
		ExtraDomains:       config.GetStringSlice(config.ExtraDomainsKey),
		NoTLS:              config.GetBool(config.NoTLSKey),
		NoMacaroons:        noMacaroons,
		CheckRatePerSecond: config.GetInt(config.CheckRateLimitKey),
		OperatorSvc:        operatorSvc,
		ScreeningSvc:       screeningSvc,
		MacaroonSvc:        macaroonSvc,
		Sealer:             sealer,
	})
	if err != nil {
		log.WithError(err).Panic("error while setting up http interface")
	}
	if err := svc.Start(); err != nil {
		log.WithError(err).Panic("error while starting http interface")
	}
	defer svc.Stop()

	if config.GetBool(config.EnableProfilerKey) {
		statsCtx, stopStats := context.WithCancel(ctx)
		defer stopStats()
		interval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		dumpPath := filepath.Join(
			datadir, config.ProfilerLocation, "prometheus.dump",
		)
		stats.EnableMemoryStatistics(statsCtx, interval, dumpPath)
	}

	log.Infof("vigil daemon version %s is up and running", version)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Debug("exiting")
}

func newRepoManager(dbDir string) (ports.RepoManager, error) {
	if config.GetString(config.DbTypeKey) == config.DbInMemory {
		return inmemory.NewRepoManager(), nil
	}
	return dbbadger.NewRepoManager(dbDir, nil)
}

// newCryptoEngine returns the configured engine, wrapped with prometheus
// instrumentation, plus the sealer exposed over HTTP when the engine is the
// embedded one.
func newCryptoEngine(
	dbDir, password string,
) (ports.CryptoEngine, httpinterface.Sealer, error) {
	if config.GetString(config.CryptoEngineKey) == config.EngineRemote {
		engine, err := remoteengine.NewEngine(
			config.GetString(config.EngineEndpointKey),
			config.GetInt(config.EngineRateLimitKey),
		)
		if err != nil {
			return nil, nil, err
		}
		return metrics.WrapEngine(engine), nil, nil
	}

	store, err := boltsecurestore.NewSecureStorage(dbDir, "engine.db")
	if err != nil {
		return nil, nil, err
	}
	pwd := []byte(password)
	if err := store.CreateUnlock(&pwd); err != nil {
		return nil, nil, err
	}
	engine, err := softengine.NewEngine(store)
	if err != nil {
		return nil, nil, err
	}
	return metrics.WrapEngine(engine), engine, nil
}

func newMacaroonService(
	dbDir, password string,
) (*macaroons.Service, error) {
	store, err := boltsecurestore.NewSecureStorage(dbDir, "macaroons.db")
	if err != nil {
		return nil, err
	}
	pwd := []byte(password)
	if err := store.CreateUnlock(&pwd); err != nil {
		return nil, err
	}
	return macaroons.NewService(store, macaroonsLocation)
}

// initAccessRegistry seeds the registry owner at the first start. Later
// starts ignore VIGIL_OWNER, ownership is transferred through the API.
func initAccessRegistry(
	ctx context.Context, operatorSvc application.OperatorService,
) error {
	owner := config.GetString(config.OwnerKey)
	if owner == "" {
		if _, err := operatorSvc.GetAccessInfo(ctx); err != nil {
			log.Panic(
				"the access registry is not initialized, restart the daemon " +
					"with VIGIL_OWNER set to the party id of the initial owner",
			)
		}
		return nil
	}

	ownerParty, err := domain.ParseParty(owner)
	if err != nil {
		return err
	}
	if err := operatorSvc.InitAccess(ctx, ownerParty); err != nil {
		if err != domain.ErrAccessAlreadyInitialized {
			return err
		}
		log.Debug("access registry already initialized, ignoring VIGIL_OWNER")
	}
	return nil
}
