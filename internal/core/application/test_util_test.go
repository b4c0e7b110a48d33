package application_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/application"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
	softengine "github.com/vigil-network/vigil-daemon/internal/infrastructure/crypto-engine/soft"
	"github.com/vigil-network/vigil-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/vigil-network/vigil-daemon/pkg/fingerprint"
	boltsecurestore "github.com/vigil-network/vigil-daemon/pkg/securestore/bolt"
)

const (
	ownerParty     = domain.Party("aabbccddeeff00112233445566778899aabbccdd")
	curatorParty   = domain.Party("00112233445566778899aabbccddeeff00112233")
	submitterParty = domain.Party("1111111111222222222233333333334444444444")
	granteeParty   = domain.Party("5555555555666666666677777777778888888888")
)

var (
	ctx      = context.Background()
	password = []byte("password")
)

type testServices struct {
	operator  application.OperatorService
	screening application.ScreeningService
	engine    *softengine.Engine
	repo      ports.RepoManager
	pubsub    *mockSecurePubSub
	stateLock *sync.Mutex
}

func newTestServices(t *testing.T) *testServices {
	repoManager := inmemory.NewRepoManager()

	store, err := boltsecurestore.NewSecureStorage(t.TempDir(), "engine.db")
	require.NoError(t, err)
	require.NoError(t, store.CreateUnlock(&password))

	engine, err := softengine.NewEngine(store)
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	pubsub := newMockSecurePubSub()
	stateLock := &sync.Mutex{}

	operatorSvc, err := application.NewOperatorService(
		repoManager, engine, pubsub, application.BuildInfo{}, stateLock,
	)
	require.NoError(t, err)
	screeningSvc, err := application.NewScreeningService(
		repoManager, engine, pubsub, stateLock,
	)
	require.NoError(t, err)

	require.NoError(t, operatorSvc.InitAccess(ctx, ownerParty))

	return &testServices{
		operator:  operatorSvc,
		screening: screeningSvc,
		engine:    engine,
		repo:      repoManager,
		pubsub:    pubsub,
		stateLock: stateLock,
	}
}

func (ts *testServices) sealInput(
	t *testing.T, value uint64, typ domain.CipherType, party domain.Party,
) application.CipherInput {
	blob, proof, err := ts.engine.SealInput(value, typ, party)
	require.NoError(t, err)
	return application.CipherInput{Blob: blob, Proof: proof}
}

// subjectInputs seals the three confidential fields of a screening subject
// or watchlist entity the way a party's client would.
func (ts *testServices) subjectInputs(
	t *testing.T, party domain.Party, name string, country uint32, account string,
) (application.CipherInput, application.CipherInput, application.CipherInput) {
	nameIn := ts.sealInput(
		t, fingerprint.Fingerprint64(name), domain.CipherTypeUint64, party,
	)
	countryIn := ts.sealInput(
		t, uint64(country), domain.CipherTypeUint32, party,
	)
	accountIn := ts.sealInput(
		t, fingerprint.Fingerprint64(account), domain.CipherTypeAddress, party,
	)
	return nameIn, countryIn, accountIn
}

func (ts *testServices) addEntity(
	t *testing.T, name string, country uint32, account string,
) uint64 {
	nameIn, countryIn, accountIn := ts.subjectInputs(
		t, ownerParty, name, country, account,
	)
	info, err := ts.operator.AddEntity(ctx, ownerParty, nameIn, countryIn, accountIn)
	require.NoError(t, err)
	require.NotNil(t, info)
	return info.ID
}

func (ts *testServices) submitCheck(
	t *testing.T, submitter domain.Party,
	name string, country uint32, account string,
) *application.CheckInfo {
	nameIn, countryIn, accountIn := ts.subjectInputs(
		t, submitter, name, country, account,
	)
	info, err := ts.screening.SubmitCheck(
		ctx, submitter, nameIn, countryIn, accountIn,
	)
	require.NoError(t, err)
	require.NotNil(t, info)
	return info
}

func (ts *testServices) revealStatus(
	t *testing.T, requester domain.Party, checkID uint64,
) uint8 {
	status, err := ts.screening.RevealCheckStatus(ctx, requester, checkID)
	require.NoError(t, err)
	return status
}
