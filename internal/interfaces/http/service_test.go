package httpinterface

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/application"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	softengine "github.com/vigil-network/vigil-daemon/internal/infrastructure/crypto-engine/soft"
	pubsubservice "github.com/vigil-network/vigil-daemon/internal/infrastructure/pubsub"
	"github.com/vigil-network/vigil-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/vigil-network/vigil-daemon/pkg/fingerprint"
	"github.com/vigil-network/vigil-daemon/pkg/httpauth"
	"github.com/vigil-network/vigil-daemon/pkg/macaroons"
	boltsecurestore "github.com/vigil-network/vigil-daemon/pkg/securestore/bolt"
)

var testPassword = []byte("password")

type testEnv struct {
	operatorSvc  application.OperatorService
	screeningSvc application.ScreeningService
	engine       *softengine.Engine

	ownerKey *btcec.PrivateKey
	owner    domain.Party
	userKey  *btcec.PrivateKey
	user     domain.Party
}

func newTestEnv(t *testing.T) *testEnv {
	repoManager := inmemory.NewRepoManager()

	engineStore, err := boltsecurestore.NewSecureStorage(t.TempDir(), "engine.db")
	require.NoError(t, err)
	require.NoError(t, engineStore.CreateUnlock(&testPassword))
	engine, err := softengine.NewEngine(engineStore)
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	pubsubStore, err := boltsecurestore.NewSecureStorage(t.TempDir(), "pubsub.db")
	require.NoError(t, err)
	pubsubSvc, err := pubsubservice.NewService(pubsubStore)
	require.NoError(t, err)
	require.NoError(t, pubsubSvc.Store().Init(string(testPassword)))
	require.NoError(t, pubsubSvc.Store().Unlock(string(testPassword)))
	t.Cleanup(func() {
		//nolint
		pubsubSvc.Store().Close()
	})

	stateLock := &sync.Mutex{}
	operatorSvc, err := application.NewOperatorService(
		repoManager, engine, pubsubSvc,
		application.BuildInfo{Version: "test"}, stateLock,
	)
	require.NoError(t, err)
	screeningSvc, err := application.NewScreeningService(
		repoManager, engine, pubsubSvc, stateLock,
	)
	require.NoError(t, err)

	ownerKey, err := httpauth.NewPrivateKey()
	require.NoError(t, err)
	userKey, err := httpauth.NewPrivateKey()
	require.NoError(t, err)

	env := &testEnv{
		operatorSvc:  operatorSvc,
		screeningSvc: screeningSvc,
		engine:       engine,
		ownerKey:     ownerKey,
		owner:        domain.Party(httpauth.PartyID(ownerKey.PubKey())),
		userKey:      userKey,
		user:         domain.Party(httpauth.PartyID(userKey.PubKey())),
	}
	require.NoError(t, operatorSvc.InitAccess(context.Background(), env.owner))
	return env
}

func newTestServer(t *testing.T, svc interface{}) *httptest.Server {
	server := httptest.NewServer(svc.(*service).router())
	t.Cleanup(server.Close)
	return server
}

func TestHTTPInterface(t *testing.T) {
	env := newTestEnv(t)

	svc, err := NewService(ServiceOpts{
		Address:      "localhost:0",
		Datadir:      t.TempDir(),
		NoTLS:        true,
		NoMacaroons:  true,
		OperatorSvc:  env.operatorSvc,
		ScreeningSvc: env.screeningSvc,
		Sealer:       env.engine,
	})
	require.NoError(t, err)
	server := newTestServer(t, svc)

	status, _ := doRequest(t, server.URL, http.MethodGet, "/healthz", nil, nil, "")
	require.Equal(t, http.StatusOK, status)

	status, body := doRequest(t, server.URL, http.MethodGet, "/v1/info", nil, nil, "")
	require.Equal(t, http.StatusOK, status)
	var info infoResponse
	require.NoError(t, json.Unmarshal(body, &info))
	require.Equal(t, env.owner.String(), info.Owner)
	require.Equal(t, "test", info.Version)

	// The owner lists a sanctioned subject.
	listed := sealSubject(
		t, server.URL, env.ownerKey, "Acme Trading Ltd", 643, "RU-ACC-1",
	)
	status, body = doRequest(
		t, server.URL, http.MethodPost, "/v1/watchlist/entities",
		listed, env.ownerKey, "",
	)
	require.Equal(t, http.StatusCreated, status, string(body))
	var entity entityResponse
	require.NoError(t, json.Unmarshal(body, &entity))
	require.Equal(t, uint64(0), entity.ID)

	status, body = doRequest(
		t, server.URL, http.MethodGet, "/v1/watchlist/entities/count", nil, nil, "",
	)
	require.Equal(t, http.StatusOK, status)
	var count countResponse
	require.NoError(t, json.Unmarshal(body, &count))
	require.Equal(t, uint64(1), count.Count)

	// A user screens the listed subject and reads back the verdict.
	match := sealSubject(
		t, server.URL, env.userKey, "Acme Trading Ltd", 643, "RU-ACC-1",
	)
	status, body = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks",
		match, env.userKey, "",
	)
	require.Equal(t, http.StatusCreated, status, string(body))
	var check checkResponse
	require.NoError(t, json.Unmarshal(body, &check))
	require.Equal(t, uint64(0), check.ID)
	require.Equal(t, env.user.String(), check.Submitter)
	require.Len(t, check.Status, 64)

	status, body = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks/0/reveal",
		nil, env.userKey, "",
	)
	require.Equal(t, http.StatusOK, status, string(body))
	var verdict revealResponse
	require.NoError(t, json.Unmarshal(body, &verdict))
	require.Equal(t, domain.CheckStatusNonCompliant, verdict.Status)
	require.Equal(t, "NON_COMPLIANT", verdict.Label)

	// A subject not on the list screens compliant.
	clean := sealSubject(
		t, server.URL, env.userKey, "Jane Doe", 250, "FR-ACC-7",
	)
	status, body = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks",
		clean, env.userKey, "",
	)
	require.Equal(t, http.StatusCreated, status, string(body))
	status, body = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks/1/reveal",
		nil, env.userKey, "",
	)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &verdict))
	require.Equal(t, domain.CheckStatusCompliant, verdict.Status)
	require.Equal(t, "COMPLIANT", verdict.Label)

	// Public views.
	status, body = doRequest(
		t, server.URL, http.MethodGet, "/v1/screening/checks/count", nil, nil, "",
	)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &count))
	require.Equal(t, uint64(2), count.Count)

	status, body = doRequest(
		t, server.URL, http.MethodGet, "/v1/screening/checks/0/user", nil, nil, "",
	)
	require.Equal(t, http.StatusOK, status)
	var user checkUserResponse
	require.NoError(t, json.Unmarshal(body, &user))
	require.Equal(t, env.user.String(), user.Submitter)

	// Views are lenient on out of range ids.
	status, body = doRequest(
		t, server.URL, http.MethodGet, "/v1/screening/checks/99/status", nil, nil, "",
	)
	require.Equal(t, http.StatusOK, status)
	var checkStatus checkStatusResponse
	require.NoError(t, json.Unmarshal(body, &checkStatus))
	require.Empty(t, checkStatus.Status)

	status, body = doRequest(
		t, server.URL, http.MethodGet,
		"/v1/access/curators/"+env.owner.String(), nil, nil, "",
	)
	require.Equal(t, http.StatusOK, status)
	var isCurator isCuratorResponse
	require.NoError(t, json.Unmarshal(body, &isCurator))
	require.True(t, isCurator.IsCurator)

	status, body = doRequest(
		t, server.URL, http.MethodGet,
		"/v1/access/curators/"+env.user.String(), nil, nil, "",
	)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &isCurator))
	require.False(t, isCurator.IsCurator)

	// Unsigned requests are rejected on the authenticated surface.
	status, _ = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks", clean, nil, "",
	)
	require.Equal(t, http.StatusUnauthorized, status)

	status, body = doRequest(t, server.URL, http.MethodGet, "/metrics", nil, nil, "")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), "vigild_http_requests_total")
}

func TestHTTPGrantFlow(t *testing.T) {
	env := newTestEnv(t)

	svc, err := NewService(ServiceOpts{
		Address:      "localhost:0",
		Datadir:      t.TempDir(),
		NoTLS:        true,
		NoMacaroons:  true,
		OperatorSvc:  env.operatorSvc,
		ScreeningSvc: env.screeningSvc,
		Sealer:       env.engine,
	})
	require.NoError(t, err)
	server := newTestServer(t, svc)

	subject := sealSubject(t, server.URL, env.userKey, "John Doe", 840, "US-ACC-1")
	status, body := doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks",
		subject, env.userKey, "",
	)
	require.Equal(t, http.StatusCreated, status, string(body))

	// Nobody but the submitter can read the verdict...
	status, _ = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks/0/reveal",
		nil, env.ownerKey, "",
	)
	require.Equal(t, http.StatusForbidden, status)

	// ...until the submitter grants them access.
	status, body = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks/0/grants",
		grantRequest{Grantee: env.owner.String()}, env.userKey, "",
	)
	require.Equal(t, http.StatusNoContent, status, string(body))

	status, body = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks/0/reveal",
		nil, env.ownerKey, "",
	)
	require.Equal(t, http.StatusOK, status, string(body))
	var verdict revealResponse
	require.NoError(t, json.Unmarshal(body, &verdict))
	require.Equal(t, domain.CheckStatusCompliant, verdict.Status)

	status, body = doRequest(
		t, server.URL, http.MethodGet, "/v1/screening/checks/0/grants",
		nil, env.userKey, "",
	)
	require.Equal(t, http.StatusOK, status)
	var grants []grantResponse
	require.NoError(t, json.Unmarshal(body, &grants))
	require.Len(t, grants, 1)
	require.Equal(t, env.owner.String(), grants[0].Grantee)

	// The grant flag is publicly readable, unsigned included.
	status, body = doRequest(
		t, server.URL, http.MethodGet,
		"/v1/screening/checks/0/grants/"+env.owner.String(), nil, nil, "",
	)
	require.Equal(t, http.StatusOK, status)
	var access hasAccessResponse
	require.NoError(t, json.Unmarshal(body, &access))
	require.True(t, access.Granted)

	// Only the submitter manages the ledger, unknown ids look the same.
	status, _ = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks/0/grants",
		grantRequest{Grantee: env.user.String()}, env.ownerKey, "",
	)
	require.Equal(t, http.StatusForbidden, status)
	status, _ = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks/42/grants",
		grantRequest{Grantee: env.owner.String()}, env.userKey, "",
	)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = doRequest(
		t, server.URL, http.MethodDelete,
		"/v1/screening/checks/0/grants/"+env.owner.String(),
		nil, env.userKey, "",
	)
	require.Equal(t, http.StatusNoContent, status)

	status, body = doRequest(
		t, server.URL, http.MethodGet,
		"/v1/screening/checks/0/grants/"+env.owner.String(), nil, nil, "",
	)
	require.Equal(t, http.StatusOK, status)
	access = hasAccessResponse{}
	require.NoError(t, json.Unmarshal(body, &access))
	require.False(t, access.Granted)

	status, _ = doRequest(
		t, server.URL, http.MethodPost, "/v1/screening/checks/0/reveal",
		nil, env.ownerKey, "",
	)
	require.Equal(t, http.StatusForbidden, status)
}

func TestHTTPWebhookManagement(t *testing.T) {
	env := newTestEnv(t)

	svc, err := NewService(ServiceOpts{
		Address:      "localhost:0",
		Datadir:      t.TempDir(),
		NoTLS:        true,
		NoMacaroons:  true,
		OperatorSvc:  env.operatorSvc,
		ScreeningSvc: env.screeningSvc,
	})
	require.NoError(t, err)
	server := newTestServer(t, svc)

	status, body := doRequest(
		t, server.URL, http.MethodPost, "/v1/webhooks",
		webhookRequest{
			Topic:    "watchlist.entity_added",
			Endpoint: "http://localhost:9999/hook",
		}, env.ownerKey, "",
	)
	require.Equal(t, http.StatusCreated, status, string(body))
	var webhook webhookIDResponse
	require.NoError(t, json.Unmarshal(body, &webhook))
	require.NotEmpty(t, webhook.ID)

	status, _ = doRequest(
		t, server.URL, http.MethodPost, "/v1/webhooks",
		webhookRequest{
			Topic:    "not.a.topic",
			Endpoint: "http://localhost:9999/hook",
		}, env.ownerKey, "",
	)
	require.Equal(t, http.StatusBadRequest, status)

	status, body = doRequest(
		t, server.URL, http.MethodGet, "/v1/webhooks", nil, env.ownerKey, "",
	)
	require.Equal(t, http.StatusOK, status)
	var webhooks []webhookResponse
	require.NoError(t, json.Unmarshal(body, &webhooks))
	require.Len(t, webhooks, 1)
	require.Equal(t, "watchlist.entity_added", webhooks[0].Topic)

	status, _ = doRequest(
		t, server.URL, http.MethodDelete, "/v1/webhooks/"+webhook.ID,
		nil, env.ownerKey, "",
	)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(
		t, server.URL, http.MethodDelete, "/v1/webhooks/"+webhook.ID,
		nil, env.ownerKey, "",
	)
	require.Equal(t, http.StatusNotFound, status)
}

func TestHTTPMacaroonAuth(t *testing.T) {
	env := newTestEnv(t)

	macStore, err := boltsecurestore.NewSecureStorage(t.TempDir(), "macaroons.db")
	require.NoError(t, err)
	require.NoError(t, macStore.CreateUnlock(&testPassword))
	macSvc, err := macaroons.NewService(macStore, "vigild")
	require.NoError(t, err)

	svc, err := NewService(ServiceOpts{
		Address:           "localhost:0",
		Datadir:           t.TempDir(),
		MacaroonsLocation: "macaroons",
		NoTLS:             true,
		OperatorSvc:       env.operatorSvc,
		ScreeningSvc:      env.screeningSvc,
		MacaroonSvc:       macSvc,
	})
	require.NoError(t, err)
	server := newTestServer(t, svc)

	ctx := context.Background()
	adminMac, err := bakeMacaroon(ctx, macSvc, AdminPermissions())
	require.NoError(t, err)
	roMac, err := bakeMacaroon(ctx, macSvc, ReadOnlyPermissions())
	require.NoError(t, err)

	newCurator := "99aabbccddeeff0011223344556677889900aabb"

	// No macaroon, valid signature.
	status, _ := doRequest(
		t, server.URL, http.MethodPost, "/v1/access/curators",
		curatorRequest{Curator: newCurator}, env.ownerKey, "",
	)
	require.Equal(t, http.StatusUnauthorized, status)

	// Read-only macaroon on a write route.
	status, _ = doRequest(
		t, server.URL, http.MethodPost, "/v1/access/curators",
		curatorRequest{Curator: newCurator}, env.ownerKey,
		hex.EncodeToString(roMac),
	)
	require.Equal(t, http.StatusUnauthorized, status)

	// Admin macaroon.
	status, body := doRequest(
		t, server.URL, http.MethodPost, "/v1/access/curators",
		curatorRequest{Curator: newCurator}, env.ownerKey,
		hex.EncodeToString(adminMac),
	)
	require.Equal(t, http.StatusNoContent, status, string(body))

	status, body = doRequest(
		t, server.URL, http.MethodGet, "/v1/access",
		nil, env.ownerKey, hex.EncodeToString(adminMac),
	)
	require.Equal(t, http.StatusOK, status)
	var access accessInfoResponse
	require.NoError(t, json.Unmarshal(body, &access))
	require.Equal(t, env.owner.String(), access.Owner)
	require.Contains(t, access.Curators, newCurator)

	// The macaroon authorizes the route, the signature still rules the
	// registry: a non-owner with the admin macaroon stays unauthorized.
	status, _ = doRequest(
		t, server.URL, http.MethodPost, "/v1/access/curators",
		curatorRequest{Curator: newCurator}, env.userKey,
		hex.EncodeToString(adminMac),
	)
	require.Equal(t, http.StatusForbidden, status)
}

func TestFailingServiceOpts(t *testing.T) {
	env := newTestEnv(t)
	datadir := t.TempDir()

	tests := []struct {
		name string
		opts ServiceOpts
		err  string
	}{
		{
			name: "missing address",
			opts: ServiceOpts{
				Datadir: datadir, NoTLS: true, NoMacaroons: true,
				OperatorSvc: env.operatorSvc, ScreeningSvc: env.screeningSvc,
			},
			err: "listening address must not be empty",
		},
		{
			name: "missing datadir",
			opts: ServiceOpts{
				Address: "localhost:0", Datadir: "/path/to/nowhere",
				NoTLS: true, NoMacaroons: true,
				OperatorSvc: env.operatorSvc, ScreeningSvc: env.screeningSvc,
			},
			err: "datadir must be an existing directory",
		},
		{
			name: "missing macaroon service",
			opts: ServiceOpts{
				Address: "localhost:0", Datadir: datadir, NoTLS: true,
				OperatorSvc: env.operatorSvc, ScreeningSvc: env.screeningSvc,
			},
			err: "macaroon service must not be null",
		},
		{
			name: "missing operator service",
			opts: ServiceOpts{
				Address: "localhost:0", Datadir: datadir,
				NoTLS: true, NoMacaroons: true,
				ScreeningSvc: env.screeningSvc,
			},
			err: "operator app service must not be null",
		},
		{
			name: "missing screening service",
			opts: ServiceOpts{
				Address: "localhost:0", Datadir: datadir,
				NoTLS: true, NoMacaroons: true,
				OperatorSvc: env.operatorSvc,
			},
			err: "screening app service must not be null",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.opts)
			require.Nil(t, svc)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.err)
		})
	}
}

func doRequest(
	t *testing.T, serverURL, method, path string, body interface{},
	key *btcec.PrivateKey, macaroonHex string,
) (int, []byte) {
	var buf []byte
	if body != nil {
		var err error
		buf, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, serverURL+path, bytes.NewReader(buf))
	require.NoError(t, err)
	if macaroonHex != "" {
		req.Header.Set(macaroons.AuthHeader, macaroonHex)
	}
	if key != nil {
		httpauth.SignRequest(req, buf, key)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, resBody
}

func sealField(
	t *testing.T, serverURL string, key *btcec.PrivateKey,
	value uint64, typ string,
) cipherInputRequest {
	status, body := doRequest(
		t, serverURL, http.MethodPost, "/v1/engine/seal",
		sealRequest{Value: strconv.FormatUint(value, 10), Type: typ}, key, "",
	)
	require.Equal(t, http.StatusOK, status, string(body))
	var res sealResponse
	require.NoError(t, json.Unmarshal(body, &res))
	return cipherInputRequest{Blob: res.Blob, Proof: res.Proof}
}

func sealSubject(
	t *testing.T, serverURL string, key *btcec.PrivateKey,
	name string, country uint64, account string,
) subjectRequest {
	return subjectRequest{
		Name: sealField(
			t, serverURL, key, fingerprint.Fingerprint64(name), "uint64",
		),
		Country: sealField(t, serverURL, key, country, "uint32"),
		Account: sealField(
			t, serverURL, key, fingerprint.Fingerprint64(account), "address",
		),
	}
}
