package macaroons_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/pkg/macaroons"
	boltsecurestore "github.com/vigil-network/vigil-daemon/pkg/securestore/bolt"
	"gopkg.in/macaroon-bakery.v2/bakery"
)

var testPermissions = []bakery.Op{
	{Entity: "watchlist", Action: "write"},
	{Entity: "watchlist", Action: "read"},
}

func TestMintAndValidateMacaroon(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mac, err := svc.NewMacaroon(ctx, macaroons.DefaultRootKeyID, testPermissions...)
	require.NoError(t, err)
	require.NotNil(t, mac)

	macBytes, err := mac.M().MarshalBinary()
	require.NoError(t, err)

	err = svc.ValidateMacaroon(ctx, macBytes, testPermissions)
	require.NoError(t, err)

	// a subset of the minted permissions is allowed as well
	err = svc.ValidateMacaroon(ctx, macBytes, testPermissions[:1])
	require.NoError(t, err)
}

func TestFailingValidateMacaroon(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mac, err := svc.NewMacaroon(
		ctx, macaroons.DefaultRootKeyID, testPermissions[1],
	)
	require.NoError(t, err)

	macBytes, err := mac.M().MarshalBinary()
	require.NoError(t, err)

	t.Run("permission not covered", func(t *testing.T) {
		err := svc.ValidateMacaroon(ctx, macBytes, []bakery.Op{
			{Entity: "access", Action: "write"},
		})
		require.Error(t, err)
	})

	t.Run("garbage macaroon", func(t *testing.T) {
		err := svc.ValidateMacaroon(ctx, []byte("not a macaroon"), testPermissions)
		require.Error(t, err)
	})

	t.Run("tampered macaroon", func(t *testing.T) {
		tampered := make([]byte, len(macBytes))
		copy(tampered, macBytes)
		tampered[len(tampered)-1] ^= 0xff
		err := svc.ValidateMacaroon(ctx, tampered, testPermissions[1:])
		require.Error(t, err)
	})
}

func TestFailingNewMacaroon(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.NewMacaroon(
		context.Background(), []byte("42"), testPermissions...,
	)
	require.EqualError(t, err, macaroons.ErrUnknownRootKeyID.Error())
}

func newTestService(t *testing.T) *macaroons.Service {
	store, err := boltsecurestore.NewSecureStorage(t.TempDir(), "macaroons.db")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	password := []byte("password")
	require.NoError(t, store.CreateUnlock(&password))

	svc, err := macaroons.NewService(store, "vigild")
	require.NoError(t, err)
	return svc
}
