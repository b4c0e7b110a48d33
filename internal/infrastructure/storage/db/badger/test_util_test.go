package dbbadger_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
	dbbadger "github.com/vigil-network/vigil-daemon/internal/infrastructure/storage/db/badger"
)

const (
	ownerParty   = domain.Party("aabbccddeeff00112233445566778899aabbccdd")
	curatorParty = domain.Party("00112233445566778899aabbccddeeff00112233")
	otherParty   = domain.Party("ffeeddccbbaa99887766554433221100ffeeddcc")
)

var ctx = context.Background()

func newTestRepoManager(t *testing.T) ports.RepoManager {
	rm, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(rm.Close)
	return rm
}

func mustCiphertext(
	t *testing.T, b string, typ domain.CipherType,
) domain.Ciphertext {
	c, err := domain.NewCiphertext(strings.Repeat(b, 32), typ)
	require.NoError(t, err)
	return c
}

func newTestEntity(t *testing.T, b string) *domain.Entity {
	entity, err := domain.NewEntity(
		mustCiphertext(t, b, domain.CipherTypeUint64),
		mustCiphertext(t, b, domain.CipherTypeUint32),
		mustCiphertext(t, b, domain.CipherTypeAddress),
		mustCiphertext(t, b, domain.CipherTypeBool),
	)
	require.NoError(t, err)
	return entity
}

func newTestCheck(t *testing.T, submitter domain.Party) *domain.Check {
	check, err := domain.NewCheck(
		submitter, mustCiphertext(t, "cc", domain.CipherTypeUint8),
	)
	require.NoError(t, err)
	return check
}
