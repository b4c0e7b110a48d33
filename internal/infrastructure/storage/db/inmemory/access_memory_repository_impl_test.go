package inmemory_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/infrastructure/storage/db/inmemory"
)

const (
	ownerParty   = domain.Party("aabbccddeeff00112233445566778899aabbccdd")
	curatorParty = domain.Party("00112233445566778899aabbccddeeff00112233")
)

func TestInitAndUpdateAccessState(t *testing.T) {
	t.Parallel()

	repo := inmemory.NewAccessRepositoryImpl()

	_, err := repo.GetAccessState(ctx)
	require.EqualError(t, err, domain.ErrAccessNotInitialized.Error())

	state, err := domain.NewAccessState(ownerParty)
	require.NoError(t, err)
	require.NoError(t, repo.InitAccessState(ctx, state))

	err = repo.InitAccessState(ctx, state)
	require.EqualError(t, err, domain.ErrAccessAlreadyInitialized.Error())

	err = repo.UpdateAccessState(
		ctx, func(s *domain.AccessState) (*domain.AccessState, error) {
			if err := s.AddCurator(curatorParty); err != nil {
				return nil, err
			}
			return s, nil
		},
	)
	require.NoError(t, err)

	storedState, err := repo.GetAccessState(ctx)
	require.NoError(t, err)
	require.True(t, storedState.IsCurator(curatorParty))

	// Mutating the returned state must not leak into the stored one.
	storedState.Curators[ownerParty] = true
	freshState, err := repo.GetAccessState(ctx)
	require.NoError(t, err)
	require.NotContains(t, freshState.Curators, ownerParty)
}
