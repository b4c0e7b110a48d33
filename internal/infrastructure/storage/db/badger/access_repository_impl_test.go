package dbbadger_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

func TestAccessRepository(t *testing.T) {
	t.Parallel()

	repo := newTestRepoManager(t).AccessRepository()

	_, err := repo.GetAccessState(ctx)
	require.EqualError(t, err, domain.ErrAccessNotInitialized.Error())

	state, err := domain.NewAccessState(ownerParty)
	require.NoError(t, err)

	err = repo.InitAccessState(ctx, state)
	require.NoError(t, err)

	err = repo.InitAccessState(ctx, state)
	require.EqualError(t, err, domain.ErrAccessAlreadyInitialized.Error())

	storedState, err := repo.GetAccessState(ctx)
	require.NoError(t, err)
	require.Equal(t, ownerParty, storedState.Owner)
	require.True(t, storedState.IsCurator(ownerParty))
	require.False(t, storedState.IsCurator(curatorParty))

	err = repo.UpdateAccessState(
		ctx, func(s *domain.AccessState) (*domain.AccessState, error) {
			if err := s.AddCurator(curatorParty); err != nil {
				return nil, err
			}
			return s, nil
		},
	)
	require.NoError(t, err)

	storedState, err = repo.GetAccessState(ctx)
	require.NoError(t, err)
	require.True(t, storedState.IsCurator(curatorParty))
}

func TestFailingUpdateAccessState(t *testing.T) {
	t.Parallel()

	repo := newTestRepoManager(t).AccessRepository()

	state, err := domain.NewAccessState(ownerParty)
	require.NoError(t, err)
	require.NoError(t, repo.InitAccessState(ctx, state))

	err = repo.UpdateAccessState(
		ctx, func(s *domain.AccessState) (*domain.AccessState, error) {
			return nil, domain.ErrUnauthorized
		},
	)
	require.EqualError(t, err, domain.ErrUnauthorized.Error())

	storedState, err := repo.GetAccessState(ctx)
	require.NoError(t, err)
	require.Equal(t, ownerParty, storedState.Owner)
	require.Empty(t, storedState.Curators)
}
