package dbbadger_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

func TestCheckRepository(t *testing.T) {
	t.Parallel()

	repo := newTestRepoManager(t).CheckRepository()

	count, err := repo.GetCheckCount(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	for i, submitter := range []domain.Party{ownerParty, otherParty} {
		id, err := repo.AddCheck(ctx, newTestCheck(t, submitter))
		require.NoError(t, err)
		require.Equal(t, uint64(i), id)
	}

	count, err = repo.GetCheckCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	check, err := repo.GetCheck(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), check.ID)
	require.Equal(t, otherParty, check.Submitter)

	_, err = repo.GetCheck(ctx, 2)
	require.EqualError(t, err, domain.ErrCheckNotFound.Error())

	checks, err := repo.GetAllChecks(ctx)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	for i, c := range checks {
		require.Equal(t, uint64(i), c.ID)
	}
}
