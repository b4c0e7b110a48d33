package dbbadger_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

func TestEntityRepository(t *testing.T) {
	t.Parallel()

	repo := newTestRepoManager(t).EntityRepository()

	count, err := repo.GetEntityCount(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	for i, b := range []string{"aa", "bb", "cc"} {
		id, err := repo.AddEntity(ctx, newTestEntity(t, b))
		require.NoError(t, err)
		require.Equal(t, uint64(i), id)
	}

	count, err = repo.GetEntityCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)

	entity, err := repo.GetEntity(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), entity.ID)

	_, err = repo.GetEntity(ctx, 3)
	require.EqualError(t, err, domain.ErrEntityNotFound.Error())

	entities, err := repo.GetAllEntities(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 3)
	for i, e := range entities {
		require.Equal(t, uint64(i), e.ID)
	}
}

func TestUpdateEntity(t *testing.T) {
	t.Parallel()

	repo := newTestRepoManager(t).EntityRepository()

	id, err := repo.AddEntity(ctx, newTestEntity(t, "aa"))
	require.NoError(t, err)

	newActive := mustCiphertext(t, "dd", domain.CipherTypeBool)
	err = repo.UpdateEntity(
		ctx, id, func(e *domain.Entity) (*domain.Entity, error) {
			if err := e.UpdateActiveFlag(newActive); err != nil {
				return nil, err
			}
			return e, nil
		},
	)
	require.NoError(t, err)

	entity, err := repo.GetEntity(ctx, id)
	require.NoError(t, err)
	require.Equal(t, newActive, entity.Active)

	err = repo.UpdateEntity(
		ctx, id+1, func(e *domain.Entity) (*domain.Entity, error) {
			return e, nil
		},
	)
	require.EqualError(t, err, domain.ErrEntityNotFound.Error())
}
