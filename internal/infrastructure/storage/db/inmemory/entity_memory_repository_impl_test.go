package inmemory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/infrastructure/storage/db/inmemory"
)

var ctx = context.Background()

func TestAddAndUpdateEntity(t *testing.T) {
	t.Parallel()

	repo := inmemory.NewEntityRepositoryImpl()

	for i := 0; i < 3; i++ {
		id, err := repo.AddEntity(ctx, newTestEntity(t, "aa"))
		require.NoError(t, err)
		require.Equal(t, uint64(i), id)
	}

	count, err := repo.GetEntityCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)

	entities, err := repo.GetAllEntities(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 3)
	for i, e := range entities {
		require.Equal(t, uint64(i), e.ID)
	}

	newActive := mustCiphertext(t, "bb", domain.CipherTypeBool)
	err = repo.UpdateEntity(
		ctx, 1, func(e *domain.Entity) (*domain.Entity, error) {
			if err := e.UpdateActiveFlag(newActive); err != nil {
				return nil, err
			}
			return e, nil
		},
	)
	require.NoError(t, err)

	entity, err := repo.GetEntity(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, newActive, entity.Active)

	_, err = repo.GetEntity(ctx, 3)
	require.EqualError(t, err, domain.ErrEntityNotFound.Error())
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
