package dbbadger_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunTransaction(t *testing.T) {
	t.Parallel()

	rm := newTestRepoManager(t)

	id, err := rm.RunTransaction(
		ctx, false, func(txCtx context.Context) (interface{}, error) {
			return rm.EntityRepository().AddEntity(txCtx, newTestEntity(t, "aa"))
		},
	)
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)

	count, err := rm.EntityRepository().GetEntityCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}

func TestRunTransactionRollback(t *testing.T) {
	t.Parallel()

	rm := newTestRepoManager(t)

	expectedErr := fmt.Errorf("something went wrong")
	_, err := rm.RunTransaction(
		ctx, false, func(txCtx context.Context) (interface{}, error) {
			if _, err := rm.EntityRepository().AddEntity(
				txCtx, newTestEntity(t, "aa"),
			); err != nil {
				return nil, err
			}
			return nil, expectedErr
		},
	)
	require.EqualError(t, err, expectedErr.Error())

	// The discarded transaction must leave both records and counter untouched.
	count, err := rm.EntityRepository().GetEntityCount(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}
