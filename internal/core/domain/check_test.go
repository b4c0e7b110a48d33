package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

func TestNewCheck(t *testing.T) {
	t.Parallel()

	status := mustCiphertext("0f", domain.CipherTypeUint8)
	check, err := domain.NewCheck(otherParty, status)
	require.NoError(t, err)
	require.NotNil(t, check)
	require.Zero(t, check.ID)
	require.Equal(t, otherParty, check.Submitter)
	require.Equal(t, status, check.Status)
	require.Greater(t, check.CreatedAt, int64(0))
}

func TestFailingNewCheck(t *testing.T) {
	t.Parallel()

	status := mustCiphertext("0f", domain.CipherTypeUint8)

	tests := []struct {
		name          string
		submitter     domain.Party
		status        domain.Ciphertext
		expectedError error
	}{
		{
			name:          "invalid_submitter",
			submitter:     domain.Party("nobody"),
			status:        status,
			expectedError: domain.ErrInvalidParty,
		},
		{
			name:          "missing_status",
			submitter:     otherParty,
			status:        domain.Ciphertext{},
			expectedError: domain.ErrCheckInvalidStatus,
		},
		{
			name:          "mistyped_status",
			submitter:     otherParty,
			status:        activeCipher,
			expectedError: domain.ErrCheckInvalidStatus,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			check, err := domain.NewCheck(tt.submitter, tt.status)
			require.EqualError(t, err, tt.expectedError.Error())
			require.Nil(t, check)
		})
	}
}

func TestNewGrant(t *testing.T) {
	t.Parallel()

	grant, err := domain.NewGrant(7, curatorParty)
	require.NoError(t, err)
	require.Equal(t, uint64(7), grant.CheckID)
	require.Equal(t, curatorParty, grant.Grantee)
	require.Greater(t, grant.CreatedAt, int64(0))

	_, err = domain.NewGrant(7, domain.Party(""))
	require.EqualError(t, err, domain.ErrInvalidParty.Error())
}
