package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

func TestNewCiphertext(t *testing.T) {
	t.Parallel()

	handle := strings.Repeat("Ab", 32)
	c, err := domain.NewCiphertext(handle, domain.CipherTypeUint64)
	require.NoError(t, err)
	require.Equal(t, strings.ToLower(handle), c.Handle)
	require.Equal(t, domain.CipherTypeUint64, c.Type)
	require.False(t, c.IsZero())
	require.True(t, domain.Ciphertext{}.IsZero())
}

func TestFailingNewCiphertext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		handle        string
		typ           domain.CipherType
		expectedError error
	}{
		{
			name:          "empty_handle",
			handle:        "",
			typ:           domain.CipherTypeBool,
			expectedError: domain.ErrInvalidHandle,
		},
		{
			name:          "short_handle",
			handle:        "aabbcc",
			typ:           domain.CipherTypeBool,
			expectedError: domain.ErrInvalidHandle,
		},
		{
			name:          "non_hex_handle",
			handle:        strings.Repeat("zz", 32),
			typ:           domain.CipherTypeBool,
			expectedError: domain.ErrInvalidHandle,
		},
		{
			name:          "unknown_type",
			handle:        strings.Repeat("aa", 32),
			typ:           domain.CipherType(42),
			expectedError: domain.ErrInvalidCipherType,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := domain.NewCiphertext(tt.handle, tt.typ)
			require.EqualError(t, err, tt.expectedError.Error())
		})
	}
}

func TestParseCipherType(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"bool", "uint8", "uint32", "uint64", "address"} {
		typ, err := domain.ParseCipherType(name)
		require.NoError(t, err)
		require.Equal(t, name, typ.String())
	}

	_, err := domain.ParseCipherType("uint128")
	require.EqualError(t, err, domain.ErrInvalidCipherType.Error())
}

func TestParseParty(t *testing.T) {
	t.Parallel()

	party, err := domain.ParseParty("AABBCCDDEEFF00112233445566778899AABBCCDD")
	require.NoError(t, err)
	require.Equal(t, "aabbccddeeff00112233445566778899aabbccdd", party.String())

	_, err = domain.ParseParty("aabb")
	require.EqualError(t, err, domain.ErrInvalidParty.Error())
}
