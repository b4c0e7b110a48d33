package softengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	softengine "github.com/vigil-network/vigil-daemon/internal/infrastructure/crypto-engine/soft"
	"github.com/vigil-network/vigil-daemon/pkg/securestore"
	boltsecurestore "github.com/vigil-network/vigil-daemon/pkg/securestore/bolt"
)

const testParty = domain.Party("aabbccddeeff00112233445566778899aabbccdd")

var (
	ctx      = context.Background()
	password = []byte("password")
)

func TestSealAndVerifyInput(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)

	blob, proof, err := engine.SealInput(42, domain.CipherTypeUint64, testParty)
	require.NoError(t, err)

	ct, err := engine.VerifyInput(
		ctx, blob, proof, testParty, domain.CipherTypeUint64,
	)
	require.NoError(t, err)
	require.Equal(t, domain.CipherTypeUint64, ct.Type)

	// Same blob mints the same handle.
	sameCt, err := engine.VerifyInput(
		ctx, blob, proof, testParty, domain.CipherTypeUint64,
	)
	require.NoError(t, err)
	require.Equal(t, ct.Handle, sameCt.Handle)

	_, err = engine.Reveal(ctx, ct, testParty)
	require.EqualError(t, err, domain.ErrUnauthorized.Error())

	require.NoError(t, engine.Allow(ctx, ct, testParty))

	value, err := engine.Reveal(ctx, ct, testParty)
	require.NoError(t, err)
	require.Equal(t, uint64(42), value)
}

func TestFailingVerifyInput(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)

	blob, proof, err := engine.SealInput(42, domain.CipherTypeUint64, testParty)
	require.NoError(t, err)

	tests := []struct {
		name  string
		blob  []byte
		proof []byte
		party domain.Party
		typ   domain.CipherType
	}{
		{
			name:  "tampered proof",
			blob:  blob,
			proof: flipLastByte(proof),
			party: testParty,
			typ:   domain.CipherTypeUint64,
		},
		{
			name:  "tampered blob",
			blob:  flipLastByte(blob),
			proof: proof,
			party: testParty,
			typ:   domain.CipherTypeUint64,
		},
		{
			name:  "wrong party",
			blob:  blob,
			proof: proof,
			party: domain.Party("ffeeddccbbaa99887766554433221100ffeeddcc"),
			typ:   domain.CipherTypeUint64,
		},
		{
			name:  "wrong declared type",
			blob:  blob,
			proof: proof,
			party: testParty,
			typ:   domain.CipherTypeUint32,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.VerifyInput(ctx, tt.blob, tt.proof, tt.party, tt.typ)
			require.EqualError(t, err, domain.ErrInvalidCiphertext.Error())
		})
	}
}

func TestConfidentialOps(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)

	lift := func(value uint64, typ domain.CipherType) domain.Ciphertext {
		ct, err := engine.Lift(ctx, value, typ)
		require.NoError(t, err)
		return ct
	}

	a := lift(12345, domain.CipherTypeUint64)
	b := lift(12345, domain.CipherTypeUint64)
	c := lift(999, domain.CipherTypeUint64)

	eqAB, err := engine.Eq(ctx, a, b)
	require.NoError(t, err)
	require.Equal(t, domain.CipherTypeBool, eqAB.Type)
	require.Equal(t, uint64(1), revealAs(t, engine, eqAB))

	eqAC, err := engine.Eq(ctx, a, c)
	require.NoError(t, err)
	require.Equal(t, uint64(0), revealAs(t, engine, eqAC))

	and, err := engine.And(ctx, eqAB, eqAC)
	require.NoError(t, err)
	require.Equal(t, uint64(0), revealAs(t, engine, and))

	or, err := engine.Or(ctx, eqAB, eqAC)
	require.NoError(t, err)
	require.Equal(t, uint64(1), revealAs(t, engine, or))

	ifTrue := lift(1, domain.CipherTypeUint8)
	ifFalse := lift(0, domain.CipherTypeUint8)

	sel, err := engine.Select(ctx, eqAB, ifTrue, ifFalse)
	require.NoError(t, err)
	require.Equal(t, domain.CipherTypeUint8, sel.Type)
	require.Equal(t, uint64(1), revealAs(t, engine, sel))

	sel, err = engine.Select(ctx, eqAC, ifTrue, ifFalse)
	require.NoError(t, err)
	require.Equal(t, uint64(0), revealAs(t, engine, sel))
}

func TestFailingConfidentialOps(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)

	u64, err := engine.Lift(ctx, 1, domain.CipherTypeUint64)
	require.NoError(t, err)
	u32, err := engine.Lift(ctx, 1, domain.CipherTypeUint32)
	require.NoError(t, err)
	boolean, err := engine.Lift(ctx, 1, domain.CipherTypeBool)
	require.NoError(t, err)

	_, err = engine.Eq(ctx, u64, u32)
	require.EqualError(t, err, softengine.ErrTypeMismatch.Error())

	_, err = engine.And(ctx, boolean, u64)
	require.EqualError(t, err, softengine.ErrTypeMismatch.Error())

	_, err = engine.Select(ctx, u64, boolean, boolean)
	require.EqualError(t, err, softengine.ErrTypeMismatch.Error())

	_, err = engine.Lift(ctx, 2, domain.CipherTypeBool)
	require.EqualError(t, err, softengine.ErrValueOutOfRange.Error())

	unknown, err := domain.NewCiphertext(
		"00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff",
		domain.CipherTypeUint64,
	)
	require.NoError(t, err)

	_, err = engine.Eq(ctx, unknown, u64)
	require.EqualError(t, err, softengine.ErrUnknownHandle.Error())
}

func TestUniformOpCount(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)

	// The same public shape of computation must cost the same number of
	// operations whatever the plaintexts are.
	run := func(x, y uint64) uint64 {
		start := engine.OpCount()

		a, err := engine.Lift(ctx, x, domain.CipherTypeUint64)
		require.NoError(t, err)
		b, err := engine.Lift(ctx, y, domain.CipherTypeUint64)
		require.NoError(t, err)
		eq, err := engine.Eq(ctx, a, b)
		require.NoError(t, err)
		one, err := engine.Lift(ctx, 1, domain.CipherTypeUint8)
		require.NoError(t, err)
		zero, err := engine.Lift(ctx, 0, domain.CipherTypeUint8)
		require.NoError(t, err)
		_, err = engine.Select(ctx, eq, one, zero)
		require.NoError(t, err)

		return engine.OpCount() - start
	}

	matching := run(7, 7)
	nonMatching := run(7, 8)
	require.Equal(t, matching, nonMatching)
}

func TestEngineReload(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	store := newTestStore(t, dbDir)
	engine, err := softengine.NewEngine(store)
	require.NoError(t, err)

	blob, proof, err := engine.SealInput(7, domain.CipherTypeUint8, testParty)
	require.NoError(t, err)

	ct, err := engine.VerifyInput(
		ctx, blob, proof, testParty, domain.CipherTypeUint8,
	)
	require.NoError(t, err)
	require.NoError(t, engine.Allow(ctx, ct, testParty))

	engine.Close()

	// Reopening the vault must preserve the root key, values and grants.
	store = newTestStore(t, dbDir)
	engine, err = softengine.NewEngine(store)
	require.NoError(t, err)
	defer engine.Close()

	sameCt, err := engine.VerifyInput(
		ctx, blob, proof, testParty, domain.CipherTypeUint8,
	)
	require.NoError(t, err)
	require.Equal(t, ct.Handle, sameCt.Handle)

	value, err := engine.Reveal(ctx, ct, testParty)
	require.NoError(t, err)
	require.Equal(t, uint64(7), value)
}

func revealAs(
	t *testing.T, engine *softengine.Engine, ct domain.Ciphertext,
) uint64 {
	require.NoError(t, engine.Allow(ctx, ct, testParty))
	value, err := engine.Reveal(ctx, ct, testParty)
	require.NoError(t, err)
	return value
}

func newTestEngine(t *testing.T) *softengine.Engine {
	engine, err := softengine.NewEngine(newTestStore(t, t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine
}

func newTestStore(t *testing.T, dbDir string) securestore.SecureStorage {
	store, err := boltsecurestore.NewSecureStorage(dbDir, "engine.db")
	require.NoError(t, err)
	require.NoError(t, store.CreateUnlock(&password))
	return store
}

func flipLastByte(buf []byte) []byte {
	flipped := make([]byte, len(buf))
	copy(flipped, buf)
	flipped[len(flipped)-1] ^= 0xff
	return flipped
}
