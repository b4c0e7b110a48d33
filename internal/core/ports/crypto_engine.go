package ports

import (
	"context"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

// CryptoEngine is the external encryption provider the daemon consumes to
// operate on confidential values. Implementations never disclose a
// plaintext to the daemon: every operation takes and returns stable
// handles, decryption happens only through Reveal for parties holding the
// capability.
//
// The count and sequence of operations an implementation performs must
// depend only on the number and types of the operands, never on the
// underlying plaintexts.
//
// A failed proof verification is reported as domain.ErrInvalidCiphertext,
// a refused decryption as domain.ErrUnauthorized.
type CryptoEngine interface {
	// VerifyInput validates an externally produced ciphertext against its
	// validity proof, checking it was sealed by the given party with the
	// declared type, and mints a durable handle for it.
	VerifyInput(
		ctx context.Context,
		blob, proof []byte, party domain.Party, typ domain.CipherType,
	) (domain.Ciphertext, error)
	// Lift encrypts a public constant into a fresh confidential value.
	Lift(
		ctx context.Context, value uint64, typ domain.CipherType,
	) (domain.Ciphertext, error)
	// Eq compares two confidential values of the same type, yielding a
	// confidential bool.
	Eq(ctx context.Context, a, b domain.Ciphertext) (domain.Ciphertext, error)
	// And computes the confidential conjunction of two confidential bools.
	And(ctx context.Context, a, b domain.Ciphertext) (domain.Ciphertext, error)
	// Or computes the confidential disjunction of two confidential bools.
	Or(ctx context.Context, a, b domain.Ciphertext) (domain.Ciphertext, error)
	// Select yields ifTrue or ifFalse depending on the confidential cond.
	// It is a pure confidential multiplexer, never a branch.
	Select(
		ctx context.Context, cond, ifTrue, ifFalse domain.Ciphertext,
	) (domain.Ciphertext, error)
	// Allow grants the party durable decrypt capability over the value.
	Allow(ctx context.Context, c domain.Ciphertext, party domain.Party) error
	// AllowSystem grants the daemon itself durable compute capability over
	// the value so it stays usable across future calls and restarts.
	AllowSystem(ctx context.Context, c domain.Ciphertext) error
	// Reveal decrypts the value for a party holding decrypt capability.
	Reveal(
		ctx context.Context, c domain.Ciphertext, party domain.Party,
	) (uint64, error)
	// Close gracefully shuts down the connection with the provider.
	Close()
}
