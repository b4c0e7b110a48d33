package softengine

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/thanhpk/randstr"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/pkg/securestore"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	rootKeySize = 32
	nonceSize   = 24
	recordSize  = 9

	// systemParty is the capability slot reserved for the daemon itself.
	systemParty = "system"
)

var (
	valuesBucket = []byte("values")
	aclBucket    = []byte("acl")
	engineBucket = []byte("engine")
	rootKeyKey   = []byte("root")
)

// Engine is the embedded encryption provider. Plaintexts live only inside
// the password-locked vault, callers exchange opaque handles. Input blobs
// are sealed with the engine root key, so only blobs produced by SealInput
// pass verification.
//
// Every exported operation bumps a single operation counter whatever the
// underlying plaintexts are, which lets tests assert that traces depend
// only on the public shape of a computation.
type Engine struct {
	store securestore.SecureStorage

	lock    *sync.Mutex
	rootKey [rootKeySize]byte
	opCount uint64
}

// NewEngine returns an Engine backed by the given unlocked vault. The
// engine root key is created on first use and reloaded afterwards.
func NewEngine(store securestore.SecureStorage) (*Engine, error) {
	if store.IsLocked() {
		return nil, ErrLockedVault
	}

	for _, bucket := range [][]byte{valuesBucket, aclBucket, engineBucket} {
		if err := store.CreateBucket(bucket); err != nil {
			return nil, err
		}
	}

	key, err := store.GetFromBucket(engineBucket, rootKeyKey)
	if err != nil {
		return nil, err
	}
	if key == nil {
		key = make([]byte, rootKeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		if err := store.AddToBucket(engineBucket, rootKeyKey, key); err != nil {
			return nil, err
		}
	}
	if len(key) != rootKeySize {
		return nil, fmt.Errorf("malformed engine root key")
	}

	engine := &Engine{store: store, lock: &sync.Mutex{}}
	copy(engine.rootKey[:], key)
	return engine, nil
}

// SealInput produces a blob/proof pair for the given plaintext, bound to
// the declared type and the sealing party. This is the client-side half of
// VerifyInput, exposed for tooling and tests.
func (e *Engine) SealInput(
	value uint64, typ domain.CipherType, party domain.Party,
) ([]byte, []byte, error) {
	if err := validateValue(value, typ); err != nil {
		return nil, nil, err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, nil, err
	}

	blob := secretbox.Seal(nonce[:], encodeRecord(typ, value), &nonce, &e.rootKey)
	return blob, e.proofFor(blob, typ, party), nil
}

func (e *Engine) VerifyInput(
	_ context.Context,
	blob, proof []byte, party domain.Party, typ domain.CipherType,
) (domain.Ciphertext, error) {
	e.bumpOpCount()
	e.lock.Lock()
	defer e.lock.Unlock()

	if !hmac.Equal(proof, e.proofFor(blob, typ, party)) {
		return domain.Ciphertext{}, domain.ErrInvalidCiphertext
	}

	if len(blob) <= nonceSize {
		return domain.Ciphertext{}, domain.ErrInvalidCiphertext
	}
	var nonce [nonceSize]byte
	copy(nonce[:], blob[:nonceSize])
	record, ok := secretbox.Open(nil, blob[nonceSize:], &nonce, &e.rootKey)
	if !ok {
		return domain.Ciphertext{}, domain.ErrInvalidCiphertext
	}

	sealedType, value, err := decodeRecord(record)
	if err != nil || sealedType != typ {
		return domain.Ciphertext{}, domain.ErrInvalidCiphertext
	}

	// Re-verifying the same blob mints the same handle.
	sum := sha256.Sum256(blob)
	handle := hex.EncodeToString(sum[:])
	if err := e.storeValue(handle, typ, value); err != nil {
		return domain.Ciphertext{}, err
	}

	return domain.NewCiphertext(handle, typ)
}

func (e *Engine) Lift(
	_ context.Context, value uint64, typ domain.CipherType,
) (domain.Ciphertext, error) {
	e.bumpOpCount()
	e.lock.Lock()
	defer e.lock.Unlock()

	if err := validateValue(value, typ); err != nil {
		return domain.Ciphertext{}, err
	}

	return e.newValue(typ, value)
}

func (e *Engine) Eq(
	_ context.Context, a, b domain.Ciphertext,
) (domain.Ciphertext, error) {
	e.bumpOpCount()
	e.lock.Lock()
	defer e.lock.Unlock()

	if a.Type != b.Type {
		return domain.Ciphertext{}, ErrTypeMismatch
	}
	va, err := e.valueOf(a)
	if err != nil {
		return domain.Ciphertext{}, err
	}
	vb, err := e.valueOf(b)
	if err != nil {
		return domain.Ciphertext{}, err
	}

	var res uint64
	if va == vb {
		res = 1
	}
	return e.newValue(domain.CipherTypeBool, res)
}

func (e *Engine) And(
	_ context.Context, a, b domain.Ciphertext,
) (domain.Ciphertext, error) {
	e.bumpOpCount()
	e.lock.Lock()
	defer e.lock.Unlock()

	va, vb, err := e.boolOperands(a, b)
	if err != nil {
		return domain.Ciphertext{}, err
	}
	return e.newValue(domain.CipherTypeBool, va&vb)
}

func (e *Engine) Or(
	_ context.Context, a, b domain.Ciphertext,
) (domain.Ciphertext, error) {
	e.bumpOpCount()
	e.lock.Lock()
	defer e.lock.Unlock()

	va, vb, err := e.boolOperands(a, b)
	if err != nil {
		return domain.Ciphertext{}, err
	}
	return e.newValue(domain.CipherTypeBool, va|vb)
}

func (e *Engine) Select(
	_ context.Context, cond, ifTrue, ifFalse domain.Ciphertext,
) (domain.Ciphertext, error) {
	e.bumpOpCount()
	e.lock.Lock()
	defer e.lock.Unlock()

	if cond.Type != domain.CipherTypeBool {
		return domain.Ciphertext{}, ErrTypeMismatch
	}
	if ifTrue.Type != ifFalse.Type {
		return domain.Ciphertext{}, ErrTypeMismatch
	}
	vc, err := e.valueOf(cond)
	if err != nil {
		return domain.Ciphertext{}, err
	}
	vt, err := e.valueOf(ifTrue)
	if err != nil {
		return domain.Ciphertext{}, err
	}
	vf, err := e.valueOf(ifFalse)
	if err != nil {
		return domain.Ciphertext{}, err
	}

	// Branch-free multiplex, both operands are always read.
	res := vc*vt + (1-vc)*vf
	return e.newValue(ifTrue.Type, res)
}

func (e *Engine) Allow(
	_ context.Context, c domain.Ciphertext, party domain.Party,
) error {
	e.bumpOpCount()
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.allow(c, party.String())
}

func (e *Engine) AllowSystem(_ context.Context, c domain.Ciphertext) error {
	e.bumpOpCount()
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.allow(c, systemParty)
}

func (e *Engine) Reveal(
	_ context.Context, c domain.Ciphertext, party domain.Party,
) (uint64, error) {
	e.bumpOpCount()
	e.lock.Lock()
	defer e.lock.Unlock()

	value, err := e.valueOf(c)
	if err != nil {
		return 0, err
	}

	granted, err := e.store.GetFromBucket(aclBucket, aclKey(c, party.String()))
	if err != nil {
		return 0, err
	}
	if granted == nil {
		return 0, domain.ErrUnauthorized
	}

	return value, nil
}

func (e *Engine) Close() {
	e.store.Close()
}

// OpCount returns the number of operations performed so far.
func (e *Engine) OpCount() uint64 {
	return atomic.LoadUint64(&e.opCount)
}

func (e *Engine) bumpOpCount() {
	atomic.AddUint64(&e.opCount, 1)
}

func (e *Engine) proofFor(
	blob []byte, typ domain.CipherType, party domain.Party,
) []byte {
	mac := hmac.New(sha256.New, e.rootKey[:])
	mac.Write(blob)
	mac.Write([]byte{byte(typ)})
	mac.Write([]byte(party))
	return mac.Sum(nil)
}

func (e *Engine) allow(c domain.Ciphertext, slot string) error {
	if _, err := e.valueOf(c); err != nil {
		return err
	}
	return e.store.AddToBucket(aclBucket, aclKey(c, slot), []byte{1})
}

func aclKey(c domain.Ciphertext, slot string) []byte {
	return []byte(fmt.Sprintf("%s/%s", c.Handle, slot))
}

func (e *Engine) boolOperands(a, b domain.Ciphertext) (uint64, uint64, error) {
	if a.Type != domain.CipherTypeBool || b.Type != domain.CipherTypeBool {
		return 0, 0, ErrTypeMismatch
	}
	va, err := e.valueOf(a)
	if err != nil {
		return 0, 0, err
	}
	vb, err := e.valueOf(b)
	if err != nil {
		return 0, 0, err
	}
	return va, vb, nil
}

func (e *Engine) newValue(
	typ domain.CipherType, value uint64,
) (domain.Ciphertext, error) {
	handle := randstr.Hex(domain.HandleLength)
	if err := e.storeValue(handle, typ, value); err != nil {
		return domain.Ciphertext{}, err
	}
	return domain.NewCiphertext(handle, typ)
}

func (e *Engine) storeValue(
	handle string, typ domain.CipherType, value uint64,
) error {
	return e.store.AddToBucket(
		valuesBucket, []byte(handle), encodeRecord(typ, value),
	)
}

func (e *Engine) valueOf(c domain.Ciphertext) (uint64, error) {
	record, err := e.store.GetFromBucket(valuesBucket, []byte(c.Handle))
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, ErrUnknownHandle
	}
	typ, value, err := decodeRecord(record)
	if err != nil {
		return 0, err
	}
	if typ != c.Type {
		return 0, ErrTypeMismatch
	}
	return value, nil
}

func encodeRecord(typ domain.CipherType, value uint64) []byte {
	record := make([]byte, recordSize)
	record[0] = byte(typ)
	binary.BigEndian.PutUint64(record[1:], value)
	return record
}

func decodeRecord(record []byte) (domain.CipherType, uint64, error) {
	if len(record) != recordSize {
		return 0, 0, fmt.Errorf("malformed value record")
	}
	return domain.CipherType(record[0]), binary.BigEndian.Uint64(record[1:]), nil
}

func validateValue(value uint64, typ domain.CipherType) error {
	switch typ {
	case domain.CipherTypeBool:
		if value > 1 {
			return ErrValueOutOfRange
		}
	case domain.CipherTypeUint8:
		if value > math.MaxUint8 {
			return ErrValueOutOfRange
		}
	case domain.CipherTypeUint32:
		if value > math.MaxUint32 {
			return ErrValueOutOfRange
		}
	}
	return nil
}
