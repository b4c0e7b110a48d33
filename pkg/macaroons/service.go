package macaroons

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/vigil-network/vigil-daemon/pkg/securestore"
	"gopkg.in/macaroon-bakery.v2/bakery"
	macaroon "gopkg.in/macaroon.v2"
)

// RootKeyLen is the length of a macaroon root key.
const RootKeyLen = 32

var (
	// DefaultRootKeyID is the id of the daemon's single macaroon root key.
	DefaultRootKeyID = []byte("0")

	// rootKeyBucketName is the securestore bucket holding the root key.
	rootKeyBucketName = []byte("macaroons")

	// ErrUnknownRootKeyID is returned when the requested root key doesn't
	// exist.
	ErrUnknownRootKeyID = fmt.Errorf("unknown macaroon root key id")
	// ErrMissingRootKey ...
	ErrMissingRootKey = fmt.Errorf("macaroon root key not found")
)

// rootKeyStore implements bakery.RootKeyStore on top of an encrypted
// securestore bucket. A single root key is created lazily at first minting.
type rootKeyStore struct {
	store securestore.SecureStorage

	mtx sync.Mutex
}

func newRootKeyStore(store securestore.SecureStorage) (*rootKeyStore, error) {
	if err := store.CreateBucket(rootKeyBucketName); err != nil {
		return nil, err
	}
	return &rootKeyStore{store: store}, nil
}

// Get returns the root key with the given id.
func (r *rootKeyStore) Get(_ context.Context, id []byte) ([]byte, error) {
	if !bytes.Equal(id, DefaultRootKeyID) {
		return nil, ErrUnknownRootKeyID
	}

	key, err := r.store.GetFromBucket(rootKeyBucketName, id)
	if err != nil {
		return nil, err
	}
	if len(key) <= 0 {
		return nil, ErrMissingRootKey
	}
	return key, nil
}

// RootKey returns the root key to be used for minting new macaroons,
// creating it at first use.
func (r *rootKeyStore) RootKey(_ context.Context) ([]byte, []byte, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	key, err := r.store.GetFromBucket(rootKeyBucketName, DefaultRootKeyID)
	if err != nil {
		return nil, nil, err
	}
	if len(key) <= 0 {
		key = make([]byte, RootKeyLen)
		if _, err := rand.Read(key); err != nil {
			return nil, nil, err
		}
		if err := r.store.AddToBucket(
			rootKeyBucketName, DefaultRootKeyID, key,
		); err != nil {
			return nil, nil, err
		}
	}
	return key, DefaultRootKeyID, nil
}

// Service wraps a bakery with a root key storage and the validation helper
// the daemon's auth middleware relies on.
type Service struct {
	*bakery.Bakery
}

// NewService returns a macaroon service backed by the given secure storage.
// The storage must be unlocked before minting or validating macaroons.
func NewService(
	store securestore.SecureStorage, location string,
) (*Service, error) {
	rks, err := newRootKeyStore(store)
	if err != nil {
		return nil, err
	}

	b := bakery.New(bakery.BakeryParams{
		Location:     location,
		RootKeyStore: rks,
	})
	return &Service{Bakery: b}, nil
}

// NewMacaroon mints a new macaroon authorizing the given operations.
func (s *Service) NewMacaroon(
	ctx context.Context, rootKeyID []byte, ops ...bakery.Op,
) (*bakery.Macaroon, error) {
	if !bytes.Equal(rootKeyID, DefaultRootKeyID) {
		return nil, ErrUnknownRootKeyID
	}
	return s.Oven.NewMacaroon(ctx, bakery.LatestVersion, nil, ops...)
}

// ValidateMacaroon checks that the given serialized macaroon authorizes all
// the required operations.
func (s *Service) ValidateMacaroon(
	ctx context.Context, macBytes []byte, requiredPermissions []bakery.Op,
) error {
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return fmt.Errorf("unable to decode macaroon: %w", err)
	}

	_, err := s.Checker.Auth(macaroon.Slice{mac}).Allow(
		ctx, requiredPermissions...,
	)
	return err
}
