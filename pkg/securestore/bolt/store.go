package boltsecurestore

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vigil-network/vigil-daemon/pkg/securestore"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt cost parameters for deriving the encryption key from the
	// password.
	scryptN = 32768
	scryptR = 8
	scryptP = 1

	keySize   = 32
	saltSize  = 32
	nonceSize = 24

	dbTimeout = 60 * time.Second
)

var (
	// RootKeyBucketName is the name of the top level bucket holding every
	// nested bucket and the encryption key material.
	RootKeyBucketName = []byte("root")

	// encryptionKeyID is the name of the database key that stores the
	// encryption key material: salt, scrypt costs and a password verifier.
	encryptionKeyID = []byte("enckey")

	// keyVerifier is sealed with the derived key at creation time so that
	// later unlocks can tell a wrong password apart from corrupted data.
	keyVerifier = []byte("securestore")
)

// secretKey is a secretbox encryption key derived from a password with
// scrypt.
type secretKey struct {
	key     [keySize]byte
	salt    [saltSize]byte
	n, r, p uint32
}

func newSecretKey(password *[]byte) (*secretKey, error) {
	sk := &secretKey{n: scryptN, r: scryptR, p: scryptP}
	if _, err := rand.Read(sk.salt[:]); err != nil {
		return nil, err
	}
	if err := sk.derive(password); err != nil {
		return nil, err
	}
	return sk, nil
}

// unmarshalSecretKey rebuilds the key from its stored material and the
// given password. A password not matching the stored verifier yields
// ErrInvalidPassword.
func unmarshalSecretKey(data []byte, password *[]byte) (*secretKey, error) {
	if len(data) < saltSize+12+nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("malformed encryption key material")
	}

	sk := &secretKey{}
	copy(sk.salt[:], data[:saltSize])
	sk.n = binary.BigEndian.Uint32(data[saltSize:])
	sk.r = binary.BigEndian.Uint32(data[saltSize+4:])
	sk.p = binary.BigEndian.Uint32(data[saltSize+8:])

	if err := sk.derive(password); err != nil {
		return nil, err
	}
	if _, err := sk.decrypt(data[saltSize+12:]); err != nil {
		return nil, ErrInvalidPassword
	}
	return sk, nil
}

func (sk *secretKey) derive(password *[]byte) error {
	key, err := scrypt.Key(
		*password, sk.salt[:], int(sk.n), int(sk.r), int(sk.p), keySize,
	)
	if err != nil {
		return err
	}
	copy(sk.key[:], key)
	zeroBytes(key)
	return nil
}

func (sk *secretKey) marshal() ([]byte, error) {
	verifier, err := sk.encrypt(keyVerifier)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, saltSize+12, saltSize+12+len(verifier))
	copy(buf, sk.salt[:])
	binary.BigEndian.PutUint32(buf[saltSize:], sk.n)
	binary.BigEndian.PutUint32(buf[saltSize+4:], sk.r)
	binary.BigEndian.PutUint32(buf[saltSize+8:], sk.p)
	return append(buf, verifier...), nil
}

func (sk *secretKey) encrypt(value []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], value, &nonce, &sk.key), nil
}

func (sk *secretKey) decrypt(data []byte) ([]byte, error) {
	if len(data) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("encrypted value too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])
	value, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &sk.key)
	if !ok {
		return nil, fmt.Errorf("unable to decrypt value")
	}
	return value, nil
}

func (sk *secretKey) zero() {
	zeroBytes(sk.key[:])
}

func zeroBytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

type boltSecureStorage struct {
	db *bolt.DB

	encKeyMtx sync.RWMutex
	encKey    *secretKey
}

// NewSecureStorage creates a bolt instance of the SecureStorage interface.
func NewSecureStorage(datadir, filename string) (securestore.SecureStorage, error) {
	if _, err := os.Stat(datadir); os.IsNotExist(err) {
		if err := os.MkdirAll(datadir, os.ModeDir|0755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(
		filepath.Join(datadir, filename), 0600, &bolt.Options{Timeout: dbTimeout},
	)
	if err != nil {
		return nil, err
	}

	// If the store's bucket doesn't exist, create it.
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(RootKeyBucketName)
		return err
	}); err != nil {
		return nil, err
	}

	return &boltSecureStorage{db: db}, nil
}

// IsLocked returns whether the store is locked by checking if the encryption
// key is stored in-memory.
func (s *boltSecureStorage) IsLocked() bool {
	return s.encKey == nil
}

// Lock eventually locks the store by flushing the in-memory encryption key.
func (s *boltSecureStorage) Lock() {
	if !s.IsLocked() {
		s.encKey.zero()
		s.encKey = nil
	}
}

// CreateUnlock sets an encryption key if one is not already set, otherwise it
// checks that the password matches the stored encryption key material.
func (s *boltSecureStorage) CreateUnlock(password *[]byte) error {
	if !s.IsLocked() {
		return nil
	}

	if password == nil {
		return ErrPasswordRequired
	}

	s.encKeyMtx.Lock()
	defer s.encKeyMtx.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootKeyBucketName)
		if bucket == nil {
			return ErrRootKeyBucketNotFound
		}

		dbKey := bucket.Get(encryptionKeyID)
		if len(dbKey) > 0 {
			// Key material is already stored, try to unlock with the password.
			encKey, err := unmarshalSecretKey(dbKey, password)
			if err != nil {
				return err
			}
			s.encKey = encKey
			return nil
		}

		// The encryption key is not yet stored, create a new one.
		encKey, err := newSecretKey(password)
		if err != nil {
			return err
		}
		material, err := encKey.marshal()
		if err != nil {
			return err
		}
		if err := bucket.Put(encryptionKeyID, material); err != nil {
			return err
		}

		s.encKey = encKey
		return nil
	})
}

// ChangePassword decrypts the whole store with the old password and encrypts
// it again with the new one.
func (s *boltSecureStorage) ChangePassword(oldPw, newPw []byte) error {
	// The store must be already unlocked. This ensures that there already is
	// key material in the DB.
	if s.IsLocked() {
		return ErrStoreLocked
	}

	if oldPw == nil || newPw == nil {
		return ErrPasswordRequired
	}

	s.encKeyMtx.Lock()
	defer s.encKeyMtx.Unlock()

	// Check that the old password is correct.
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootKeyBucketName)
		if bucket == nil {
			return ErrRootKeyBucketNotFound
		}
		dbKey := bucket.Get(encryptionKeyID)
		if len(dbKey) <= 0 {
			return ErrEncKeyNotFound
		}
		_, err := unmarshalSecretKey(dbKey, &oldPw)
		return err
	}); err != nil {
		return err
	}

	encKeyNew, err := newSecretKey(&newPw)
	if err != nil {
		return err
	}

	// Decrypt the DB with the old key and encrypt it again with the new one.
	if err := s.updateEncryptedDb(encKeyNew); err != nil {
		return err
	}

	// Finally, store the new encryption key material in the DB as well.
	material, err := encKeyNew.marshal()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootKeyBucketName)
		if bucket == nil {
			return ErrRootKeyBucketNotFound
		}
		if err := bucket.Put(encryptionKeyID, material); err != nil {
			return err
		}

		s.encKey = encKeyNew
		return nil
	})
}

// CreateBucket creates a nested bucket into the root one.
func (s *boltSecureStorage) CreateBucket(key []byte) error {
	if s.IsLocked() {
		return ErrStoreLocked
	}

	if len(key) <= 0 {
		return ErrMissingBucketKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return ErrForbiddenBucketKey
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootKeyBucketName)
		if bucket == nil {
			return ErrRootKeyBucketNotFound
		}
		_, err := bucket.CreateBucketIfNotExists(key)
		return err
	})
}

// AddToBucket stores the provided data encrypted into the given bucket.
// If the bucket key is nil, the key/value entry is added to the root one.
func (s *boltSecureStorage) AddToBucket(bucketKey, key, value []byte) error {
	if s.IsLocked() {
		return ErrStoreLocked
	}

	if len(key) <= 0 {
		return ErrMissingDataKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return ErrForbiddenDataKey
	}
	if len(value) <= 0 {
		return ErrMissingData
	}

	encryptedValue, err := s.encKey.encrypt(value)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootKeyBucketName)
		if bucket == nil {
			return ErrRootKeyBucketNotFound
		}

		if len(bucketKey) > 0 {
			bucket = bucket.Bucket(bucketKey)
			if bucket == nil {
				return ErrBucketNotFound
			}
		}

		return bucket.Put(key, encryptedValue)
	})
}

// GetFromBucket retrieves data for the given key and bucket. If the bucket
// key is nil, data is retrieved from the root bucket. A missing entry is
// returned as a nil value without error.
func (s *boltSecureStorage) GetFromBucket(bucketKey, key []byte) ([]byte, error) {
	if s.IsLocked() {
		return nil, ErrStoreLocked
	}

	if len(key) <= 0 {
		return nil, ErrMissingDataKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return nil, ErrForbiddenDataKey
	}

	var value []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootKeyBucketName)
		if bucket == nil {
			return ErrRootKeyBucketNotFound
		}

		if len(bucketKey) > 0 {
			bucket = bucket.Bucket(bucketKey)
			if bucket == nil {
				return ErrBucketNotFound
			}
		}

		encryptedValue := bucket.Get(key)
		if len(encryptedValue) <= 0 {
			return nil
		}

		v, err := s.encKey.decrypt(encryptedValue)
		if err != nil {
			return err
		}

		value = v
		return nil
	}); err != nil {
		return nil, err
	}

	return value, nil
}

// GetAllFromBucket returns all data stored in the given bucket. If the
// bucket key is nil, the root bucket's own entries are returned.
func (s *boltSecureStorage) GetAllFromBucket(bucketKey []byte) (map[string][]byte, error) {
	if s.IsLocked() {
		return nil, ErrStoreLocked
	}

	res := make(map[string][]byte)
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootKeyBucketName)
		if bucket == nil {
			return ErrRootKeyBucketNotFound
		}

		if len(bucketKey) > 0 {
			bucket = bucket.Bucket(bucketKey)
			if bucket == nil {
				return ErrBucketNotFound
			}
		}

		return bucket.ForEach(func(k, v []byte) error {
			if !bytes.Equal(k, encryptionKeyID) && v != nil {
				value, err := s.encKey.decrypt(v)
				if err != nil {
					return err
				}
				res[string(k)] = value
			}
			return nil
		})
	}); err != nil {
		return nil, err
	}

	return res, nil
}

// ListBuckets returns the keys of all nested buckets.
func (s *boltSecureStorage) ListBuckets() ([][]byte, error) {
	if s.IsLocked() {
		return nil, ErrStoreLocked
	}

	var bucketKeys [][]byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootKeyBucketName)
		if bucket == nil {
			return ErrRootKeyBucketNotFound
		}

		return bucket.ForEach(func(key, value []byte) error {
			if value == nil {
				bucketKey := make([]byte, len(key))
				copy(bucketKey, key)
				bucketKeys = append(bucketKeys, bucketKey)
			}
			return nil
		})
	}); err != nil {
		return nil, err
	}

	return bucketKeys, nil
}

// Close closes the underlying database and zeroes the encryption key stored
// in memory.
func (s *boltSecureStorage) Close() error {
	s.encKeyMtx.Lock()
	defer s.encKeyMtx.Unlock()

	s.Lock()

	return s.db.Close()
}

// RemoveFromBucket removes the entry identified by the given key for the
// given bucket. If the bucket key is nil, the entry is removed from the root
// bucket.
func (s *boltSecureStorage) RemoveFromBucket(bucketKey, key []byte) error {
	if s.IsLocked() {
		return ErrStoreLocked
	}

	if len(key) <= 0 {
		return ErrMissingDataKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return ErrForbiddenDataKey
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootKeyBucketName)
		if bucket == nil {
			return ErrRootKeyBucketNotFound
		}

		if len(bucketKey) > 0 {
			bucket = bucket.Bucket(bucketKey)
			if bucket == nil {
				return ErrBucketNotFound
			}
		}

		return bucket.Delete(key)
	})
}

// RemoveBucket removes a nested bucket and all of its content.
func (s *boltSecureStorage) RemoveBucket(key []byte) error {
	if s.IsLocked() {
		return ErrStoreLocked
	}

	if len(key) <= 0 {
		return ErrMissingBucketKey
	}
	if bytes.Equal(key, encryptionKeyID) {
		return ErrForbiddenBucketKey
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootKeyBucketName)
		if bucket == nil {
			return ErrRootKeyBucketNotFound
		}

		if err := bucket.DeleteBucket(key); err != nil {
			if err == bolt.ErrBucketNotFound {
				return ErrBucketNotFound
			}
			return err
		}
		return nil
	})
}

// updateEncryptedDb decrypts every stored value with the current key and
// encrypts it again with the new one.
func (s *boltSecureStorage) updateEncryptedDb(newKey *secretKey) error {
	buckets, err := s.ListBuckets()
	if err != nil {
		return err
	}
	// nil key stands for the top level bucket.
	buckets = append(buckets, nil)

	dataByBucket := make(map[string]map[string][]byte)
	for _, bucketKey := range buckets {
		data, err := s.GetAllFromBucket(bucketKey)
		if err != nil {
			return err
		}
		dataByBucket[string(bucketKey)] = data
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(RootKeyBucketName)
		if root == nil {
			return ErrRootKeyBucketNotFound
		}

		for bucketKey, data := range dataByBucket {
			bucket := root
			if len(bucketKey) > 0 {
				bucket = root.Bucket([]byte(bucketKey))
				if bucket == nil {
					return ErrBucketNotFound
				}
			}
			for key, value := range data {
				encryptedValue, err := newKey.encrypt(value)
				if err != nil {
					return err
				}
				if err := bucket.Put([]byte(key), encryptedValue); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
