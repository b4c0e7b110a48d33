package pubsub

import (
	"github.com/vigil-network/vigil-daemon/pkg/securestore"
)

var (
	subsBucket        = []byte("subscriptions")
	subsByTopicBucket = []byte("subscriptionsbytopic")

	// Serialized subscriptions are JSON, so valid UTF-8. The byte 0xff
	// never occurs in UTF-8, which makes it an unambiguous record separator.
	separator = []byte{255}
)

type store struct {
	store securestore.SecureStorage
}

func (s store) IsLocked() bool {
	return s.store.IsLocked()
}

func (s store) Init(password string) error {
	if err := s.Unlock(password); err != nil {
		return err
	}
	defer s.Lock()

	return nil
}

func (s store) Lock() {
	s.store.Lock()
}

func (s store) Unlock(password string) error {
	pwd := []byte(password)
	if err := s.store.CreateUnlock(&pwd); err != nil {
		return err
	}

	for _, bucket := range [][]byte{subsBucket, subsByTopicBucket} {
		if err := s.store.CreateBucket(bucket); err != nil {
			return err
		}
	}
	return nil
}

func (s store) ChangePassword(oldPwd, newPwd string) error {
	return s.store.ChangePassword([]byte(oldPwd), []byte(newPwd))
}

func (s store) Close() error {
	return s.store.Close()
}

func (s store) db() securestore.SecureStorage {
	return s.store
}
