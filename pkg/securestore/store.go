package securestore

// SecureStorage is a password-locked key/value store organized in buckets.
// Values are encrypted at rest with a key derived from the unlock password,
// so nothing readable ever touches the disk.
type SecureStorage interface {
	// CreateUnlock creates the DB with the given password, or unlocks it if
	// it already exists.
	CreateUnlock(password *[]byte) (err error)
	// Lock locks the DB again, dropping the in-memory encryption key.
	Lock()
	// IsLocked returns whether the DB is currently locked.
	IsLocked() (locked bool)
	// ChangePassword re-encrypts the DB under a new password.
	ChangePassword(oldPw, newPw []byte) (err error)
	// Close releases the underlying DB handle.
	Close() (err error)
	// CreateBucket creates a named collection of key/value pairs. Creating
	// an existing bucket is a no-op.
	CreateBucket(key []byte) (err error)
	// AddToBucket inserts or replaces a key/value pair in a bucket.
	AddToBucket(bucketKey, key, value []byte) (err error)
	// GetFromBucket returns the value stored under key, nil if absent.
	GetFromBucket(bucketKey, key []byte) (value []byte, err error)
	// GetAllFromBucket returns every key/value pair of a bucket.
	GetAllFromBucket(bucketKey []byte) (valuesByKey map[string][]byte, err error)
	// ListBuckets returns the names of all buckets.
	ListBuckets() (bucketKeys [][]byte, err error)
	// RemoveFromBucket deletes a key/value pair from a bucket.
	RemoveFromBucket(bucketKey, key []byte) (err error)
	// RemoveBucket deletes a bucket with all its content.
	RemoveBucket(bucketKey []byte) (err error)
}
