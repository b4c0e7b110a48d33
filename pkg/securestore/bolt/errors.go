package boltsecurestore

import "fmt"

var (
	// ErrStoreLocked is returned by any read or write attempted while no
	// encryption key is loaded in memory.
	ErrStoreLocked = fmt.Errorf("store is locked")

	// ErrPasswordRequired is returned when unlocking or re-keying without
	// providing a password.
	ErrPasswordRequired = fmt.Errorf("password must not be null")
	// ErrInvalidPassword is returned when the given password does not match
	// the stored key material.
	ErrInvalidPassword = fmt.Errorf("password is not valid")

	// ErrRootKeyBucketNotFound means the top level bucket is missing, which
	// only happens if the database file is corrupted or was created by
	// something else.
	ErrRootKeyBucketNotFound = fmt.Errorf("root key bucket not found")
	// ErrEncKeyNotFound means no key material is stored even though the
	// store claims to be initialized.
	ErrEncKeyNotFound = fmt.Errorf("store encryption key not found")

	// ErrBucketNotFound is returned when targeting a nested bucket that was
	// never created.
	ErrBucketNotFound = fmt.Errorf("bucket not found")
	// ErrMissingBucketKey is returned when a bucket operation is called with
	// an empty key.
	ErrMissingBucketKey = fmt.Errorf("missing bucket key")
	// ErrForbiddenBucketKey is returned when a bucket key collides with the
	// reserved encryption key entry.
	ErrForbiddenBucketKey = fmt.Errorf("bucket key is not allowed")

	// ErrMissingDataKey is returned when a data operation is called with an
	// empty key.
	ErrMissingDataKey = fmt.Errorf("missing data key")
	// ErrForbiddenDataKey is returned when a data key collides with the
	// reserved encryption key entry.
	ErrForbiddenDataKey = fmt.Errorf("data key is not allowed")
	// ErrMissingData is returned when storing an empty value.
	ErrMissingData = fmt.Errorf("missing data to add")
)
