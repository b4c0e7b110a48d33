package domain

import "time"

// Plaintext codes of a screening verdict. The stored status is a
// confidential uint8 holding one of these values.
const (
	CheckStatusCompliant    uint8 = 0
	CheckStatusNonCompliant uint8 = 1
)

// Check is a recorded screening verdict. The submitter identity and the
// timestamp are public, the status is confidential and write-once.
type Check struct {
	ID        uint64
	Submitter Party
	Status    Ciphertext
	CreatedAt int64
}

// NewCheck returns a new verdict record for the given submitter. The id is
// assigned by the repository at insert time.
func NewCheck(submitter Party, status Ciphertext) (*Check, error) {
	if _, err := ParseParty(submitter.String()); err != nil {
		return nil, err
	}
	if status.IsZero() || status.Type != CipherTypeUint8 {
		return nil, ErrCheckInvalidStatus
	}
	return &Check{
		Submitter: submitter,
		Status:    status,
		CreatedAt: time.Now().Unix(),
	}, nil
}

// Grant marks a party's standing permission to decrypt a verdict status.
// Grants are mutable only by the verdict's submitter.
type Grant struct {
	CheckID   uint64
	Grantee   Party
	CreatedAt int64
}

// NewGrant returns a grant of verdict visibility to the given party.
func NewGrant(checkID uint64, grantee Party) (*Grant, error) {
	if _, err := ParseParty(grantee.String()); err != nil {
		return nil, err
	}
	return &Grant{
		CheckID:   checkID,
		Grantee:   grantee,
		CreatedAt: time.Now().Unix(),
	}, nil
}
