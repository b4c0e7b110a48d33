package domain

import (
	"encoding/hex"
	"strings"
)

// CipherType enumerates the confidential value types supported by the
// encryption provider.
type CipherType int

const (
	CipherTypeBool CipherType = iota
	CipherTypeUint8
	CipherTypeUint32
	CipherTypeUint64
	CipherTypeAddress
)

var cipherTypeNames = map[CipherType]string{
	CipherTypeBool:    "bool",
	CipherTypeUint8:   "uint8",
	CipherTypeUint32:  "uint32",
	CipherTypeUint64:  "uint64",
	CipherTypeAddress: "address",
}

func (t CipherType) String() string {
	if name, ok := cipherTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseCipherType returns the CipherType for its wire name.
func ParseCipherType(s string) (CipherType, error) {
	for t, name := range cipherTypeNames {
		if name == s {
			return t, nil
		}
	}
	return -1, ErrInvalidCipherType
}

// HandleLength is the byte length of an encryption provider handle.
const HandleLength = 32

// Ciphertext references a confidential value held by the encryption
// provider. The handle is stable across calls and restarts, the plaintext
// is never visible to this daemon.
type Ciphertext struct {
	Handle string
	Type   CipherType
}

// NewCiphertext returns a typed reference to a confidential value.
func NewCiphertext(handle string, typ CipherType) (Ciphertext, error) {
	if _, ok := cipherTypeNames[typ]; !ok {
		return Ciphertext{}, ErrInvalidCipherType
	}
	handle = strings.ToLower(handle)
	if buf, err := hex.DecodeString(handle); err != nil || len(buf) != HandleLength {
		return Ciphertext{}, ErrInvalidHandle
	}
	return Ciphertext{Handle: handle, Type: typ}, nil
}

func (c Ciphertext) IsZero() bool {
	return c.Handle == ""
}

// PartyLength is the byte length of a party identifier.
const PartyLength = 20

// Party identifies a caller, rendered as a 40-char lowercase hex string.
type Party string

// ParseParty validates and normalizes a party identifier.
func ParseParty(s string) (Party, error) {
	s = strings.ToLower(s)
	if buf, err := hex.DecodeString(s); err != nil || len(buf) != PartyLength {
		return "", ErrInvalidParty
	}
	return Party(s), nil
}

func (p Party) String() string {
	return string(p)
}

func (p Party) IsZero() bool {
	return p == ""
}
