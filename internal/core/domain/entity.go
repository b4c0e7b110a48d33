package domain

import "time"

// Entity is a confidential watchlist record. Name, Country and Account are
// opaque ciphertexts produced off-system by the curator's client, Active is
// re-encrypted by the daemon on every toggle. Records are never deleted,
// ids stay stable for the whole history of the watchlist.
type Entity struct {
	ID        uint64
	Name      Ciphertext
	Country   Ciphertext
	Account   Ciphertext
	Active    Ciphertext
	CreatedAt int64
}

// NewEntity returns a new watchlist record with the given confidential
// fields. The id is assigned by the repository at insert time.
func NewEntity(name, country, account, active Ciphertext) (*Entity, error) {
	if name.IsZero() || name.Type != CipherTypeUint64 {
		return nil, ErrEntityInvalidName
	}
	if country.IsZero() || country.Type != CipherTypeUint32 {
		return nil, ErrEntityInvalidCountry
	}
	if account.IsZero() || account.Type != CipherTypeAddress {
		return nil, ErrEntityInvalidAccount
	}
	if active.IsZero() || active.Type != CipherTypeBool {
		return nil, ErrEntityInvalidActiveFlag
	}
	return &Entity{
		Name:      name,
		Country:   country,
		Account:   account,
		Active:    active,
		CreatedAt: time.Now().Unix(),
	}, nil
}

// UpdateActiveFlag replaces the confidential active flag with a freshly
// re-encrypted one. All other fields are immutable.
func (e *Entity) UpdateActiveFlag(active Ciphertext) error {
	if active.IsZero() || active.Type != CipherTypeBool {
		return ErrEntityInvalidActiveFlag
	}
	e.Active = active
	return nil
}
