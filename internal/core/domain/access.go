package domain

// AccessState holds the privileged roles gating watchlist mutations: the
// single owner and the explicit curator set. The owner is always treated as
// a curator for authorization purposes, with or without an entry in the set.
type AccessState struct {
	Owner    Party
	Curators map[Party]bool
}

// NewAccessState returns the initial access state for the given owner. The
// curator set starts empty, the owner's curator status is implicit.
func NewAccessState(owner Party) (*AccessState, error) {
	if _, err := ParseParty(owner.String()); err != nil {
		return nil, err
	}
	return &AccessState{
		Owner:    owner,
		Curators: map[Party]bool{},
	}, nil
}

// IsOwner returns whether the given party is the current owner.
func (s *AccessState) IsOwner(party Party) bool {
	return party == s.Owner
}

// IsCurator returns whether the given party may mutate the watchlist, ie.
// it has an entry in the curator set or it is the current owner.
func (s *AccessState) IsCurator(party Party) bool {
	return s.Curators[party] || party == s.Owner
}

// AddCurator adds the given party to the curator set. Adding an existing
// curator is a no-op success.
func (s *AccessState) AddCurator(party Party) error {
	if _, err := ParseParty(party.String()); err != nil {
		return err
	}
	if s.Curators == nil {
		s.Curators = map[Party]bool{}
	}
	s.Curators[party] = true
	return nil
}

// RemoveCurator removes the given party from the curator set. Removing a
// non-curator is a no-op success. Removing the owner's entry does not
// affect its implicit curator status.
func (s *AccessState) RemoveCurator(party Party) {
	delete(s.Curators, party)
}

// TransferTo reassigns the owner and adds the new owner to the curator set.
// The previous owner's explicit entry, if any, is left untouched.
func (s *AccessState) TransferTo(newOwner Party) error {
	if _, err := ParseParty(newOwner.String()); err != nil {
		return err
	}
	s.Owner = newOwner
	if s.Curators == nil {
		s.Curators = map[Party]bool{}
	}
	s.Curators[newOwner] = true
	return nil
}
