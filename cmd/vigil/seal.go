package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vigil-network/vigil-daemon/pkg/fingerprint"
)

type cipherInput struct {
	Blob  string `json:"blob"`
	Proof string `json:"proof"`
}

type subjectBody struct {
	Name    cipherInput `json:"name"`
	Country cipherInput `json:"country"`
	Account cipherInput `json:"account"`
}

// sealValue asks the daemon's embedded engine to seal a value on behalf of
// the signing key in the local state.
func sealValue(value uint64, typ string) (cipherInput, error) {
	resp, err := doRequest(
		http.MethodPost, "/v1/engine/seal", map[string]string{
			"value": strconv.FormatUint(value, 10),
			"type":  typ,
		},
	)
	if err != nil {
		return cipherInput{}, err
	}

	var in cipherInput
	if err := json.Unmarshal(resp, &in); err != nil {
		return cipherInput{}, err
	}
	return in, nil
}

// sealSubject fingerprints name and account client side and seals the three
// fields identifying a screening subject.
func sealSubject(name string, country uint64, account string) (*subjectBody, error) {
	nameIn, err := sealValue(fingerprint.Fingerprint64(name), "uint64")
	if err != nil {
		return nil, err
	}
	countryIn, err := sealValue(country, "uint32")
	if err != nil {
		return nil, err
	}
	accountIn, err := sealValue(fingerprint.Fingerprint64(account), "address")
	if err != nil {
		return nil, err
	}

	return &subjectBody{
		Name:    nameIn,
		Country: countryIn,
		Account: accountIn,
	}, nil
}
