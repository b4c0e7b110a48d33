package macaroons

import (
	"encoding/hex"
	"fmt"
	"net/http"

	macaroon "gopkg.in/macaroon.v2"
)

// AuthHeader is the HTTP header carrying the hex-serialized macaroon.
const AuthHeader = "X-Macaroon"

// ErrMissingMacaroon is returned when a request carries no macaroon header.
var ErrMissingMacaroon = fmt.Errorf("missing macaroon header")

// AddToRequest attaches the hex-serialized macaroon to the request headers.
func AddToRequest(req *http.Request, mac *macaroon.Macaroon) error {
	macBytes, err := mac.MarshalBinary()
	if err != nil {
		return err
	}
	req.Header.Set(AuthHeader, hex.EncodeToString(macBytes))
	return nil
}

// FromRequest extracts the serialized macaroon from the request headers.
func FromRequest(req *http.Request) ([]byte, error) {
	macHex := req.Header.Get(AuthHeader)
	if len(macHex) <= 0 {
		return nil, ErrMissingMacaroon
	}
	macBytes, err := hex.DecodeString(macHex)
	if err != nil {
		return nil, fmt.Errorf("invalid macaroon header: %w", err)
	}
	return macBytes, nil
}
