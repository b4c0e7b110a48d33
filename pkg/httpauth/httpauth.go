package httpauth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
)

// Request headers carrying the caller identity proof. Every authenticated
// request is signed over its method, path, body hash and timestamp with the
// caller's secp256k1 key.
const (
	PubKeyHeader    = "X-Auth-Pubkey"
	SignatureHeader = "X-Auth-Signature"
	TimestampHeader = "X-Auth-Timestamp"
)

// MaxClockSkew bounds how far a signed request timestamp may drift from the
// verifier's clock, in both directions.
const MaxClockSkew = 5 * time.Minute

var (
	// ErrMissingAuthHeaders ...
	ErrMissingAuthHeaders = fmt.Errorf("missing request auth headers")
	// ErrInvalidPubKey ...
	ErrInvalidPubKey = fmt.Errorf("malformed auth public key")
	// ErrInvalidSignature ...
	ErrInvalidSignature = fmt.Errorf("request signature verification failed")
	// ErrStaleTimestamp ...
	ErrStaleTimestamp = fmt.Errorf("request timestamp outside allowed clock skew")
)

// PartyID derives the caller identifier from its public key: the HASH160 of
// the compressed serialization, rendered as lowercase hex.
func PartyID(pubKey *btcec.PublicKey) string {
	return hex.EncodeToString(btcutil.Hash160(pubKey.SerializeCompressed()))
}

// NewPrivateKey generates a fresh secp256k1 signing key.
func NewPrivateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// ParsePrivateKey loads a signing key from its hex serialization.
func ParsePrivateKey(keyHex string) (*btcec.PrivateKey, error) {
	buf, err := hex.DecodeString(strings.TrimSpace(keyHex))
	if err != nil || len(buf) != 32 {
		return nil, fmt.Errorf("malformed private key")
	}
	prvKey, _ := btcec.PrivKeyFromBytes(buf)
	return prvKey, nil
}

// SerializePrivateKey renders a signing key as hex.
func SerializePrivateKey(prvKey *btcec.PrivateKey) string {
	return hex.EncodeToString(prvKey.Serialize())
}

// SignRequest signs the request with the given key and sets the auth
// headers. The body must be passed explicitly since the request's reader
// can be consumed only once.
func SignRequest(req *http.Request, body []byte, prvKey *btcec.PrivateKey) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	sig := ecdsa.Sign(prvKey, digest(req.Method, req.URL.Path, body, timestamp))

	req.Header.Set(
		PubKeyHeader, hex.EncodeToString(prvKey.PubKey().SerializeCompressed()),
	)
	req.Header.Set(SignatureHeader, hex.EncodeToString(sig.Serialize()))
	req.Header.Set(TimestampHeader, timestamp)
}

// VerifyRequest checks the auth headers against the request content and
// returns the caller's party identifier.
func VerifyRequest(req *http.Request, body []byte, now time.Time) (string, error) {
	pubKeyHex := req.Header.Get(PubKeyHeader)
	sigHex := req.Header.Get(SignatureHeader)
	timestamp := req.Header.Get(TimestampHeader)
	if len(pubKeyHex) <= 0 || len(sigHex) <= 0 || len(timestamp) <= 0 {
		return "", ErrMissingAuthHeaders
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return "", ErrStaleTimestamp
	}
	if skew := now.Sub(time.Unix(ts, 0)); skew > MaxClockSkew || skew < -MaxClockSkew {
		return "", ErrStaleTimestamp
	}

	pubKeyBytes, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return "", ErrInvalidPubKey
	}
	pubKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return "", ErrInvalidPubKey
	}

	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		return "", ErrInvalidSignature
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return "", ErrInvalidSignature
	}

	if !sig.Verify(digest(req.Method, req.URL.Path, body, timestamp), pubKey) {
		return "", ErrInvalidSignature
	}

	return PartyID(pubKey), nil
}

// digest builds the signed payload of a request: method, path, body hash
// and timestamp, newline-joined and SHA-256 hashed.
func digest(method, path string, body []byte, timestamp string) []byte {
	bodyHash := sha256.Sum256(body)
	payload := strings.Join([]string{
		method, path, hex.EncodeToString(bodyHash[:]), timestamp,
	}, "\n")
	sum := sha256.Sum256([]byte(payload))
	return sum[:]
}
