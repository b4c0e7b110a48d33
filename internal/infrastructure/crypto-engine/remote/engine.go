package remoteengine

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
	"github.com/vigil-network/vigil-daemon/pkg/circuitbreaker"
	"go.uber.org/ratelimit"
)

const requestTimeout = 15 * time.Second

type engineClient struct {
	apiURL  string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
}

// NewEngine returns a CryptoEngine talking to a remote encryption provider
// over its JSON interface. Outgoing calls are rate limited and wrapped in a
// circuit breaker so that a misbehaving provider does not pile up requests.
func NewEngine(
	apiURL string, maxRequestsPerSecond int,
) (ports.CryptoEngine, error) {
	if _, err := url.ParseRequestURI(apiURL); err != nil {
		return nil, fmt.Errorf("invalid engine endpoint: %w", err)
	}
	if maxRequestsPerSecond <= 0 {
		return nil, fmt.Errorf("engine rate limit must be a positive number")
	}

	svc := &engineClient{
		apiURL:  strings.TrimSuffix(apiURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		cb:      circuitbreaker.NewCircuitBreaker("crypto-engine"),
		limiter: ratelimit.New(maxRequestsPerSecond),
	}

	if err := svc.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	return svc, nil
}

type ciphertextDTO struct {
	Handle string `json:"handle"`
	Type   string `json:"type"`
}

type errorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toDTO(c domain.Ciphertext) ciphertextDTO {
	return ciphertextDTO{Handle: c.Handle, Type: c.Type.String()}
}

func (d ciphertextDTO) toDomain() (domain.Ciphertext, error) {
	typ, err := domain.ParseCipherType(d.Type)
	if err != nil {
		return domain.Ciphertext{}, err
	}
	return domain.NewCiphertext(d.Handle, typ)
}

func (e *engineClient) VerifyInput(
	ctx context.Context,
	blob, proof []byte, party domain.Party, typ domain.CipherType,
) (domain.Ciphertext, error) {
	req := struct {
		Blob  string `json:"blob"`
		Proof string `json:"proof"`
		Party string `json:"party"`
		Type  string `json:"type"`
	}{
		hex.EncodeToString(blob), hex.EncodeToString(proof),
		party.String(), typ.String(),
	}
	var resp ciphertextDTO
	if err := e.post(ctx, "/v1/inputs/verify", req, &resp); err != nil {
		return domain.Ciphertext{}, err
	}
	return resp.toDomain()
}

func (e *engineClient) Lift(
	ctx context.Context, value uint64, typ domain.CipherType,
) (domain.Ciphertext, error) {
	req := struct {
		Value uint64 `json:"value"`
		Type  string `json:"type"`
	}{value, typ.String()}

	var resp ciphertextDTO
	if err := e.post(ctx, "/v1/values/lift", req, &resp); err != nil {
		return domain.Ciphertext{}, err
	}
	return resp.toDomain()
}

func (e *engineClient) Eq(
	ctx context.Context, a, b domain.Ciphertext,
) (domain.Ciphertext, error) {
	return e.binaryOp(ctx, "/v1/ops/eq", a, b)
}

func (e *engineClient) And(
	ctx context.Context, a, b domain.Ciphertext,
) (domain.Ciphertext, error) {
	return e.binaryOp(ctx, "/v1/ops/and", a, b)
}

func (e *engineClient) Or(
	ctx context.Context, a, b domain.Ciphertext,
) (domain.Ciphertext, error) {
	return e.binaryOp(ctx, "/v1/ops/or", a, b)
}

func (e *engineClient) Select(
	ctx context.Context, cond, ifTrue, ifFalse domain.Ciphertext,
) (domain.Ciphertext, error) {
	req := struct {
		Cond    ciphertextDTO `json:"cond"`
		IfTrue  ciphertextDTO `json:"if_true"`
		IfFalse ciphertextDTO `json:"if_false"`
	}{toDTO(cond), toDTO(ifTrue), toDTO(ifFalse)}

	var resp ciphertextDTO
	if err := e.post(ctx, "/v1/ops/select", req, &resp); err != nil {
		return domain.Ciphertext{}, err
	}
	return resp.toDomain()
}

func (e *engineClient) Allow(
	ctx context.Context, c domain.Ciphertext, party domain.Party,
) error {
	req := struct {
		Ciphertext ciphertextDTO `json:"ciphertext"`
		Party      string        `json:"party"`
	}{toDTO(c), party.String()}

	return e.post(ctx, "/v1/acl/allow", req, nil)
}

func (e *engineClient) AllowSystem(
	ctx context.Context, c domain.Ciphertext,
) error {
	req := struct {
		Ciphertext ciphertextDTO `json:"ciphertext"`
	}{toDTO(c)}

	return e.post(ctx, "/v1/acl/allow-system", req, nil)
}

func (e *engineClient) Reveal(
	ctx context.Context, c domain.Ciphertext, party domain.Party,
) (uint64, error) {
	req := struct {
		Ciphertext ciphertextDTO `json:"ciphertext"`
		Party      string        `json:"party"`
	}{toDTO(c), party.String()}

	var resp struct {
		Value uint64 `json:"value"`
	}
	if err := e.post(ctx, "/v1/reveal", req, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

func (e *engineClient) Close() {
	e.client.CloseIdleConnections()
}

func (e *engineClient) binaryOp(
	ctx context.Context, path string, a, b domain.Ciphertext,
) (domain.Ciphertext, error) {
	req := struct {
		A ciphertextDTO `json:"a"`
		B ciphertextDTO `json:"b"`
	}{toDTO(a), toDTO(b)}

	var resp ciphertextDTO
	if err := e.post(ctx, path, req, &resp); err != nil {
		return domain.Ciphertext{}, err
	}
	return resp.toDomain()
}

func (e *engineClient) healthCheck() error {
	req, err := http.NewRequest("GET", e.apiURL+"/v1/info", nil)
	if err != nil {
		return err
	}
	rs, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer rs.Body.Close()
	if rs.StatusCode != http.StatusOK {
		return fmt.Errorf("engine responded with status %d", rs.StatusCode)
	}
	return nil
}

func (e *engineClient) post(
	ctx context.Context, path string, reqBody, respBody interface{},
) error {
	e.limiter.Take()

	buf, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	res, err := e.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(
			ctx, "POST", e.apiURL+path, bytes.NewReader(buf),
		)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		rs, err := e.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer rs.Body.Close()

		body, err := io.ReadAll(rs.Body)
		if err != nil {
			return nil, err
		}
		if rs.StatusCode != http.StatusOK {
			return nil, parseError(rs.StatusCode, body)
		}
		return body, nil
	})
	if err != nil {
		return err
	}

	if respBody == nil {
		return nil
	}
	return json.Unmarshal(res.([]byte), respBody)
}

// parseError maps the provider's error responses to the domain taxonomy:
// rejected proofs surface as ErrInvalidCiphertext, refused decryptions as
// ErrUnauthorized.
func parseError(statusCode int, body []byte) error {
	var dto errorDTO
	//nolint
	json.Unmarshal(body, &dto)

	switch {
	case statusCode == http.StatusUnauthorized ||
		statusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case dto.Code == "invalid_ciphertext":
		return domain.ErrInvalidCiphertext
	case len(dto.Message) > 0:
		return errors.New(dto.Message)
	default:
		return fmt.Errorf("engine responded with status %d", statusCode)
	}
}
