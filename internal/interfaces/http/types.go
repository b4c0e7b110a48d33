package httpinterface

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/vigil-network/vigil-daemon/internal/core/application"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type cipherInputRequest struct {
	Blob  string `json:"blob"`
	Proof string `json:"proof"`
}

func (r cipherInputRequest) toAppInput() (application.CipherInput, error) {
	blob, err := base64.StdEncoding.DecodeString(r.Blob)
	if err != nil {
		return application.CipherInput{}, fmt.Errorf("invalid blob encoding: %s", err)
	}
	proof, err := base64.StdEncoding.DecodeString(r.Proof)
	if err != nil {
		return application.CipherInput{}, fmt.Errorf("invalid proof encoding: %s", err)
	}
	return application.CipherInput{Blob: blob, Proof: proof}, nil
}

// subjectRequest carries the three sealed fields identifying a subject, used
// both to register watchlist entities and to submit screening checks.
type subjectRequest struct {
	Name    cipherInputRequest `json:"name"`
	Country cipherInputRequest `json:"country"`
	Account cipherInputRequest `json:"account"`
}

func (r subjectRequest) toAppInputs() (
	name, country, account application.CipherInput, err error,
) {
	if name, err = r.Name.toAppInput(); err != nil {
		err = fmt.Errorf("name: %s", err)
		return
	}
	if country, err = r.Country.toAppInput(); err != nil {
		err = fmt.Errorf("country: %s", err)
		return
	}
	if account, err = r.Account.toAppInput(); err != nil {
		err = fmt.Errorf("account: %s", err)
		return
	}
	return
}

type curatorRequest struct {
	Curator string `json:"curator"`
}

type transferRequest struct {
	NewOwner string `json:"new_owner"`
}

type grantRequest struct {
	Grantee string `json:"grantee"`
}

type webhookRequest struct {
	Topic    string `json:"topic"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
}

type sealRequest struct {
	// Value is a base-10 string so that the full uint64 range survives
	// JSON number parsing.
	Value string `json:"value"`
	Type  string `json:"type"`
}

type sealResponse struct {
	Blob  string `json:"blob"`
	Proof string `json:"proof"`
}

type entityResponse struct {
	ID        uint64 `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

type checkResponse struct {
	ID        uint64 `json:"id"`
	Submitter string `json:"submitter"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type revealResponse struct {
	Status uint8  `json:"status"`
	Label  string `json:"label"`
}

type accessInfoResponse struct {
	Owner    string   `json:"owner"`
	Curators []string `json:"curators"`
}

type infoResponse struct {
	Owner       string `json:"owner"`
	EntityCount uint64 `json:"entity_count"`
	CheckCount  uint64 `json:"check_count"`
	Version     string `json:"version"`
	Commit      string `json:"commit,omitempty"`
	Date        string `json:"date,omitempty"`
}

type grantResponse struct {
	CheckID   uint64 `json:"check_id"`
	Grantee   string `json:"grantee"`
	CreatedAt int64  `json:"created_at"`
}

type webhookResponse struct {
	ID       string `json:"id"`
	Topic    string `json:"topic"`
	Endpoint string `json:"endpoint"`
	Secured  bool   `json:"secured"`
}

type webhookIDResponse struct {
	ID string `json:"id"`
}

type countResponse struct {
	Count uint64 `json:"count"`
}

type checkStatusResponse struct {
	Status string `json:"status"`
}

type checkUserResponse struct {
	Submitter string `json:"submitter"`
}

type checkTimestampResponse struct {
	Timestamp int64 `json:"timestamp"`
}

type isCuratorResponse struct {
	IsCurator bool `json:"is_curator"`
}

type hasAccessResponse struct {
	Granted bool `json:"granted"`
}

func statusLabel(status uint8) string {
	if status == domain.CheckStatusNonCompliant {
		return "NON_COMPLIANT"
	}
	return "COMPLIANT"
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("http: failed to write response")
	}
}

// writeError maps domain errors to status codes. The codes mirror the
// contract of the remote engine API so clients can share error handling.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{
			Code: "unauthorized", Message: err.Error(),
		})
	case errors.Is(err, domain.ErrInvalidCiphertext):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code: "invalid_ciphertext", Message: err.Error(),
		})
	case errors.Is(err, domain.ErrEntityNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code: "invalid_entity_id", Message: err.Error(),
		})
	case errors.Is(err, ports.ErrSubscriptionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code: "webhook_not_found", Message: err.Error(),
		})
	case errors.Is(err, application.ErrUnknownTopic):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code: "unknown_topic", Message: err.Error(),
		})
	case errors.Is(err, domain.ErrAccessAlreadyInitialized):
		writeJSON(w, http.StatusConflict, errorResponse{
			Code: "already_initialized", Message: err.Error(),
		})
	default:
		log.WithError(err).Error("http: request failed with unexpected error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code: "internal_error", Message: "something went wrong, please retry",
		})
	}
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Code: "bad_request", Message: err.Error(),
	})
}

func writeAuthError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnauthorized, errorResponse{
		Code: "unauthorized", Message: err.Error(),
	})
}
