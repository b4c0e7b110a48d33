package httpinterface

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

// Sealer is implemented by crypto engines able to seal inputs on behalf of
// callers, like the embedded soft engine. Remote engines seal client side,
// so the sealing endpoint is only mounted when a Sealer is configured.
type Sealer interface {
	SealInput(
		value uint64, typ domain.CipherType, party domain.Party,
	) ([]byte, []byte, error)
}

type engineHandler struct {
	sealer Sealer
}

func newEngineHandler(sealer Sealer) *engineHandler {
	return &engineHandler{sealer}
}

func (h *engineHandler) seal(w http.ResponseWriter, r *http.Request) {
	var req sealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Errorf("invalid request body: %s", err))
		return
	}
	value, err := strconv.ParseUint(req.Value, 10, 64)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid value: %s", err))
		return
	}
	typ, err := domain.ParseCipherType(req.Type)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	// The proof binds the blob to the authenticated requester, sealing for
	// another party is not possible through this endpoint.
	blob, proof, err := h.sealer.SealInput(
		value, typ, partyFromContext(r.Context()),
	)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sealResponse{
		Blob:  base64.StdEncoding.EncodeToString(blob),
		Proof: base64.StdEncoding.EncodeToString(proof),
	})
}
