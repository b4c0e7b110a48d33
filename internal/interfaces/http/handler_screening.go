package httpinterface

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vigil-network/vigil-daemon/internal/core/application"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

// screeningHandler exposes check submission, verdict disclosure and the
// public read-only views over the registry.
type screeningHandler struct {
	screeningSvc application.ScreeningService
}

func newScreeningHandler(screeningSvc application.ScreeningService) *screeningHandler {
	return &screeningHandler{screeningSvc}
}

func (h *screeningHandler) submitCheck(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Errorf("invalid request body: %s", err))
		return
	}
	name, country, account, err := req.toAppInputs()
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx := r.Context()
	info, err := h.screeningSvc.SubmitCheck(
		ctx, partyFromContext(ctx), name, country, account,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkResponse{
		ID:        info.ID,
		Submitter: info.Submitter,
		Status:    info.Status,
		CreatedAt: info.CreatedAt,
	})
}

func (h *screeningHandler) revealCheckStatus(w http.ResponseWriter, r *http.Request) {
	checkID, err := parseCheckID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx := r.Context()
	status, err := h.screeningSvc.RevealCheckStatus(
		ctx, partyFromContext(ctx), checkID,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revealResponse{
		Status: status,
		Label:  statusLabel(status),
	})
}

func (h *screeningHandler) grantAccess(w http.ResponseWriter, r *http.Request) {
	checkID, err := parseCheckID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Errorf("invalid request body: %s", err))
		return
	}
	grantee, err := domain.ParseParty(req.Grantee)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx := r.Context()
	if err := h.screeningSvc.GrantAccess(
		ctx, partyFromContext(ctx), checkID, grantee,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *screeningHandler) revokeAccess(w http.ResponseWriter, r *http.Request) {
	checkID, err := parseCheckID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	grantee, err := domain.ParseParty(chi.URLParam(r, "party"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx := r.Context()
	if err := h.screeningSvc.RevokeAccess(
		ctx, partyFromContext(ctx), checkID, grantee,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *screeningHandler) listGrants(w http.ResponseWriter, r *http.Request) {
	checkID, err := parseCheckID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx := r.Context()
	grants, err := h.screeningSvc.ListGrants(ctx, partyFromContext(ctx), checkID)
	if err != nil {
		writeError(w, err)
		return
	}

	list := make([]grantResponse, 0, len(grants))
	for _, grant := range grants {
		list = append(list, grantResponse{
			CheckID:   grant.CheckID,
			Grantee:   grant.Grantee,
			CreatedAt: grant.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *screeningHandler) getCheckStatus(w http.ResponseWriter, r *http.Request) {
	checkID, err := parseCheckID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	status, err := h.screeningSvc.GetCheckStatus(r.Context(), checkID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkStatusResponse{Status: status})
}

func (h *screeningHandler) getCheckUser(w http.ResponseWriter, r *http.Request) {
	checkID, err := parseCheckID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	submitter, err := h.screeningSvc.GetCheckUser(r.Context(), checkID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkUserResponse{Submitter: submitter})
}

func (h *screeningHandler) getCheckTimestamp(w http.ResponseWriter, r *http.Request) {
	checkID, err := parseCheckID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	timestamp, err := h.screeningSvc.GetCheckTimestamp(r.Context(), checkID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkTimestampResponse{Timestamp: timestamp})
}

func (h *screeningHandler) getCheckCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.screeningSvc.GetCheckCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

func (h *screeningHandler) getEntityCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.screeningSvc.GetEntityCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

func (h *screeningHandler) hasAccess(w http.ResponseWriter, r *http.Request) {
	checkID, err := parseCheckID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	granted, err := h.screeningSvc.HasAccess(
		r.Context(), checkID, chi.URLParam(r, "party"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hasAccessResponse{Granted: granted})
}

func (h *screeningHandler) isCurator(w http.ResponseWriter, r *http.Request) {
	isCurator, err := h.screeningSvc.IsCurator(
		r.Context(), chi.URLParam(r, "party"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, isCuratorResponse{IsCurator: isCurator})
}

func parseCheckID(r *http.Request) (uint64, error) {
	checkID, err := strconv.ParseUint(chi.URLParam(r, "checkId"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid check id: %s", err)
	}
	return checkID, nil
}
