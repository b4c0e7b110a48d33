package httpinterface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vigil-network/vigil-daemon/internal/core/application"
	"github.com/vigil-network/vigil-daemon/internal/core/domain"
)

// operatorHandler exposes the curator-gated surface: registry roles,
// watchlist maintenance and webhook management.
type operatorHandler struct {
	operatorSvc application.OperatorService
}

func newOperatorHandler(operatorSvc application.OperatorService) *operatorHandler {
	return &operatorHandler{operatorSvc}
}

func (h *operatorHandler) getInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.operatorSvc.GetInfo(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infoResponse{
		Owner:       info.Owner,
		EntityCount: info.EntityCount,
		CheckCount:  info.CheckCount,
		Version:     info.BuildInfo.Version,
		Commit:      info.BuildInfo.Commit,
		Date:        info.BuildInfo.Date,
	})
}

func (h *operatorHandler) getAccessInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.operatorSvc.GetAccessInfo(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accessInfoResponse{
		Owner:    info.Owner,
		Curators: info.Curators,
	})
}

func (h *operatorHandler) addCurator(w http.ResponseWriter, r *http.Request) {
	var req curatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Errorf("invalid request body: %s", err))
		return
	}
	curator, err := domain.ParseParty(req.Curator)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx := r.Context()
	if err := h.operatorSvc.AddCurator(
		ctx, partyFromContext(ctx), curator,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *operatorHandler) removeCurator(w http.ResponseWriter, r *http.Request) {
	curator, err := domain.ParseParty(chi.URLParam(r, "party"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx := r.Context()
	if err := h.operatorSvc.RemoveCurator(
		ctx, partyFromContext(ctx), curator,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *operatorHandler) transferOwnership(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Errorf("invalid request body: %s", err))
		return
	}
	newOwner, err := domain.ParseParty(req.NewOwner)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx := r.Context()
	if err := h.operatorSvc.TransferOwnership(
		ctx, partyFromContext(ctx), newOwner,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *operatorHandler) addEntity(w http.ResponseWriter, r *http.Request) {
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
	info, err := h.operatorSvc.AddEntity(
		ctx, partyFromContext(ctx), name, country, account,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entityResponse{
		ID:        info.ID,
		CreatedAt: info.CreatedAt,
	})
}

func (h *operatorHandler) deactivateEntity(w http.ResponseWriter, r *http.Request) {
	h.toggleEntity(w, r, h.operatorSvc.DeactivateEntity)
}

func (h *operatorHandler) reactivateEntity(w http.ResponseWriter, r *http.Request) {
	h.toggleEntity(w, r, h.operatorSvc.ReactivateEntity)
}

func (h *operatorHandler) toggleEntity(
	w http.ResponseWriter, r *http.Request,
	toggleFn func(ctx context.Context, requester domain.Party, entityID uint64) error,
) {
	entityID, err := strconv.ParseUint(chi.URLParam(r, "entityId"), 10, 64)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid entity id: %s", err))
		return
	}

	ctx := r.Context()
	if err := toggleFn(ctx, partyFromContext(ctx), entityID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *operatorHandler) addWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Errorf("invalid request body: %s", err))
		return
	}

	id, err := h.operatorSvc.AddWebhook(
		r.Context(), req.Topic, req.Endpoint, req.Secret,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, webhookIDResponse{ID: id})
}

func (h *operatorHandler) removeWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.operatorSvc.RemoveWebhook(
		r.Context(), chi.URLParam(r, "id"),
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *operatorHandler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	webhooks, err := h.operatorSvc.ListWebhooks(
		r.Context(), r.URL.Query().Get("topic"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	list := make([]webhookResponse, 0, len(webhooks))
	for _, wh := range webhooks {
		list = append(list, webhookResponse{
			ID:       wh.ID,
			Topic:    wh.Topic,
			Endpoint: wh.Endpoint,
			Secured:  wh.Secured,
		})
	}
	writeJSON(w, http.StatusOK, list)
}
