package api

import (
	"context"
	"net/http"

	"github.com/okian/balance/internal/domain/history"
	"github.com/okian/balance/internal/domain/model"
)

// HistoryDependencies reads an owner's past results.
type HistoryDependencies interface {
	History(ctx context.Context, ownerID string) (history.HistoryView, error)
	Records(ctx context.Context, ownerID string) ([]model.ResultRecord, error)
}

// HistoryHandler handles the /owners routes.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

type recordsResponse struct {
	OwnerID string               `json:"owner_id"`
	Records []model.ResultRecord `json:"records"`
}

// HandleHistory handles GET /owners/{id}/history.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRecords handles GET /owners/{id}/records.
func (h *HistoryHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("id")
	recs, err := h.deps.Records(r.Context(), owner)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if recs == nil {
		recs = []model.ResultRecord{}
	}
	writeJSON(w, http.StatusOK, recordsResponse{OwnerID: owner, Records: recs})
}
