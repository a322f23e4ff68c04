package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/model"
)

// CatalogDependencies exposes the question catalog and the local model.
type CatalogDependencies interface {
	Catalog() *catalog.Catalog
	Columns() []string
	Predict(ctx context.Context, features model.FeatureVector) (model.ScoreResult, error)
}

// CatalogHandler serves the catalog, the feature order and raw predictions.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

type catalogResponse struct {
	Questions []catalog.Question `json:"questions"`
}

type columnsResponse struct {
	Columns []string `json:"columns"`
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

// HandleCatalog handles GET /catalog.
func (h *CatalogHandler) HandleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalogResponse{Questions: h.deps.Catalog().Questions()})
}

// HandleColumns handles GET /columns.
func (h *CatalogHandler) HandleColumns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, columnsResponse{Columns: h.deps.Columns()})
}

// HandlePredict handles POST /predict.
func (h *CatalogHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	var req predictRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Features == nil {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	res, err := h.deps.Predict(r.Context(), req.Features)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
