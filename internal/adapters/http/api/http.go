// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/balance/pkg/logger"
)

// Dependencies required by HTTP handlers. Each handler only sees the
// slice of this bundle it needs.
type Dependencies interface {
	CatalogDependencies
	SessionDependencies
	AssessmentDependencies
	HistoryDependencies
	BatchDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	catalogHandler     *CatalogHandler
	sessionsHandler    *SessionsHandler
	assessmentsHandler *AssessmentsHandler
	historyHandler     *HistoryHandler
	batchHandler       *BatchHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		catalogHandler:     NewCatalogHandler(deps),
		sessionsHandler:    NewSessionsHandler(deps),
		assessmentsHandler: NewAssessmentsHandler(deps),
		historyHandler:     NewHistoryHandler(deps),
		batchHandler:       NewBatchHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /catalog", MetricsMiddleware(s.catalogHandler.HandleCatalog, "catalog"))
	mux.HandleFunc("GET /columns", MetricsMiddleware(s.catalogHandler.HandleColumns, "columns"))
	mux.HandleFunc("POST /predict", MetricsMiddleware(s.catalogHandler.HandlePredict, "predict"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleStart, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "session"))
	mux.HandleFunc("POST /sessions/{id}/answer", MetricsMiddleware(s.sessionsHandler.HandleAnswer, "session_answer"))
	mux.HandleFunc("POST /sessions/{id}/next", MetricsMiddleware(s.sessionsHandler.HandleNext, "session_next"))
	mux.HandleFunc("POST /sessions/{id}/back", MetricsMiddleware(s.sessionsHandler.HandleBack, "session_back"))
	mux.HandleFunc("POST /sessions/{id}/submit", MetricsMiddleware(s.sessionsHandler.HandleSubmit, "session_submit"))

	mux.HandleFunc("POST /assessments", MetricsMiddleware(s.assessmentsHandler.HandleSubmit, "assessments"))
	mux.HandleFunc("GET /owners/{id}/history", MetricsMiddleware(s.historyHandler.HandleHistory, "history"))
	mux.HandleFunc("GET /owners/{id}/records", MetricsMiddleware(s.historyHandler.HandleRecords, "records"))

	mux.HandleFunc("POST /batch", MetricsMiddleware(s.batchHandler.HandleBatch, "batch"))

	logger.Get().Named("api").Debug(ctx, "routes registered")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure writes err with the status its kind maps to.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
