package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/balance/internal/domain/submission"
	"github.com/okian/balance/internal/domain/types"
)

// SessionDependencies drives paginated collector sessions.
type SessionDependencies interface {
	StartSession(ctx context.Context, ownerID string) (types.Session, error)
	Session(ctx context.Context, id string) (types.Session, error)
	Answer(ctx context.Context, id string, value float64) (types.Session, error)
	Advance(ctx context.Context, id string) (types.Session, error)
	Back(ctx context.Context, id string) (types.Session, error)
	Retry(ctx context.Context, id string) (types.Session, error)
}

// SessionsHandler handles the /sessions routes.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

type startSessionRequest struct {
	OwnerID string `json:"owner_id"`
}

type answerRequest struct {
	Value *float64 `json:"value"`
}

// HandleStart handles POST /sessions.
func (h *SessionsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_session"
	var req startSessionRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sess, err := h.deps.StartSession(r.Context(), strings.TrimSpace(req.OwnerID))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.deps.Session(r.Context(), r.PathValue("id")))
}

// HandleAnswer handles POST /sessions/{id}/answer.
func (h *SessionsHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	const op = "api.answer"
	var req answerRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Value == nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing value")))
		return
	}
	h.respond(w)(h.deps.Answer(r.Context(), r.PathValue("id"), *req.Value))
}

// HandleNext handles POST /sessions/{id}/next. Advancing past the last
// question submits the answers.
func (h *SessionsHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.deps.Advance(r.Context(), r.PathValue("id")))
}

// HandleBack handles POST /sessions/{id}/back.
func (h *SessionsHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.deps.Back(r.Context(), r.PathValue("id")))
}

// HandleSubmit handles POST /sessions/{id}/submit, the retry after a failure.
func (h *SessionsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.deps.Retry(r.Context(), r.PathValue("id")))
}

// respond writes the session, or the error when the call failed. A
// persistence failure still carries a score, so the session is returned.
func (h *SessionsHandler) respond(w http.ResponseWriter) func(types.Session, error) {
	return func(sess types.Session, err error) {
		if err != nil && !errors.Is(err, submission.ErrPersistence) {
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}
