package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/balance/internal/domain/submission"
	"github.com/okian/balance/internal/domain/types"
)

// AssessmentDependencies scores single-page form submissions.
type AssessmentDependencies interface {
	SubmitForm(ctx context.Context, ownerID string, answers map[string]float64, submissionID string) (types.Assessment, error)
}

// AssessmentsHandler handles POST /assessments.
type AssessmentsHandler struct {
	deps AssessmentDependencies
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(deps AssessmentDependencies) *AssessmentsHandler {
	return &AssessmentsHandler{deps: deps}
}

type assessmentRequest struct {
	OwnerID      string             `json:"owner_id"`
	SubmissionID string             `json:"submission_id,omitempty"`
	Answers      map[string]float64 `json:"answers"`
}

// HandleSubmit handles POST /assessments. The request is scored once; a
// repeated submission_id is answered with 409.
func (h *AssessmentsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_assessment"
	var req assessmentRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.deps.SubmitForm(r.Context(), req.OwnerID, req.Answers, req.SubmissionID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, a)
	case errors.Is(err, submission.ErrPersistence):
		writeJSON(w, http.StatusOK, a)
	default:
		writeFailure(w, err)
	}
}
