package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/balance/internal/app"
	"github.com/okian/balance/internal/batch"
	"github.com/okian/balance/internal/domain/catalog"
	"github.com/okian/balance/internal/domain/collector"
	"github.com/okian/balance/internal/domain/scoring"
	"github.com/okian/balance/internal/domain/submission"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrTooLarge   = errors.New("request body too large")
)

// NewKind tags kind with the operation that produced it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags kind and cause with the operation that produced them.
func WrapKind(op string, kind, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}

// statusFor maps a service error to an HTTP status and error code.
// Order matters: a submission failure wraps the scorer's own kind.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotStarted),
		errors.Is(err, service.ErrSessionLimit):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, submission.ErrDuplicate),
		errors.Is(err, collector.ErrCompleted),
		errors.Is(err, collector.ErrAlreadySubmitted),
		errors.Is(err, collector.ErrNotComplete),
		errors.Is(err, collector.ErrSubmissionPending):
		return http.StatusConflict, "conflict"
	case errors.Is(err, submission.ErrSubmission):
		return http.StatusBadGateway, "submission_failed"
	case errors.Is(err, scoring.ErrUnavailable):
		return http.StatusServiceUnavailable, "scorer_unavailable"
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, collector.ErrInvalidChoice),
		errors.Is(err, collector.ErrMissingOwner),
		errors.Is(err, collector.ErrRevisitDisabled),
		errors.Is(err, collector.ErrAtFirstQuestion),
		errors.Is(err, submission.ErrMissingOwner),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, scoring.ErrInvalidInput),
		errors.Is(err, batch.ErrEmptyInput):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
