package collector

import "errors"

// Sentinel kinds for collector errors.
var (
	ErrInvalidChoice     = errors.New("invalid choice")
	ErrCompleted         = errors.New("questionnaire already complete")
	ErrNotComplete       = errors.New("questionnaire not complete")
	ErrAlreadySubmitted  = errors.New("questionnaire already submitted")
	ErrSubmissionPending = errors.New("submission in progress")
	ErrRevisitDisabled   = errors.New("revisiting previous questions is disabled")
	ErrAtFirstQuestion   = errors.New("already at the first question")
	ErrMissingOwner      = errors.New("missing owner id")
)
