package submission

import "errors"

// Sentinel kinds for submission failures.
var (
	// ErrSubmission means the scoring round trip failed; no record exists.
	ErrSubmission = errors.New("submission failed")
	// ErrPersistence means a score was obtained but the record was not written.
	// The accompanying Outcome still carries the score.
	ErrPersistence = errors.New("persistence failed")
	// ErrDuplicate means the submission id was already accepted.
	ErrDuplicate = errors.New("duplicate submission")
	// ErrMissingOwner means the submission has no owner id.
	ErrMissingOwner = errors.New("missing owner id")
)
