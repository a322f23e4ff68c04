package scoring

import "errors"

// Sentinel kinds for scoring failures. Any of them means no score was produced.
var (
	ErrUnavailable       = errors.New("scorer unavailable")
	ErrRejected          = errors.New("scorer rejected request")
	ErrMalformedResponse = errors.New("malformed scorer response")
	ErrInvalidInput      = errors.New("invalid feature vector")
)

// Kind returns a short metrics label for a scoring error.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "other"
	}
}
