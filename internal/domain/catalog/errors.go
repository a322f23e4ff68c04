package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound        = errors.New("question not found")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrInvalidCatalog  = errors.New("invalid catalog")
)
