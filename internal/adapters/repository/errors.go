package repository

import "errors"

// Sentinel errors for the record stores.
var (
	ErrNotFound      = errors.New("record not found")
	ErrMissingOwner  = errors.New("owner id is required")
	ErrClosed        = errors.New("store is closed")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrDuplicateID   = errors.New("record id already exists")
)
