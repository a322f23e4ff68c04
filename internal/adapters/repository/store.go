// Package repository persists result records. Every read is scoped to one
// owner; records are append-only.
package repository

import (
	"context"

	"github.com/okian/balance/internal/domain/model"
)

// Store provides append and owner-scoped read access to result records.
type Store interface {
	// Append writes a new record, assigning its ID and CreatedAt.
	Append(ctx context.Context, rec model.NewRecord) (model.ResultRecord, error)

	// Get returns one record by id. Returns ErrNotFound if it is unknown.
	Get(ctx context.Context, id string) (model.ResultRecord, error)

	// ListByOwner returns the owner's records oldest first. Records without
	// a timestamp come last, in insertion order. ownerID is mandatory.
	ListByOwner(ctx context.Context, ownerID string) ([]model.ResultRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}
