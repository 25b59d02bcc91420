package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Store is the authoritative set of products keyed by id. Every method is
// total: absence is reported through the boolean results, never as an error.
type Store interface {
	// Put inserts or replaces the product at p.ID.
	Put(p Product)
	// Get returns the product stored under id, if any.
	Get(id uuid.UUID) (Product, bool)
	// GetAll returns a detached snapshot of every product, ordered by id.
	GetAll() []Product
	// Remove deletes id. Removing a missing id is a no-op.
	Remove(id uuid.UUID)
	// Clear drops every product.
	Clear()

	// ReplaceIfPresent stores p only if p.ID is currently present.
	ReplaceIfPresent(p Product) bool
	// RemoveIfPresent deletes id and reports whether it was present.
	RemoveIfPresent(id uuid.UUID) bool

	Len() int
	Ping(ctx context.Context) error
}
