// Package repository indexes current wrestler ratings for rank queries.
package repository

import (
	"context"

	"github.com/okian/grapple/internal/domain/types"
)

// Store provides read/write access to the rating index.
type Store interface {
	// Upsert sets a wrestler's current rating, replacing any previous one.
	Upsert(ctx context.Context, e types.Entry) error

	// Replace swaps the whole index for entries in one step.
	Replace(ctx context.Context, entries []types.Entry) error

	// Rank returns a wrestler's position, 1 being the highest rating.
	// Returns ErrNotFound if the wrestler is unknown.
	Rank(ctx context.Context, wrestlerID string) (types.Entry, error)

	// TopN returns the n highest rated wrestlers.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of wrestlers indexed.
	Count(ctx context.Context) int
}
