package preference

import (
	"context"
	"database/sql"

	"realty-system/listing"
)

// ListingSearcher supplies the published listings the scorer runs over.
type ListingSearcher interface {
	Search(ctx context.Context, f listing.Filters) ([]listing.Listing, error)
}

// Accessor is the DB layer entrypoint for preference and suggestion
// queries.
type Accessor struct {
	db       *sql.DB
	listings ListingSearcher
}

func NewAccessor(db *sql.DB, listings ListingSearcher) *Accessor {
	return &Accessor{
		db:       db,
		listings: listings,
	}
}
