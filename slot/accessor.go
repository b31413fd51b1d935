package slot

import (
	"context"
	"database/sql"
)

// ListingOwners resolves a listing to its owner. The found flag is false
// when the listing does not exist.
type ListingOwners interface {
	GetOwner(ctx context.Context, listingID int64) (ownerID int64, found bool, err error)
}

// Accessor is the DB layer entrypoint for slot-related queries.
type Accessor struct {
	db       *sql.DB
	listings ListingOwners
}

func NewAccessor(db *sql.DB, listings ListingOwners) *Accessor {
	return &Accessor{
		db:       db,
		listings: listings,
	}
}
