package slot

import (
	"errors"
	"time"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Slot is a bookable visit window published by a listing owner.
type Slot struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	ListingID   int64     `json:"listing_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Status      Status    `json:"status"`
	RequesterID *int64    `json:"requester_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Overlaps reports whether two windows share any instant. Back-to-back
// windows (one ending exactly when the other starts) do not overlap.
func (s *Slot) Overlaps(start, end time.Time) bool {
	return s.StartsAt.Before(end) && s.EndsAt.After(start)
}

// OwnerRequest is a pending or confirmed slot on one of the owner's
// listings, flattened with requester contact details.
type OwnerRequest struct {
	Slot
	ListingTitle     string `json:"listing_title"`
	ListingCity      string `json:"listing_city"`
	ListingAddress   string `json:"listing_address"`
	RequesterName    string `json:"requester_name"`
	RequesterSurname string `json:"requester_surname"`
	RequesterEmail   string `json:"requester_email"`
	RequesterPhone   string `json:"requester_phone"`
}

// Appointment is a pending or confirmed slot booked by a requester,
// flattened with listing and owner details.
type Appointment struct {
	Slot
	ListingTitle   string  `json:"listing_title"`
	ListingCity    string  `json:"listing_city"`
	ListingAddress string  `json:"listing_address"`
	ListingPrice   float64 `json:"listing_price"`
	OwnerName      string  `json:"owner_name"`
	OwnerSurname   string  `json:"owner_surname"`
	OwnerEmail     string  `json:"owner_email"`
	OwnerPhone     string  `json:"owner_phone"`
}

// Filters narrows an owner's slot listing.
type Filters struct {
	ListingID int64
	Status    Status
	From      time.Time
	To        time.Time
}

// Validation failures.
var (
	ErrInvalidWindow      = errors.New("end must be after start")
	ErrStartNotFuture     = errors.New("start must be in the future")
	ErrOwnListing         = errors.New("cannot request a slot on your own listing")
	ErrNothingToCancel    = errors.New("slot is not reserved or already cancelled")
	ErrConfirmedImmutable = errors.New("confirmed slot cannot be modified")
	ErrNoFields           = errors.New("no fields to update")
)

// Authorization failures.
var (
	ErrNotListingOwner = errors.New("listing does not belong to caller")
	ErrNotOwner        = errors.New("slot does not belong to caller")
	ErrNotParticipant  = errors.New("caller is neither owner nor requester of the slot")
)

// Lookup failures. ErrNotPending is kept separate from ErrNotFound so tests
// can tell them apart; the HTTP layer deliberately reports both as a single
// not-found rejection.
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrNotFound        = errors.New("slot not found")
	ErrNotPending      = errors.New("slot is not pending")
	ErrNotAvailable    = errors.New("slot does not exist or is no longer available")
)

// Conflict failure.
var ErrOverlap = errors.New("slot overlaps an existing slot for this listing")
