package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"realty-system/listing"
	"realty-system/slot"
)

func (a *API) slotAccessor() *slot.Accessor {
	return slot.NewAccessor(a.db, listing.NewAccessor(a.db))
}

// slotError translates slot failures to HTTP statuses. Not-found,
// wrong-state and not-yours rejections deliberately collapse into one 404
// so callers cannot distinguish foreign slots from missing ones.
func (a *API) slotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slot.ErrInvalidWindow),
		errors.Is(err, slot.ErrStartNotFuture),
		errors.Is(err, slot.ErrOwnListing),
		errors.Is(err, slot.ErrNothingToCancel),
		errors.Is(err, slot.ErrConfirmedImmutable),
		errors.Is(err, slot.ErrNoFields):
		a.Response(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, slot.ErrNotListingOwner):
		a.Response(w, http.StatusForbidden, err.Error())
	case errors.Is(err, slot.ErrListingNotFound),
		errors.Is(err, slot.ErrNotAvailable):
		a.Response(w, http.StatusNotFound, err.Error())
	case errors.Is(err, slot.ErrNotFound),
		errors.Is(err, slot.ErrNotPending),
		errors.Is(err, slot.ErrNotOwner),
		errors.Is(err, slot.ErrNotParticipant):
		a.Response(w, http.StatusNotFound, "slot not found, not yours, or not in the required state")
	case errors.Is(err, slot.ErrOverlap):
		a.Response(w, http.StatusConflict, err.Error())
	default:
		a.serverError(w, err)
	}
}

type createSlotRequest struct {
	ListingID int64     `json:"listing_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

func (a *API) createSlot(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ListingID <= 0 {
		a.Response(w, http.StatusBadRequest, "listing_id is required")
		return
	}
	if req.StartsAt.IsZero() || req.EndsAt.IsZero() {
		a.Response(w, http.StatusBadRequest, "starts_at and ends_at are required")
		return
	}

	s, err := a.slotAccessor().Create(r.Context(), a.principal(r), req.ListingID, req.StartsAt.UTC(), req.EndsAt.UTC(), a.now())
	if err != nil {
		a.slotError(w, err)
		return
	}
	a.Response(w, http.StatusCreated, s)
}

func (a *API) mySlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := slot.Filters{
		Status: slot.Status(q.Get("status")),
	}
	filters.ListingID, _ = strconv.ParseInt(q.Get("listing_id"), 10, 64)
	if from, err := time.Parse(time.RFC3339, q.Get("from")); err == nil {
		filters.From = from
	}
	if to, err := time.Parse(time.RFC3339, q.Get("to")); err == nil {
		filters.To = to
	}

	slots, err := a.slotAccessor().ListByOwner(r.Context(), a.principal(r).UserID, filters)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"slots": slots})
}

func (a *API) slotRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := a.slotAccessor().ListRequests(r.Context(), a.principal(r).UserID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"requests": requests})
}

func (a *API) myAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := a.slotAccessor().ListByRequester(r.Context(), a.principal(r).UserID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"appointments": appointments})
}

func (a *API) freeSlots(w http.ResponseWriter, r *http.Request) {
	listingID, ok := a.pathID(w, r, "listingId")
	if !ok {
		return
	}

	// Slots are only advertised for published listings.
	listingAccessor := listing.NewAccessor(a.db)
	l, err := listingAccessor.GetByID(r.Context(), listingID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	if l == nil || l.PublicationStatus != listing.PublicationPublished {
		a.Response(w, http.StatusNotFound, "listing not found or not published")
		return
	}

	slots, err := a.slotAccessor().ListFree(r.Context(), listingID, a.now())
	if err != nil {
		a.serverError(w, err)
		return
	}
	a.Response(w, http.StatusOK, map[string]any{"slots": slots})
}

type updateSlotRequest struct {
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

func (a *API) updateSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Response(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := a.slotAccessor().UpdateWindow(r.Context(), a.principal(r), id, req.StartsAt, req.EndsAt)
	if err != nil {
		a.slotError(w, err)
		return
	}
	a.Response(w, http.StatusOK, s)
}

func (a *API) deleteSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := a.slotAccessor().Delete(r.Context(), a.principal(r), id); err != nil {
		a.slotError(w, err)
		return
	}
	a.Response(w, http.StatusNoContent, nil)
}

func (a *API) requestSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}

	s, err := a.slotAccessor().Request(r.Context(), a.principal(r), id)
	if err != nil {
		a.slotError(w, err)
		return
	}
	a.Response(w, http.StatusOK, s)
}

func (a *API) acceptSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}

	s, err := a.slotAccessor().Accept(r.Context(), a.principal(r), id)
	if err != nil {
		a.slotError(w, err)
		return
	}
	a.Response(w, http.StatusOK, s)
}

func (a *API) refuseSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}

	s, err := a.slotAccessor().Refuse(r.Context(), a.principal(r), id)
	if err != nil {
		a.slotError(w, err)
		return
	}
	a.Response(w, http.StatusOK, s)
}

func (a *API) cancelSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}

	s, err := a.slotAccessor().Cancel(r.Context(), a.principal(r), id)
	if err != nil {
		a.slotError(w, err)
		return
	}
	a.Response(w, http.StatusOK, s)
}
